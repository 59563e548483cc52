package llm

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache_HitSkipsProvider(t *testing.T) {
	store, err := NewMemoryStore(8)
	require.NoError(t, err)
	stub := &stubClient{}
	cli := Wrap(stub, Cache(store))

	a, err := cli.Generate(context.Background(), "same")
	require.NoError(t, err)
	b, err := cli.Generate(context.Background(), "same")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, 1, stub.calls)
}

func TestCache_WithoutCacheRefreshes(t *testing.T) {
	store, _ := NewMemoryStore(8)
	stub := &stubClient{results: []stubResult{{resp: "bad"}, {resp: "good"}}}
	cli := Wrap(stub, Cache(store))

	first, _ := cli.Generate(context.Background(), "p")
	require.Equal(t, "bad", first)

	fresh, err := cli.Generate(WithoutCache(context.Background()), "p")
	require.NoError(t, err)
	require.Equal(t, "good", fresh)

	// the fresh answer replaced the cached one
	again, _ := cli.Generate(context.Background(), "p")
	require.Equal(t, "good", again)
	require.Equal(t, 2, stub.calls)
}

func TestCache_ErrorsNotStored(t *testing.T) {
	store, _ := NewMemoryStore(8)
	stub := &stubClient{results: []stubResult{{err: context.DeadlineExceeded}, {resp: "ok"}}}
	cli := Wrap(stub, Cache(store))

	_, err := cli.Generate(context.Background(), "p")
	require.Error(t, err)
	resp, err := cli.Generate(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
}

func TestCacheKey(t *testing.T) {
	require.Equal(t, CacheKey("m", "p"), CacheKey("m", "p"))
	require.NotEqual(t, CacheKey("m", "p"), CacheKey("n", "p"))
	require.Len(t, CacheKey("m", "p"), 64)
}

func TestFileStore_Persists(t *testing.T) {
	dir := t.TempDir()
	fs1, err := OpenFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs1.Put("k", "v"))

	fs2, err := OpenFileStore(dir)
	require.NoError(t, err)
	v, ok := fs2.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
	require.Equal(t, 1, fs2.Len())
}

func TestFileStore_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(CacheFile(dir), []byte("{not json"), 0644))
	store, err := OpenFileStore(dir)
	require.NoError(t, err)
	require.Equal(t, 0, store.Len())
}

func TestLayered_PromotesBackHits(t *testing.T) {
	front, _ := NewMemoryStore(4)
	back, _ := NewMemoryStore(4)
	require.NoError(t, back.Put("k", "v"))

	l := Layered{Front: front, Back: back}
	v, ok := l.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	v, ok = front.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	require.NoError(t, l.Put("x", "y"))
	_, ok = back.Get("x")
	require.True(t, ok)
}

type failingStore struct{}

func (failingStore) Get(string) (string, bool) { return "", false }
func (failingStore) Put(string, string) error  { return errors.New("disk full") }

func TestLayered_PromoteFailureIsLogged(t *testing.T) {
	back, _ := NewMemoryStore(4)
	require.NoError(t, back.Put("k", "v"))

	var buf bytes.Buffer
	l := Layered{Front: failingStore{}, Back: back, Log: slog.New(slog.NewTextHandler(&buf, nil))}
	v, ok := l.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
	require.Contains(t, buf.String(), "cache promote failed")
	require.Contains(t, buf.String(), "disk full")
}

func TestMemoryStore_Evicts(t *testing.T) {
	m, _ := NewMemoryStore(2)
	_ = m.Put("a", "1")
	_ = m.Put("b", "2")
	_ = m.Put("c", "3")
	_, ok := m.Get("a")
	require.False(t, ok)
}
