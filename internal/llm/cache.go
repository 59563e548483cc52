package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
)

// Store maps cache keys to responses.
type Store interface {
	Get(key string) (string, bool)
	Put(key, value string) error
}

// CacheKey derives the cache key for a prompt sent to model.
func CacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

// Cache answers repeated prompts from store. Only successful responses are
// stored.
func Cache(store Store) Middleware {
	return func(next Client) Client {
		return &caching{next: next, store: store}
	}
}

type caching struct {
	next  Client
	store Store
}

func (c *caching) Name() string { return c.next.Name() }
func (c *caching) Close() error { return c.next.Close() }
func (c *caching) Generate(ctx context.Context, prompt string) (string, error) {
	key := CacheKey(c.next.Name(), prompt)
	if !cacheBypassed(ctx) {
		if resp, ok := c.store.Get(key); ok {
			return resp, nil
		}
	}
	resp, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := c.store.Put(key, resp); err != nil {
		return "", fmt.Errorf("llm: caching response: %w", err)
	}
	return resp, nil
}

// MemoryStore is a bounded in-process LRU.
type MemoryStore struct {
	cache *lru.Cache[string, string]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: c}, nil
}

func (m *MemoryStore) Get(key string) (string, bool) { return m.cache.Get(key) }

func (m *MemoryStore) Put(key, value string) error {
	m.cache.Add(key, value)
	return nil
}

// FileStore persists responses in a single JSON file, rewritten atomically
// on every Put.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

// OpenFileStore loads dir/llm_cache.json, creating dir if needed. A corrupt
// cache file is treated as empty.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("llm: creating cache dir: %w", err)
	}
	fsStore := &FileStore{path: CacheFile(dir), entries: map[string]string{}}
	data, err := os.ReadFile(fsStore.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("llm: reading cache: %w", err)
	default:
		if json.Unmarshal(data, &fsStore.entries) != nil {
			fsStore.entries = map[string]string{}
		}
	}
	return fsStore, nil
}

func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok
}

func (f *FileStore) Put(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	data, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		return err
	}
	return state.WriteFileAtomic(f.path, data, 0644)
}

// Len returns the number of cached responses.
func (f *FileStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Layered reads through front to back and writes to both. Hits in back are
// promoted into front; a failed promotion still returns the hit and is logged
// to Log (slog.Default() when nil).
type Layered struct {
	Front, Back Store
	Log         *slog.Logger
}

func (l Layered) Get(key string) (string, bool) {
	if v, ok := l.Front.Get(key); ok {
		return v, true
	}
	v, ok := l.Back.Get(key)
	if ok {
		if err := l.Front.Put(key, v); err != nil {
			log := l.Log
			if log == nil {
				log = slog.Default()
			}
			log.Warn("cache promote failed", "key", key, "error", err)
		}
	}
	return v, ok
}

func (l Layered) Put(key, value string) error {
	if err := l.Front.Put(key, value); err != nil {
		return err
	}
	return l.Back.Put(key, value)
}
