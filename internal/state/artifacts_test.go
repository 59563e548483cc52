package state

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	artDir := filepath.Join(dir, "artifacts")
	if err := EnsureDir(artDir); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"checkpoints", "checkpoints/chapters", "prompts", "responses"} {
		path := filepath.Join(artDir, sub)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("%s not created: %v", sub, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", sub)
		}
	}
}

func TestArtifactsDir(t *testing.T) {
	got := ArtifactsDir("output", "demo")
	want := filepath.Join("output", "demo", ".tutor")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	type payload struct {
		Order []int `json:"order"`
	}
	if err := SaveCheckpoint(dir, "order", payload{Order: []int{2, 0, 1}}); err != nil {
		t.Fatal(err)
	}
	var got payload
	if err := LoadCheckpoint(dir, "order", &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Order, []int{2, 0, 1}) {
		t.Fatalf("got %v", got.Order)
	}
}

func TestLoadCheckpoint_Missing(t *testing.T) {
	dir := t.TempDir()
	var v map[string]any
	err := LoadCheckpoint(dir, "relate", &v)
	if !errors.Is(err, ErrNoCheckpoint) {
		t.Fatalf("expected ErrNoCheckpoint, got %v", err)
	}
}

func TestChapters_StopAtGap(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{1, 2, 4} {
		if err := SaveChapter(dir, n, "chapter"); err != nil {
			t.Fatal(err)
		}
	}
	got, err := LoadChapters(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 contiguous chapters, got %d", len(got))
	}

	if err := ClearChapters(dir); err != nil {
		t.Fatal(err)
	}
	got, _ = LoadChapters(dir)
	if len(got) != 0 {
		t.Fatalf("expected no chapters after clear, got %d", len(got))
	}
}

func TestPromptPath(t *testing.T) {
	got := PromptPath("/art", "identify", 0)
	want := filepath.Join("/art", "prompts", "identify.md")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	got = PromptPath("/art", "write", 3)
	want = filepath.Join("/art", "prompts", "write-03.md")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResponsePath(t *testing.T) {
	got := ResponsePath("/art", "order", 0)
	want := filepath.Join("/art", "responses", "order.md")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLatestExchange(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{1, 2} {
		os.WriteFile(PromptPath(dir, "write", n), []byte("p"), 0644)
	}
	os.WriteFile(ResponsePath(dir, "write", 1), []byte("r"), 0644)

	prompt, response := LatestExchange(dir, "write")
	if prompt != PromptPath(dir, "write", 2) {
		t.Fatalf("prompt = %q", prompt)
	}
	if response != ResponsePath(dir, "write", 1) {
		t.Fatalf("response = %q", response)
	}
	if p, r := LatestExchange(dir, "order"); p != "" || r != "" {
		t.Fatalf("expected nothing for order, got %q %q", p, r)
	}
}
