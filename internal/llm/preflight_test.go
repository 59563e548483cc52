package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/config"
)

func TestPreflight_GeminiKey(t *testing.T) {
	t.Setenv("TUTOR_TEST_KEY", "")
	cfg := config.LLM{Provider: "gemini", APIKeyEnv: "TUTOR_TEST_KEY"}
	err := Preflight(cfg)
	if err == nil || !strings.Contains(err.Error(), "TUTOR_TEST_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	t.Setenv("TUTOR_TEST_KEY", "k")
	if err := Preflight(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPreflight_Script(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	cfg := config.LLM{Provider: "script", Script: path}
	if err := Preflight(cfg); err == nil {
		t.Fatal("expected missing script error")
	}
	os.WriteFile(path, []byte("responses: []\n"), 0644)
	if err := Preflight(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPreflight_OllamaNeedsNothing(t *testing.T) {
	if err := Preflight(config.LLM{Provider: "ollama"}); err != nil {
		t.Fatal(err)
	}
}
