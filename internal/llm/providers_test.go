package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/config"
)

func TestOllama_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stream || req.Model != "llama3.1" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "hi " + req.Prompt, Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", "llama3.1")
	resp, err := c.Generate(context.Background(), "there")
	require.NoError(t, err)
	require.Equal(t, "hi there", resp)
	require.Equal(t, "ollama:llama3.1", c.Name())
}

func TestOllama_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaClient(srv.URL, "missing").Generate(context.Background(), "p")
	require.ErrorContains(t, err, "model not found")
	require.True(t, IsPermanent(err))
}

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req oaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 1 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"answer to ` + req.Messages[0].Content + `"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1", "sk-test", "gpt-4o-mini")
	resp, err := c.Generate(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, "answer to q", resp)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(srv.URL, "", "m").Generate(context.Background(), "q")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAI_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(srv.URL, "", "m").Generate(context.Background(), "q")
	require.Error(t, err)
	require.False(t, IsPermanent(err))
}

func TestScript_MatchedAndQueued(t *testing.T) {
	c := NewScriptClient("t", []ScriptEntry{
		{Response: "first"},
		{Match: "ORDER", Response: "ordered"},
		{Response: "second"},
	})
	ctx := context.Background()

	r, err := c.Generate(ctx, "please ORDER these")
	require.NoError(t, err)
	require.Equal(t, "ordered", r)

	r, _ = c.Generate(ctx, "a")
	require.Equal(t, "first", r)
	r, _ = c.Generate(ctx, "b")
	require.Equal(t, "second", r)

	_, err = c.Generate(ctx, "c")
	require.True(t, IsPermanent(err))
	require.Equal(t, 4, c.Calls())
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	content := "responses:\n  - response: |\n      hello\n  - match: world\n    response: matched\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := LoadScript(path)
	require.NoError(t, err)
	r, err := c.Generate(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "hello\n", r)
	r, _ = c.Generate(context.Background(), "hello world")
	require.Equal(t, "matched", r)
}

func TestNew_ScriptWithCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte("responses:\n  - response: one\n"), 0644))

	cfg := config.LLM{
		Provider: "script",
		Script:   path,
		Retries:  1,
		Burst:    1,
		Cache:    config.Cache{Dir: filepath.Join(dir, "cache"), Size: 4},
	}
	cli, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer cli.Close()

	r, err := cli.Generate(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "one", r)
	// the script is exhausted, so this must come from the cache
	r, err = cli.Generate(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "one", r)

	_, err = os.Stat(CacheFile(cfg.Cache.Dir))
	require.NoError(t, err)
}

func TestNew_GeminiNeedsKey(t *testing.T) {
	_, err := New(context.Background(), config.LLM{Provider: "gemini", Model: "gemini-2.5-flash"}, nil)
	require.ErrorContains(t, err, "no API key")
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLM{Provider: "nope"}, nil)
	require.Error(t, err)
}
