package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/config"
)

// New builds the configured provider wrapped as
// logging -> cache -> retry -> rate limit -> timeout -> provider.
// Only final answers reach the cache.
func New(ctx context.Context, cfg config.LLM, logger *slog.Logger) (Client, error) {
	var base Client
	switch cfg.Provider {
	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey(), cfg.Model)
		if err != nil {
			return nil, err
		}
		base = c
	case "ollama":
		base = NewOllamaClient(cfg.BaseURL, cfg.Model)
	case "openai":
		base = NewOpenAIClient(cfg.BaseURL, cfg.APIKey(), cfg.Model)
	case "script":
		c, err := LoadScript(cfg.Script)
		if err != nil {
			return nil, err
		}
		base = c
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}

	mws := []Middleware{WithLogging(logger)}
	if cfg.Cache.On() {
		store, err := openStore(cfg.Cache, logger)
		if err != nil {
			return nil, err
		}
		mws = append(mws, Cache(store))
	}
	mws = append(mws,
		Retry(cfg.Retries, time.Second),
		RateLimit(cfg.RPS, cfg.Burst),
		Timeout(time.Duration(cfg.Timeout)*time.Second),
	)
	return Wrap(base, mws...), nil
}

func openStore(c config.Cache, logger *slog.Logger) (Store, error) {
	mem, err := NewMemoryStore(c.Size)
	if err != nil {
		return nil, err
	}
	disk, err := OpenFileStore(c.Dir)
	if err != nil {
		return nil, err
	}
	return Layered{Front: mem, Back: disk, Log: logger}, nil
}

// NewLogger returns a text logger on stderr at the level named by
// TUTOR_LOG_LEVEL (debug, info, warn, error). The default is warn.
func NewLogger() *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("TUTOR_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// CacheFile returns the on-disk cache path for a cache dir.
func CacheFile(dir string) string {
	return filepath.Join(dir, "llm_cache.json")
}
