// Package llm issues free-form generative calls against a configured model
// provider and layers rate limiting, retries, caching and logging on top.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is a text-in, text-out model.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
	Close() error
}

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// statusError classifies an unsuccessful HTTP response. Client errors other
// than throttling are permanent.
func statusError(provider string, code int, body string) error {
	err := fmt.Errorf("%s: returned status %d: %s", provider, code, body)
	if code >= 400 && code < 500 && code != 408 && code != 429 {
		return NewPermanentError(err)
	}
	return err
}

type ctxKey int

const (
	stageKey ctxKey = iota
	noCacheKey
)

// WithStage labels calls made with ctx for logging.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFrom returns the stage label of ctx, or "".
func StageFrom(ctx context.Context) string {
	s, _ := ctx.Value(stageKey).(string)
	return s
}

// WithoutCache makes calls with ctx skip cache lookups. The fresh response is
// still stored.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey, true)
}

func cacheBypassed(ctx context.Context) bool {
	b, _ := ctx.Value(noCacheKey).(bool)
	return b
}
