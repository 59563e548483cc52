package tutorial

import (
	"errors"
	"fmt"
)

// Stage names used in validation errors.
const (
	StageIdentify = "identify"
	StageRelate   = "relate"
	StageOrder    = "order"
	StageWrite    = "write"
)

// Failure kinds. A *ValidationError unwraps to exactly one of these.
var (
	ErrFenceMissing = errors.New("missing fenced yaml block")
	ErrSchema       = errors.New("schema error")
	ErrParse        = errors.New("parse error")
	ErrRange        = errors.New("range error")
	ErrDuplicate    = errors.New("duplicate index")
	ErrCompleteness = errors.New("incomplete")
)

// ValidationError reports an LLM response that failed structural validation.
type ValidationError struct {
	Stage string
	Kind  error
	// Indices holds the offending index values, when the failure names any.
	Indices []int
	Msg     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Stage, e.Kind, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func newError(stage string, kind error, indices []int, format string, args ...any) *ValidationError {
	return &ValidationError{
		Stage:   stage,
		Kind:    kind,
		Indices: indices,
		Msg:     fmt.Sprintf(format, args...),
	}
}

// IsValidation reports whether err is a response validation failure, as
// opposed to a transport or configuration error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
