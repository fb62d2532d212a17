// Package extraction defines the document understanding boundary: a Service
// turns document bytes into either an ordered field list (schema mode) or
// fact mappings per document (facts mode). Adapters for Gemini and for
// fillable PDF forms live here too.
package extraction

import (
	"context"
	"fmt"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/types"
)

// Mode selects what a Service extracts.
type Mode string

// Extraction modes
const (
	ModeSchema Mode = "schema"
	ModeFacts  Mode = "facts"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSchema, ModeFacts:
		return Mode(s), nil
	default:
		return "", errors.NewValidationError("mode", fmt.Sprintf("unknown extraction mode %q", s))
	}
}

// Payload is the successful output of an extraction. Only the part matching
// the requested mode is populated.
type Payload struct {
	Fields []types.Field       `json:"fields,omitempty"`
	Facts  []types.SourceFacts `json:"facts,omitempty"`
}

// Result is either a Payload or a failure reason.
type Result struct {
	Payload Payload
	Err     error
}

// Success wraps a payload.
func Success(p Payload) Result {
	return Result{Payload: p}
}

// Failure wraps a failure reason. Reasons that are not already extraction
// errors are wrapped in one so callers can test with errors.Is.
func Failure(mode Mode, err error) Result {
	if err == nil {
		err = errors.New("unknown failure")
	}
	if !errors.Is(err, errors.ErrExtractionFailed) {
		err = errors.NewExtractionError(string(mode), "service failed", err)
	}
	return Result{Err: err}
}

// Failed reports whether the result is a failure.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Service is the document understanding boundary. Implementations may be
// slow and may fail; Extract must honor ctx cancellation.
type Service interface {
	Extract(ctx context.Context, mode Mode, docs []types.Document) Result
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, mode Mode, docs []types.Document) Result

// Extract calls f.
func (f ServiceFunc) Extract(ctx context.Context, mode Mode, docs []types.Document) Result {
	return f(ctx, mode, docs)
}
