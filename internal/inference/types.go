package inference

import (
	"context"
	"errors"
	"fmt"
)

// FallbackText is returned, flagged as degraded, when the service answers
// without any generated text.
const FallbackText = "No response"

// Options carries optional generation parameters.
type Options struct {
	// NumCtx is the context-window size hint.
	NumCtx int `json:"num_ctx"`
}

// Request is one non-streaming generation request.
type Request struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *Options `json:"options,omitempty"`
}

// Result is the outcome of a successful Infer call. Degraded is set when
// the service replied but produced no text; Text then holds FallbackText.
type Result struct {
	Text     string
	Degraded bool
}

// Transport performs a single generation attempt against endpoint. An empty
// returned string means the reply carried no generated text.
type Transport interface {
	Generate(ctx context.Context, endpoint string, req Request) (string, error)
}

// ErrUnavailable matches every UnavailableError via errors.Is.
var ErrUnavailable = errors.New("inference service unavailable")

// UnavailableError is returned once all attempts have failed, or when the
// circuit breaker refuses the call outright.
type UnavailableError struct {
	// Attempts is the number of transport calls made. Zero means the call
	// was rejected before reaching the transport.
	Attempts int
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("inference unavailable after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is reports ErrUnavailable as a match.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}
