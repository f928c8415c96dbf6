package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Client is the boundary around a language-model backend. One call, one
// completion: prompt text plus an optional JSON-serializable input object in,
// raw completion text out. Clients never retry; retry is middleware.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string, input any) (string, error)
	Close() error
}

// ErrEmptyCompletion is returned when a backend answers with no usable text.
var ErrEmptyCompletion = errors.New("llm: empty completion from model")

// GatewayErrorKind classifies backend failures.
type GatewayErrorKind string

const (
	KindTimeout           GatewayErrorKind = "timeout"
	KindConnectionRefused GatewayErrorKind = "connection_refused"
	KindBackend           GatewayErrorKind = "backend"
)

// GatewayError is the typed failure of a backend invocation. Callers decide
// whether to retry (middleware) or fall back to heuristics (stages); the
// error itself is never surfaced to the end caller.
type GatewayError struct {
	Kind GatewayErrorKind
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llm gateway (%s): %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// NewGatewayError wraps a transport error with its failure kind.
func NewGatewayError(err error) *GatewayError {
	return &GatewayError{Kind: classify(err), Err: err}
}

func classify(err error) GatewayErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}
	return KindBackend
}

// PermanentError indicates an error that will not resolve with retries
// (bad credentials, malformed request). Retry middleware passes it through.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
