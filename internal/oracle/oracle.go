// Package oracle defines the contract of the external reasoning service that
// turns a structured prompt into a structured response, plus the backends
// that can serve it. The engine treats every response as untrusted.
package oracle

import (
	"context"
	"errors"
	"strings"
)

// Failure modes of an oracle call.
var (
	// ErrTransient covers network errors, rate limits and timeouts. Retryable.
	ErrTransient = errors.New("transient oracle failure")
	// ErrSchemaViolation means the response did not conform to the stage schema.
	ErrSchemaViolation = errors.New("oracle output violates schema")
	// ErrUnknownProvider is returned when no backend matches the configured provider.
	ErrUnknownProvider = errors.New("unknown oracle provider")
)

// Request is a single structured prompt for one pipeline stage.
type Request struct {
	Stage        string
	Instructions string
	Schema       string
	Context      string
}

// Text composes the prompt sent to a language model: instructions, then the
// output schema, then the serialized case context.
func (r Request) Text() string {
	var sb strings.Builder
	sb.WriteString(r.Instructions)
	sb.WriteString("\n\n")
	sb.WriteString(r.Schema)

	if r.Context != "" {
		sb.WriteString("\n\nCurrent case context:\n\n")
		sb.WriteString(r.Context)
	}

	return sb.String()
}

// Oracle returns the raw content produced for a request. Implementations
// report retryable failures wrapped with ErrTransient.
type Oracle interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Invoke(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// IsTransient reports whether err is a retryable oracle failure. Deadline
// expiry of a stage call counts as transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded)
}
