// Package reqctx carries request-scoped identifiers through context.Context
// so that log records can be correlated without threading them by hand.
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

type (
	requestIDKey struct{}
	subjectIDKey struct{}
)

// NewRequestID generates a random UUID v4 request ID.
func NewRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns "" if absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithSubjectID attaches the signed-in subject once the session has been
// reconstituted.
func WithSubjectID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, subjectIDKey{}, id)
}

func SubjectID(ctx context.Context) string {
	id, _ := ctx.Value(subjectIDKey{}).(string)
	return id
}
