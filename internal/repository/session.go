package repository

import (
	"context"
	"time"
)

// SessionStateRepository keeps session-scoped markers keyed by session id.
// Every marker lives no longer than ttl, which callers set to the token's
// remaining lifetime.
type SessionStateRepository interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
	MarkGateSatisfied(ctx context.Context, sessionID string, ttl time.Duration) error
	IsGateSatisfied(ctx context.Context, sessionID string) (bool, error)
}
