package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	revokedPrefix = "session:revoked:"
	gatePrefix    = "session:gate:"
)

type SessionStateRepository struct {
	client *goredis.Client
}

func NewSessionStateRepository(client *goredis.Client) *SessionStateRepository {
	return &SessionStateRepository{client: client}
}

func (r *SessionStateRepository) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := r.set(ctx, revokedPrefix+sessionID, ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *SessionStateRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	ok, err := r.exists(ctx, revokedPrefix+sessionID)
	if err != nil {
		return false, fmt.Errorf("check revoked: %w", err)
	}
	return ok, nil
}

func (r *SessionStateRepository) MarkGateSatisfied(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := r.set(ctx, gatePrefix+sessionID, ttl); err != nil {
		return fmt.Errorf("mark gate satisfied: %w", err)
	}
	return nil
}

func (r *SessionStateRepository) IsGateSatisfied(ctx context.Context, sessionID string) (bool, error) {
	ok, err := r.exists(ctx, gatePrefix+sessionID)
	if err != nil {
		return false, fmt.Errorf("check gate: %w", err)
	}
	return ok, nil
}

// set is a no-op for a non-positive ttl: the token has already expired and
// the marker would never be read.
func (r *SessionStateRepository) set(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, key, "1", ttl).Err()
}

func (r *SessionStateRepository) exists(ctx context.Context, key string) (bool, error) {
	err := r.client.Get(ctx, key).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
