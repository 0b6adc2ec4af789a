package memory

import (
	"context"
	"sync"
	"time"
)

type SessionStateRepository struct {
	mu        sync.Mutex
	revoked   map[string]time.Time
	satisfied map[string]time.Time
	now       func() time.Time
}

func NewSessionStateRepository() *SessionStateRepository {
	return &SessionStateRepository{
		revoked:   make(map[string]time.Time),
		satisfied: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (r *SessionStateRepository) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	r.put(r.revoked, sessionID, ttl)
	return nil
}

func (r *SessionStateRepository) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	return r.live(r.revoked, sessionID), nil
}

func (r *SessionStateRepository) MarkGateSatisfied(_ context.Context, sessionID string, ttl time.Duration) error {
	r.put(r.satisfied, sessionID, ttl)
	return nil
}

func (r *SessionStateRepository) IsGateSatisfied(_ context.Context, sessionID string) (bool, error) {
	return r.live(r.satisfied, sessionID), nil
}

// Purge drops every marker whose ttl has elapsed and reports how many were
// removed.
func (r *SessionStateRepository) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for _, m := range []map[string]time.Time{r.revoked, r.satisfied} {
		for sid, exp := range m {
			if !exp.After(now) {
				delete(m, sid)
				n++
			}
		}
	}
	return n
}

func (r *SessionStateRepository) put(m map[string]time.Time, sessionID string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m[sessionID] = r.now().Add(ttl)
}

func (r *SessionStateRepository) live(m map[string]time.Time, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := m[sessionID]
	return ok && exp.After(r.now())
}
