// Package memory provides in-process stores used when no database or
// Redis is configured. State is lost on restart.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
)

type IdentityRepository struct {
	mu         sync.RWMutex
	identities map[string]domain.Identity

	locksMu sync.Mutex
	locks   map[string]*subjectLock
}

type subjectLock struct {
	ch   chan struct{}
	refs int
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		identities: make(map[string]domain.Identity),
		locks:      make(map[string]*subjectLock),
	}
}

func (r *IdentityRepository) FindBySubject(_ context.Context, subjectID string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.identities[subjectID]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return &id, nil
}

func (r *IdentityRepository) SaveLinkedAccount(_ context.Context, subjectID string, linked *domain.LinkedAccount) error {
	if linked == nil || linked.ID == "" {
		return errors.New("save linked account: linked account id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.identities[subjectID]
	id.SubjectID = subjectID
	id.LinkedAccountID = linked.ID
	id.LinkedStatus = linked.Status
	r.identities[subjectID] = id
	return nil
}

func (r *IdentityRepository) SavePhoneNumber(_ context.Context, subjectID, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.identities[subjectID]
	id.SubjectID = subjectID
	id.PhoneNumber = phone
	r.identities[subjectID] = id
	return nil
}

// WithSubjectLock serializes fn per subject. Waiting for the lock honours
// ctx cancellation.
func (r *IdentityRepository) WithSubjectLock(ctx context.Context, subjectID string, fn func(ctx context.Context) error) error {
	l := r.acquireRef(subjectID)
	defer r.releaseRef(subjectID, l)

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.ch }()

	return fn(ctx)
}

func (r *IdentityRepository) acquireRef(subjectID string) *subjectLock {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l, ok := r.locks[subjectID]
	if !ok {
		l = &subjectLock{ch: make(chan struct{}, 1)}
		r.locks[subjectID] = l
	}
	l.refs++
	return l
}

func (r *IdentityRepository) releaseRef(subjectID string, l *subjectLock) {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(r.locks, subjectID)
	}
}
