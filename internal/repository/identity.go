package repository

import (
	"context"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
)

// IdentityRepository stores what this service knows about a subject beyond
// the backend record: the linked holder and the phone number on file.
type IdentityRepository interface {
	// FindBySubject returns domain.ErrIdentityNotFound when nothing is stored.
	FindBySubject(ctx context.Context, subjectID string) (*domain.Identity, error)
	SaveLinkedAccount(ctx context.Context, subjectID string, linked *domain.LinkedAccount) error
	SavePhoneNumber(ctx context.Context, subjectID, phone string) error

	// WithSubjectLock runs fn while holding an exclusive per-subject lock.
	// Two sign-ins for the same subject never run fn concurrently.
	WithSubjectLock(ctx context.Context, subjectID string, fn func(ctx context.Context) error) error
}
