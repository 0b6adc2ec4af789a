package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/gate"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/metrics"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/repository"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
)

type Verifier interface {
	Verify(ctx context.Context, email, password string) *domain.VerifiedUser
	Register(ctx context.Context, in RegisterInput) *domain.VerifiedUser
}

type Provisioner interface {
	ProvisionIfAbsent(ctx context.Context, user *domain.VerifiedUser) *domain.LinkedAccount
}

// ExternalIdentity is a sign-in vouched for by an external provider.
type ExternalIdentity struct {
	Provider      domain.Provider
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	PhoneNumber   string
}

// SignIn is the outcome of a successful handshake.
type SignIn struct {
	Token *session.Token
	View  *session.View
	Gate  gate.State
}

type AuthUsecase struct {
	verifier    Verifier
	provisioner Provisioner
	identities  repository.IdentityRepository
	sessions    repository.SessionStateRepository
	issuer      *session.Issuer
	logger      *slog.Logger
}

func NewAuthUsecase(
	verifier Verifier,
	provisioner Provisioner,
	identities repository.IdentityRepository,
	sessions repository.SessionStateRepository,
	issuer *session.Issuer,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		verifier:    verifier,
		provisioner: provisioner,
		identities:  identities,
		sessions:    sessions,
		issuer:      issuer,
		logger:      logger.With("component", "auth"),
	}
}

func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*SignIn, error) {
	start := time.Now()
	return u.complete(ctx, domain.ProviderPassword, u.verifier.Verify(ctx, email, password), start)
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*SignIn, error) {
	start := time.Now()
	return u.complete(ctx, domain.ProviderPassword, u.verifier.Register(ctx, in), start)
}

// ExternalSignIn establishes a session for an identity the provider has
// already verified. The phone number and linked account on file fill in
// whatever the provider did not supply.
func (u *AuthUsecase) ExternalSignIn(ctx context.Context, ext ExternalIdentity) (*SignIn, error) {
	start := time.Now()
	if !ext.Provider.External() || ext.Subject == "" || ext.Email == "" {
		return u.complete(ctx, ext.Provider, nil, start)
	}
	if !ext.EmailVerified {
		u.logger.InfoContext(ctx, "external email not verified", "provider", ext.Provider)
		return u.complete(ctx, ext.Provider, nil, start)
	}

	name := ext.Name
	if name == "" {
		name = localPart(ext.Email)
	}
	user := &domain.VerifiedUser{
		ID:               string(ext.Provider) + ":" + ext.Subject,
		Email:            ext.Email,
		DisplayName:      name,
		PhoneNumber:      ext.PhoneNumber,
		NeedsPhoneNumber: true,
		Provider:         ext.Provider,
	}

	stored, err := u.identities.FindBySubject(ctx, user.ID)
	switch {
	case err == nil:
		user.LinkedAccountID = stored.LinkedAccountID
		if user.PhoneNumber == "" {
			user.PhoneNumber = stored.PhoneNumber
		}
	case !errors.Is(err, domain.ErrIdentityNotFound):
		u.logger.WarnContext(ctx, "read identity", "error", err)
	}

	return u.complete(ctx, ext.Provider, user, start)
}

// SignOut revokes the session until its token would have expired anyway.
func (u *AuthUsecase) SignOut(ctx context.Context, view *session.View) error {
	if view == nil {
		return nil
	}
	ttl := view.ExpiresAt.Sub(u.issuer.Now())
	if err := u.sessions.Revoke(ctx, view.SessionID, ttl); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (u *AuthUsecase) complete(ctx context.Context, provider domain.Provider, user *domain.VerifiedUser, start time.Time) (*SignIn, error) {
	label := string(provider)
	if user == nil {
		metrics.SignInsTotal.WithLabelValues(label, "rejected").Inc()
		return nil, domain.ErrSignInFailed
	}

	var linked *domain.LinkedAccount
	if user.LinkedAccountID == "" {
		linked = u.ensureLinked(ctx, user)
	}

	// A cancelled sign-in must not leave a token behind, even when
	// verification and provisioning already finished.
	if err := ctx.Err(); err != nil {
		metrics.SignInsTotal.WithLabelValues(label, "cancelled").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrSignInFailed, err)
	}

	tok, err := u.issuer.Issue(user, linked)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrSignInFailed, err)
	}
	view := u.issuer.Reconstitute(tok.Raw)
	if view == nil {
		metrics.SignInsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("%w: issued token did not verify", domain.ErrSignInFailed)
	}

	metrics.SignInsTotal.WithLabelValues(label, "success").Inc()
	metrics.SignInDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	state := gate.Initial(view)
	metrics.GateTransitionsTotal.WithLabelValues(string(state)).Inc()
	u.logger.InfoContext(ctx, "signed in",
		"subject_id", view.SubjectID,
		"provider", label,
		"linked", view.LinkedAccountID != "",
		"gate", state,
	)
	return &SignIn{Token: tok, View: view, Gate: state}, nil
}

// ensureLinked resolves the linked account for a user that has none on the
// backend record. Under the subject lock it re-reads the identity store so
// that concurrent first sign-ins provision exactly once. It returns nil when
// nothing is on file and provisioning did not succeed.
//
// A holder the store could not record is still returned, so the session
// carries it, and is counted as orphaned.
func (u *AuthUsecase) ensureLinked(ctx context.Context, user *domain.VerifiedUser) *domain.LinkedAccount {
	var linked *domain.LinkedAccount
	err := u.identities.WithSubjectLock(ctx, user.ID, func(lockedCtx context.Context) error {
		stored, err := u.identities.FindBySubject(lockedCtx, user.ID)
		switch {
		case err == nil && stored.LinkedAccountID != "":
			linked = &domain.LinkedAccount{ID: stored.LinkedAccountID, Status: stored.LinkedStatus}
			metrics.ProvisioningTotal.WithLabelValues("on_file").Inc()
			return nil
		case err != nil && !errors.Is(err, domain.ErrIdentityNotFound):
			metrics.ProvisioningTotal.WithLabelValues("skipped").Inc()
			return fmt.Errorf("read identity: %w", err)
		}

		if lockedCtx.Err() != nil {
			return lockedCtx.Err()
		}

		linked = u.provisioner.ProvisionIfAbsent(lockedCtx, user)
		if linked == nil {
			return nil
		}
		saveErr := u.identities.SaveLinkedAccount(lockedCtx, user.ID, linked)
		if saveErr == nil {
			return nil
		}

		// The outer ctx carries no transaction, so the retry commits on its
		// own while the subject lock is still held.
		retryErr := u.identities.SaveLinkedAccount(ctx, user.ID, linked)
		if retryErr == nil {
			u.logger.WarnContext(ctx, "linked account saved on retry",
				"subject_id", user.ID, "holder_id", linked.ID, "error", saveErr)
			return nil
		}
		metrics.ProvisioningTotal.WithLabelValues("orphaned").Inc()
		u.logger.ErrorContext(ctx, "linked account not persisted",
			"subject_id", user.ID, "holder_id", linked.ID, "error", retryErr)
		return fmt.Errorf("persist linked account: %w", errors.Join(saveErr, retryErr))
	})
	if err != nil {
		u.logger.WarnContext(ctx, "resolve linked account", "subject_id", user.ID, "error", err)
	}
	return linked
}
