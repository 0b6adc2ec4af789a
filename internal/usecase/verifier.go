package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/backend"
)

type CredentialBackend interface {
	Login(ctx context.Context, email, password string) (*backend.AuthResponse, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResponse, error)
}

type RegisterInput struct {
	Email       string
	Password    string
	PhoneNumber string
	FullName    string
}

// CredentialVerifier checks credentials against the backend. It never
// returns an error: every failure collapses to a nil user, and the cause is
// only visible in the operator log.
type CredentialVerifier struct {
	backend CredentialBackend
	logger  *slog.Logger
}

func NewCredentialVerifier(b CredentialBackend, logger *slog.Logger) *CredentialVerifier {
	return &CredentialVerifier{backend: b, logger: logger.With("component", "credential_verifier")}
}

func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) *domain.VerifiedUser {
	cred := domain.Credential{Email: strings.TrimSpace(email), Password: password}
	if !cred.Complete() {
		return nil
	}

	resp, err := v.backend.Login(ctx, cred.Email, cred.Password)
	if backend.IsUnauthorized(err) {
		v.logger.InfoContext(ctx, "credentials rejected")
		return nil
	}
	if err != nil {
		v.logger.WarnContext(ctx, "credential check failed", "error", err)
		return nil
	}
	return toVerifiedUser(resp)
}

// Register creates the account at the backend and verifies it in one step.
func (v *CredentialVerifier) Register(ctx context.Context, in RegisterInput) *domain.VerifiedUser {
	cred := domain.Credential{Email: strings.TrimSpace(in.Email), Password: in.Password}
	if !cred.Complete() {
		return nil
	}

	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		fullName = localPart(cred.Email)
	}

	resp, err := v.backend.Register(ctx, backend.RegisterRequest{
		Email:       cred.Email,
		Password:    cred.Password,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		FullName:    fullName,
	})
	if err != nil {
		v.logger.WarnContext(ctx, "registration failed", "error", err)
		return nil
	}
	return toVerifiedUser(resp)
}

func toVerifiedUser(resp *backend.AuthResponse) *domain.VerifiedUser {
	name := resp.User.FullName
	if name == "" {
		name = localPart(resp.User.Email)
	}
	return &domain.VerifiedUser{
		ID:              resp.User.ID,
		Email:           resp.User.Email,
		DisplayName:     name,
		LinkedAccountID: resp.User.MethodAccountID,
		PhoneNumber:     resp.User.PhoneNumber,
		Provider:        domain.ProviderPassword,
		BackendToken:    resp.AccessToken,
	}
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
