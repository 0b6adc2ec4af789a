package domain

import (
	"errors"
	"strings"
)

var (
	ErrSignInFailed     = errors.New("sign-in failed")
	ErrSessionInvalid   = errors.New("session is missing, invalid or expired")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUpstream         = errors.New("upstream request failed")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Provider names how a sign-in was authenticated.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
)

// External reports whether the provider is an external identity provider
// rather than the backend's own password check.
func (p Provider) External() bool {
	return p != "" && p != ProviderPassword
}

// Credential is forwarded once to the verifier and never persisted.
type Credential struct {
	Email    string
	Password string
}

func (c Credential) Complete() bool {
	return strings.TrimSpace(c.Email) != "" && c.Password != ""
}

type VerifiedUser struct {
	ID               string
	Email            string
	DisplayName      string
	LinkedAccountID  string // empty when no linked account is on file
	PhoneNumber      string
	NeedsPhoneNumber bool
	Provider         Provider

	// BackendToken is the backend-issued access token. Empty for external
	// provider sign-ins, which never touch the backend's login endpoint.
	BackendToken string
}

const LinkedStatusActive = "active"

// LinkedAccount is the provisioned holder identity at the financial-data
// provider. A VerifiedUser has zero or one of these.
type LinkedAccount struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Identity is the locally stored record for a subject: the linked account
// and phone number on file.
type Identity struct {
	SubjectID       string
	LinkedAccountID string
	LinkedStatus    string
	PhoneNumber     string
}
