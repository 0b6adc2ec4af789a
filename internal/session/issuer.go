package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultMaxAge = 30 * 24 * time.Hour
	tokenIssuer   = "agentpay"
)

// Claims is the signed payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	SessionID        string          `json:"sid"`
	Email            string          `json:"email,omitempty"`
	Name             string          `json:"name,omitempty"`
	LinkedAccountID  string          `json:"lacct,omitempty"`
	PhoneNumber      string          `json:"phone,omitempty"`
	NeedsPhoneNumber bool            `json:"needs_phone"`
	Provider         domain.Provider `json:"prov"`
	BackendToken     string          `json:"bat,omitempty"`
}

// View is the request-scoped, read-only projection of a session token.
// Only the exported JSON fields cross into the rendering layer.
type View struct {
	SubjectID        string `json:"subjectId"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	LinkedAccountID  string `json:"linkedAccountId,omitempty"`
	PhoneNumber      string `json:"phoneNumber,omitempty"`
	NeedsPhoneNumber bool   `json:"needsPhoneNumber"`

	SessionID    string          `json:"-"`
	Provider     domain.Provider `json:"-"`
	BackendToken string          `json:"-"`
	RawToken     string          `json:"-"`
	IssuedAt     time.Time       `json:"-"`
	ExpiresAt    time.Time       `json:"-"`
}

// Token is a freshly signed session token.
type Token struct {
	Raw       string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// MaxAge is the remaining lifetime of the token at the given instant.
func (t *Token) MaxAge(now time.Time) time.Duration {
	return t.ExpiresAt.Sub(now)
}

type Option func(*Issuer)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// Issuer is the only place session tokens are created. It owns the merge
// rule between a verified user and the provisioning outcome.
type Issuer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewIssuer(key []byte, maxAge time.Duration, opts ...Option) *Issuer {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	i := &Issuer{key: key, maxAge: maxAge, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue merges user and the provisioning result into a signed token.
// linked may be nil when provisioning was skipped or failed.
func (i *Issuer) Issue(user *domain.VerifiedUser, linked *domain.LinkedAccount) (*Token, error) {
	if user == nil || user.ID == "" {
		return nil, errors.New("issue session: user id is required")
	}

	linkedID := user.LinkedAccountID
	if linked != nil && linked.ID != "" {
		linkedID = linked.ID
	}

	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
		},
		SessionID:        uuid.NewString(),
		Email:            user.Email,
		Name:             user.DisplayName,
		LinkedAccountID:  linkedID,
		PhoneNumber:      user.PhoneNumber,
		NeedsPhoneNumber: needsPhoneNumber(user),
		Provider:         user.Provider,
		BackendToken:     user.BackendToken,
	}
	return i.sign(claims)
}

// Reissue re-signs the claims of an existing session with a fresh issued-at
// but the original expiry, so rotation never extends a session.
func (i *Issuer) Reissue(v *View) (*Token, error) {
	if v == nil {
		return nil, domain.ErrSessionInvalid
	}
	now := i.now()
	if !v.ExpiresAt.After(now) {
		return nil, domain.ErrSessionInvalid
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   v.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(v.ExpiresAt),
		},
		SessionID:        v.SessionID,
		Email:            v.Email,
		Name:             v.Name,
		LinkedAccountID:  v.LinkedAccountID,
		PhoneNumber:      v.PhoneNumber,
		NeedsPhoneNumber: v.NeedsPhoneNumber,
		Provider:         v.Provider,
		BackendToken:     v.BackendToken,
	}
	return i.sign(claims)
}

// Reconstitute validates raw and projects it into a View. It returns nil for
// a missing, malformed, tampered or expired token.
func (i *Issuer) Reconstitute(raw string) *View {
	if raw == "" {
		return nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil
	}
	if claims.Subject == "" || claims.SessionID == "" || claims.IssuedAt == nil {
		return nil
	}

	return &View{
		SubjectID:        claims.Subject,
		Email:            claims.Email,
		Name:             claims.Name,
		LinkedAccountID:  claims.LinkedAccountID,
		PhoneNumber:      claims.PhoneNumber,
		NeedsPhoneNumber: claims.NeedsPhoneNumber,
		SessionID:        claims.SessionID,
		Provider:         claims.Provider,
		BackendToken:     claims.BackendToken,
		RawToken:         raw,
		IssuedAt:         claims.IssuedAt.Time,
		ExpiresAt:        claims.ExpiresAt.Time,
	}
}

// NeedsRotation reports whether v was issued longer ago than after.
func (i *Issuer) NeedsRotation(v *View, after time.Duration) bool {
	if v == nil || after <= 0 {
		return false
	}
	return i.now().Sub(v.IssuedAt) >= after
}

func (i *Issuer) Now() time.Time {
	return i.now()
}

func (i *Issuer) sign(claims *Claims) (*Token, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Token{
		Raw:       signed,
		SessionID: claims.SessionID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// needsPhoneNumber is true only for external-provider sign-ins where neither
// the provider nor the identity store supplied a phone number.
func needsPhoneNumber(u *domain.VerifiedUser) bool {
	if !u.Provider.External() {
		return false
	}
	return u.NeedsPhoneNumber && u.PhoneNumber == ""
}
