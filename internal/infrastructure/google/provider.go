// Package google implements external sign-in with Google: the OAuth2
// authorization-code flow plus verification of the returned ID token
// against Google's published key set.
package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const defaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var validIssuers = map[string]bool{
	"https://accounts.google.com": true,
	"accounts.google.com":         true,
}

var ErrIDToken = errors.New("google id token rejected")

// Identity is what the provider vouches for after a successful exchange.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	PhoneNumber   string
}

type Option func(*Provider)

// WithEndpoint points the code exchange at a different OAuth2 endpoint.
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(p *Provider) { p.oauth.Endpoint = e }
}

// WithJWKSURL overrides where ID-token signing keys are fetched from.
func WithJWKSURL(u string) Option {
	return func(p *Provider) { p.jwksURL = u }
}

type Provider struct {
	oauth   *oauth2.Config
	jwksURL string
	keys    *jwk.Cache
}

// NewProvider registers the key set with a cache that lives as long as ctx
// and refreshes at most every 15 minutes.
func NewProvider(ctx context.Context, clientID, clientSecret, redirectURL string, opts ...Option) (*Provider, error) {
	p := &Provider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		jwksURL: defaultJWKSURL,
	}
	for _, opt := range opts {
		opt(p)
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(p.jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("register google jwks: %w", err)
	}
	p.keys = cache
	return p, nil
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for a verified identity.
func (p *Provider) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return nil, fmt.Errorf("%w: missing from token response", ErrIDToken)
	}

	keySet, err := p.keys.Get(ctx, p.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch google jwks: %w", err)
	}

	idTok, err := jwt.Parse([]byte(rawID),
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithAudience(p.oauth.ClientID),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIDToken, err)
	}
	if !validIssuers[idTok.Issuer()] {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrIDToken, idTok.Issuer())
	}
	if idTok.Subject() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrIDToken)
	}

	claims := idTok.PrivateClaims()
	id := &Identity{
		Subject:     idTok.Subject(),
		Email:       stringClaim(claims, "email"),
		Name:        stringClaim(claims, "name"),
		PhoneNumber: stringClaim(claims, "phone_number"),
	}
	if v, ok := claims["email_verified"].(bool); ok {
		id.EmailVerified = v
	}
	if id.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrIDToken)
	}
	return id, nil
}

func stringClaim(claims map[string]any, name string) string {
	s, _ := claims[name].(string)
	return s
}
