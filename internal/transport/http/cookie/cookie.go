// Package cookie reads and writes the session cookie. A Bearer header is
// accepted as an alternative carrier for non-browser clients.
package cookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	Name      = "agentpay_session"
	StateName = "agentpay_oauth_state"
)

type Settings struct {
	Secure bool
	Domain string
}

// Set writes tok as the session cookie, expiring with the token.
func (s Settings) Set(c *gin.Context, tok *session.Token, now time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(Name, tok.Raw, int(tok.MaxAge(now).Seconds()), "/", s.Domain, s.Secure, true)
}

func (s Settings) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(Name, "", -1, "/", s.Domain, s.Secure, true)
}

// SetState stores the OAuth state nonce for the duration of a redirect
// round trip.
func (s Settings) SetState(c *gin.Context, state string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(StateName, state, int(ttl.Seconds()), "/auth", s.Domain, s.Secure, true)
}

func (s Settings) ClearState(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(StateName, "", -1, "/auth", s.Domain, s.Secure, true)
}

// Token returns the raw session token and whether it came from the cookie.
// The cookie wins when both carriers are present.
func Token(c *gin.Context) (string, bool) {
	if v, err := c.Cookie(Name); err == nil && v != "" {
		return v, true
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), false
	}
	return "", false
}
