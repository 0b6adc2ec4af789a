package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/gate"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/google"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/cookie"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/middleware"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/usecase"
	"github.com/gin-gonic/gin"
)

const (
	stateTTL         = 10 * time.Minute
	dashboardPath    = "/dashboard"
	loginPath        = "/login"
	loginFailedQuery = "?error=signin_failed"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Login(ctx context.Context, email, password string) (*usecase.SignIn, error)
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.SignIn, error)
	ExternalSignIn(ctx context.Context, ext usecase.ExternalIdentity) (*usecase.SignIn, error)
	SignOut(ctx context.Context, view *session.View) error
}

type gateStater interface {
	State(ctx context.Context, view *session.View) gate.State
}

type externalProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*google.Identity, error)
}

type AuthHandler struct {
	auth     authUsecaser
	gates    gateStater
	external externalProvider
	cookies  cookie.Settings
	now      func() time.Time
	logger   *slog.Logger
}

// NewAuthHandler builds the handler. external may be nil when external
// sign-in is not configured.
func NewAuthHandler(auth authUsecaser, gates gateStater, external externalProvider, cookies cookie.Settings, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		gates:    gates,
		external: external,
		cookies:  cookies,
		now:      time.Now,
		logger:   logger.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
}

// POST /auth/login
// Returns {"session": ..., "gate": ...} and sets the session cookie. Every
// failure is the same generic 401.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	h.respondSignIn(c, res, err)
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}

	res, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		FullName:    req.FullName,
	})
	h.respondSignIn(c, res, err)
}

func (h *AuthHandler) respondSignIn(c *gin.Context, res *usecase.SignIn, err error) {
	if err != nil {
		if !errors.Is(err, domain.ErrSignInFailed) {
			h.logger.ErrorContext(c.Request.Context(), "sign in", "error", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": errSignInFailed})
		return
	}

	h.cookies.Set(c, res.Token, h.now())
	c.JSON(http.StatusOK, gin.H{"session": res.View, "gate": res.Gate})
}

// GET /auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	view := middleware.View(c)
	if view == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"session": nil, "gate": gate.StateSignedOut})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view, "gate": h.gates.State(c.Request.Context(), view)})
}

// POST /auth/logout
// Always clears the cookie. Logging out without a session is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.Clear(c)

	if err := h.auth.SignOut(c.Request.Context(), middleware.View(c)); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "sign out", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /auth/google/login
// Redirects to the provider with a state nonce bound to a short-lived cookie.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.external == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errExternalDisabled})
		return
	}

	state, err := newState()
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "generate oauth state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	h.cookies.SetState(c, state, stateTTL)
	c.Redirect(http.StatusFound, h.external.AuthCodeURL(state))
}

// GET /auth/google/callback?state=...&code=...
// Always ends in a redirect: to the dashboard on success, back to the login
// page otherwise.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.external == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errExternalDisabled})
		return
	}
	ctx := c.Request.Context()

	expected, _ := c.Cookie(cookie.StateName)
	h.cookies.ClearState(c)
	got := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		h.logger.WarnContext(ctx, "oauth state mismatch")
		c.Redirect(http.StatusFound, loginPath+loginFailedQuery)
		return
	}
	if reason := c.Query("error"); reason != "" {
		h.logger.InfoContext(ctx, "external sign-in declined", "reason", reason)
		c.Redirect(http.StatusFound, loginPath+loginFailedQuery)
		return
	}

	identity, err := h.external.Exchange(ctx, c.Query("code"))
	if err != nil {
		h.logger.WarnContext(ctx, "google exchange", "error", err)
		c.Redirect(http.StatusFound, loginPath+loginFailedQuery)
		return
	}

	res, err := h.auth.ExternalSignIn(ctx, usecase.ExternalIdentity{
		Provider:      domain.ProviderGoogle,
		Subject:       identity.Subject,
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
		Name:          identity.Name,
		PhoneNumber:   identity.PhoneNumber,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "external sign in", "error", err)
		c.Redirect(http.StatusFound, loginPath+loginFailedQuery)
		return
	}

	h.cookies.Set(c, res.Token, h.now())
	c.Redirect(http.StatusFound, dashboardPath)
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
