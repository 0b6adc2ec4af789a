package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/gate"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/metrics"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/reqctx"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/repository"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/cookie"
	"github.com/gin-gonic/gin"
)

const viewKey = "session_view"

const errSessionStoreUnavailable = "Session store unavailable"

type SessionConfig struct {
	Issuer      *session.Issuer
	States      repository.SessionStateRepository
	Cookies     cookie.Settings
	RotateAfter time.Duration
	Logger      *slog.Logger

	// AnonymousOnStoreError treats a request as signed out when the
	// revocation check fails, instead of answering 503. Set it for routes
	// that start a new session.
	AnonymousOnStoreError bool
}

// Session reconstitutes the presented token, if any, and stores the view
// on the gin context. It never rejects a request by itself: routes that
// need a session add RequireSession.
func Session(cfg SessionConfig) gin.HandlerFunc {
	logger := cfg.Logger.With("component", "session_middleware")
	return func(c *gin.Context) {
		raw, fromCookie := cookie.Token(c)
		if raw == "" {
			c.Next()
			return
		}

		view := cfg.Issuer.Reconstitute(raw)
		if view == nil {
			metrics.SessionRejectionsTotal.WithLabelValues("invalid").Inc()
			if fromCookie {
				cfg.Cookies.Clear(c)
			}
			c.Next()
			return
		}

		ctx := c.Request.Context()
		revoked, err := cfg.States.IsRevoked(ctx, view.SessionID)
		if err != nil {
			logger.ErrorContext(ctx, "check session revocation", "error", err)
			if cfg.AnonymousOnStoreError {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errSessionStoreUnavailable})
			return
		}
		if revoked {
			metrics.SessionRejectionsTotal.WithLabelValues("revoked").Inc()
			if fromCookie {
				cfg.Cookies.Clear(c)
			}
			c.Next()
			return
		}

		if fromCookie && cfg.Issuer.NeedsRotation(view, cfg.RotateAfter) {
			view = rotate(ctx, c, cfg, view, logger)
		}

		c.Set(viewKey, view)
		c.Request = c.Request.WithContext(reqctx.WithSubjectID(ctx, view.SubjectID))
		c.Next()
	}
}

func rotate(ctx context.Context, c *gin.Context, cfg SessionConfig, view *session.View, logger *slog.Logger) *session.View {
	tok, err := cfg.Issuer.Reissue(view)
	if err != nil {
		logger.WarnContext(ctx, "rotate session", "error", err)
		return view
	}
	rotated := cfg.Issuer.Reconstitute(tok.Raw)
	if rotated == nil {
		return view
	}
	cfg.Cookies.Set(c, tok, cfg.Issuer.Now())
	metrics.SessionRotationsTotal.Inc()
	return rotated
}

// View returns the session reconstituted by Session, or nil.
func View(c *gin.Context) *session.View {
	v, ok := c.Get(viewKey)
	if !ok {
		return nil
	}
	view, _ := v.(*session.View)
	return view
}

// RequireSession rejects requests without a valid, unrevoked session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if View(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"session": nil,
				"gate":    gate.StateSignedOut,
			})
			return
		}
		c.Next()
	}
}

// GateStater resolves the phone gate for a session.
type GateStater interface {
	State(ctx context.Context, view *session.View) gate.State
}

// RequireOpen runs after RequireSession and keeps sessions that still owe a
// phone number away from the dashboard.
func RequireOpen(gates GateStater) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := gates.State(c.Request.Context(), View(c))
		if state != gate.StateOpen {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"gate": state})
			return
		}
		c.Next()
	}
}
