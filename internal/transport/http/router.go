package httptransport

import (
	"log/slog"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/handler"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Phone     *handler.PhoneHandler
	Dashboard *handler.DashboardHandler
	Health    *handler.HealthHandler
}

func NewRouter(
	logger *slog.Logger,
	h Handlers,
	sessions middleware.SessionConfig,
	gates middleware.GateStater,
	limiter *middleware.RateLimiter,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(sessions.Cookies.Secure))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)

	requireSession := middleware.RequireSession()

	withSession := middleware.Session(sessions)

	// A stale cookie must not block a fresh sign-in while the session
	// store is down.
	signIn := sessions
	signIn.AnonymousOnStoreError = true
	withSignIn := middleware.Session(signIn)

	// Auth routes. Credential submission is rate limited per client IP.
	auth := r.Group("/auth")
	auth.POST("/login", withSignIn, limiter.Middleware(), h.Auth.Login)
	auth.POST("/register", withSignIn, limiter.Middleware(), h.Auth.Register)
	auth.GET("/session", withSession, h.Auth.Session)
	auth.POST("/logout", withSession, h.Auth.Logout)
	auth.GET("/google/login", withSignIn, limiter.Middleware(), h.Auth.GoogleLogin)
	auth.GET("/google/callback", withSignIn, limiter.Middleware(), h.Auth.GoogleCallback)
	auth.POST("/phone", withSession, requireSession, h.Phone.Supply)
	auth.POST("/phone/skip", withSession, requireSession, h.Phone.Skip)

	// Dashboard reads, only for sessions past the phone gate
	dashboard := r.Group("/api/dashboard", withSession, requireSession, middleware.RequireOpen(gates))
	dashboard.GET("/cards", h.Dashboard.Cards)
	dashboard.GET("/payments", h.Dashboard.Payments)
	dashboard.GET("/payments/stats", h.Dashboard.PaymentStats)
	dashboard.GET("/bills", h.Dashboard.Bills)
	dashboard.GET("/accounts", h.Dashboard.Accounts)
	dashboard.GET("/holder", h.Dashboard.Holder)

	return r
}
