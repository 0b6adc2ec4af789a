package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/memory"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/cookie"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testKey = "handler-test-secret-at-least-32-chars"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sessionEngine returns an engine running the real session middleware, so
// handlers see a reconstituted view exactly as they would in production.
func sessionEngine(t *testing.T) (*gin.Engine, *session.Issuer) {
	t.Helper()
	issuer := session.NewIssuer([]byte(testKey), 0)
	r := gin.New()
	r.Use(middleware.Session(middleware.SessionConfig{
		Issuer:      issuer,
		States:      memory.NewSessionStateRepository(),
		RotateAfter: 24 * time.Hour,
		Logger:      discardLogger(),
	}))
	return r, issuer
}

func issue(t *testing.T, issuer *session.Issuer, user *domain.VerifiedUser) *session.Token {
	t.Helper()
	tok, err := issuer.Issue(user, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func withSession(req *http.Request, tok *session.Token) *http.Request {
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: tok.Raw})
	return req
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func testUser() *domain.VerifiedUser {
	return &domain.VerifiedUser{
		ID:              "u-1",
		Email:           "ada@x.com",
		DisplayName:     "Ada",
		LinkedAccountID: "hld_1",
		PhoneNumber:     "+15550001111",
		Provider:        domain.ProviderPassword,
		BackendToken:    "bat",
	}
}
