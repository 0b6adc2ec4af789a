package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/reqctx"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func newRequestIDEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Security(false))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, reqctx.RequestID(c.Request.Context()))
	})
	return r
}

func TestRequestID(t *testing.T) {
	cases := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"preserved", "req-123", true},
		{"oversized replaced", strings.Repeat("x", 200), false},
		{"spaces replaced", "req 123 level=ERROR", false},
		{"control bytes replaced", "req-1\x1b[31m", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set("X-Request-ID", tc.incoming)
			}
			newRequestIDEngine().ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			if got == "" || got != w.Body.String() {
				t.Fatalf("header %q does not match context %q", got, w.Body.String())
			}
			if (got == tc.incoming) != tc.keep {
				t.Errorf("id = %q, keep incoming = %v", got, tc.keep)
			}
		})
	}
}

func TestSecurity_Headers(t *testing.T) {
	for _, hsts := range []bool{false, true} {
		r := gin.New()
		r.Use(middleware.Security(hsts))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Header().Get("Cache-Control") != "no-store" || w.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("security headers missing: %v", w.Header())
		}
		if got := w.Header().Get("Strict-Transport-Security") != ""; got != hsts {
			t.Errorf("hsts=%v: Strict-Transport-Security present = %v", hsts, got)
		}
	}
}
