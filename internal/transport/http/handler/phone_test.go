package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/gate"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/cookie"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
)

type fakePhoneGate struct {
	supply  func(ctx context.Context, view *session.View, phone string) (gate.State, error)
	abandon func(ctx context.Context, view *session.View) (gate.State, error)
}

func (f *fakePhoneGate) Supply(ctx context.Context, view *session.View, phone string) (gate.State, error) {
	return f.supply(ctx, view, phone)
}

func (f *fakePhoneGate) Abandon(ctx context.Context, view *session.View) (gate.State, error) {
	return f.abandon(ctx, view)
}

func newPhoneEngine(t *testing.T, g *fakePhoneGate) (*gin.Engine, *session.Token) {
	t.Helper()
	r, issuer := sessionEngine(t)
	h := handler.NewPhoneHandler(g, cookie.Settings{}, discardLogger())
	r.POST("/auth/phone", h.Supply)
	r.POST("/auth/phone/skip", h.Skip)

	u := testUser()
	u.ID = "google:1"
	u.Provider = domain.ProviderGoogle
	u.BackendToken = ""
	u.PhoneNumber = ""
	u.NeedsPhoneNumber = true
	return r, issue(t, issuer, u)
}

func postPhone(r *gin.Engine, tok *session.Token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/phone", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, withSession(req, tok))
	return w
}

func TestSupplyPhone_Accepted(t *testing.T) {
	g := &fakePhoneGate{supply: func(_ context.Context, v *session.View, phone string) (gate.State, error) {
		if v == nil || phone != "+15550001111" {
			t.Errorf("unexpected call: view=%v phone=%q", v, phone)
		}
		return gate.StateOpen, nil
	}}
	r, tok := newPhoneEngine(t, g)

	w := postPhone(r, tok, `{"phone_number":"+15550001111"}`)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"gate":"open"`) {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}

func TestSupplyPhone_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"rejected", fmt.Errorf("supply: %w", gate.ErrPhoneRejected), http.StatusUnprocessableEntity},
		{"terminated", gate.ErrInvalidTransition, http.StatusConflict},
		{"store down", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := &fakePhoneGate{supply: func(context.Context, *session.View, string) (gate.State, error) {
				return gate.StateGated, tc.err
			}}
			r, tok := newPhoneEngine(t, g)

			w := postPhone(r, tok, `{"phone_number":"555"}`)

			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestSupplyPhone_MissingField_Returns400(t *testing.T) {
	r, tok := newPhoneEngine(t, &fakePhoneGate{})

	w := postPhone(r, tok, `{}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSkipPhone_TerminatesAndClears(t *testing.T) {
	g := &fakePhoneGate{abandon: func(context.Context, *session.View) (gate.State, error) {
		return gate.StateTerminated, nil
	}}
	r, tok := newPhoneEngine(t, g)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodPost, "/auth/phone/skip", nil), tok))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"gate":"terminated"`) || !strings.Contains(w.Body.String(), `"redirect":"/login"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
	if c := findCookie(w, cookie.Name); c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", c)
	}
}

func TestSkipPhone_AlreadyOpen_Returns409(t *testing.T) {
	g := &fakePhoneGate{abandon: func(context.Context, *session.View) (gate.State, error) {
		return gate.StateOpen, gate.ErrInvalidTransition
	}}
	r, tok := newPhoneEngine(t, g)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodPost, "/auth/phone/skip", nil), tok))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if findCookie(w, cookie.Name) != nil {
		t.Error("cookie must survive a rejected skip")
	}
}
