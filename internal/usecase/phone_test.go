package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/gate"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/backend"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/memory"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/usecase"
)

type fakePhoneUpdater struct {
	calls  int
	caller backend.Caller
	err    error
}

func (f *fakePhoneUpdater) UpdatePhoneNumber(_ context.Context, caller backend.Caller, _ string) error {
	f.calls++
	f.caller = caller
	return f.err
}

type phoneHarness struct {
	gate       *usecase.PhoneGate
	phones     *fakePhoneUpdater
	identities *memory.IdentityRepository
	sessions   *memory.SessionStateRepository
	issuer     *session.Issuer
}

func newPhoneHarness() *phoneHarness {
	h := &phoneHarness{
		phones:     &fakePhoneUpdater{},
		identities: memory.NewIdentityRepository(),
		sessions:   memory.NewSessionStateRepository(),
		issuer:     session.NewIssuer([]byte(testSessionKey), session.DefaultMaxAge),
	}
	h.gate = usecase.NewPhoneGate(h.phones, h.identities, h.sessions, h.issuer, discardLogger())
	return h
}

func (h *phoneHarness) view(t *testing.T, user *domain.VerifiedUser) *session.View {
	t.Helper()
	tok, err := h.issuer.Issue(user, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return h.issuer.Reconstitute(tok.Raw)
}

func googleUser() *domain.VerifiedUser {
	return &domain.VerifiedUser{
		ID:               "google:10987",
		Email:            "g@x.com",
		NeedsPhoneNumber: true,
		Provider:         domain.ProviderGoogle,
	}
}

func TestSupply_OpensGate(t *testing.T) {
	h := newPhoneHarness()
	ctx := context.Background()
	view := h.view(t, googleUser())

	if got := h.gate.State(ctx, view); got != gate.StateGated {
		t.Fatalf("initial state = %q, want gated", got)
	}

	state, err := h.gate.Supply(ctx, view, "+15551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != gate.StateOpen {
		t.Errorf("state = %q, want open", state)
	}
	if got := h.gate.State(ctx, view); got != gate.StateOpen {
		t.Errorf("later state in same session = %q, want open", got)
	}

	stored, err := h.identities.FindBySubject(ctx, "google:10987")
	if err != nil || stored.PhoneNumber != "+15551234567" {
		t.Errorf("phone not stored: %+v, %v", stored, err)
	}
	if h.phones.calls != 0 {
		t.Error("backend called for a session without a backend token")
	}
}

func TestSupply_BackendTokenForwarded(t *testing.T) {
	h := newPhoneHarness()
	user := googleUser()
	user.BackendToken = "bt"
	view := h.view(t, user)

	if _, err := h.gate.Supply(context.Background(), view, "+15551234567"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.phones.calls != 1 || h.phones.caller.BearerToken != "bt" || h.phones.caller.SubjectID != "google:10987" {
		t.Errorf("unexpected backend call: %d %+v", h.phones.calls, h.phones.caller)
	}
}

func TestSupply_Rejected_StaysGated(t *testing.T) {
	cases := map[string]struct {
		phone      string
		backendErr error
	}{
		"not e164":        {phone: "555-1234"},
		"empty":           {phone: "  "},
		"backend refuses": {phone: "+15551234567", backendErr: domain.ErrUpstream},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newPhoneHarness()
			h.phones.err = tc.backendErr
			user := googleUser()
			user.BackendToken = "bt"
			view := h.view(t, user)

			state, err := h.gate.Supply(context.Background(), view, tc.phone)
			if !errors.Is(err, gate.ErrPhoneRejected) {
				t.Errorf("expected ErrPhoneRejected, got %v", err)
			}
			if state != gate.StateGated {
				t.Errorf("state = %q, want gated", state)
			}
			if got := h.gate.State(context.Background(), view); got != gate.StateGated {
				t.Errorf("gate opened after rejection: %q", got)
			}
		})
	}
}

func TestSupply_AlreadyOpen_NoOp(t *testing.T) {
	h := newPhoneHarness()
	user := googleUser()
	user.PhoneNumber = "+15550000000"
	view := h.view(t, user)

	state, err := h.gate.Supply(context.Background(), view, "+15551234567")
	if err != nil || state != gate.StateOpen {
		t.Errorf("Supply on open gate = %q, %v", state, err)
	}
	if _, err := h.identities.FindBySubject(context.Background(), user.ID); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Error("open gate should not write the phone number")
	}
}

func TestAbandon_TerminatesAndRevokes(t *testing.T) {
	h := newPhoneHarness()
	ctx := context.Background()
	view := h.view(t, googleUser())

	state, err := h.gate.Abandon(ctx, view)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != gate.StateTerminated {
		t.Errorf("state = %q, want terminated", state)
	}
	if revoked, _ := h.sessions.IsRevoked(ctx, view.SessionID); !revoked {
		t.Error("abandoned session not revoked")
	}
}

func TestAbandon_OpenSession_Invalid(t *testing.T) {
	h := newPhoneHarness()
	view := h.view(t, passwordUser("hld_1"))

	state, err := h.gate.Abandon(context.Background(), view)
	if !errors.Is(err, gate.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if state != gate.StateOpen {
		t.Errorf("state = %q, want open", state)
	}
}

func TestPhoneGate_NoSession(t *testing.T) {
	h := newPhoneHarness()

	if got := h.gate.State(context.Background(), nil); got != gate.StateSignedOut {
		t.Errorf("State(nil) = %q", got)
	}
	if _, err := h.gate.Supply(context.Background(), nil, "+15551234567"); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Errorf("Supply(nil) err = %v", err)
	}
	if _, err := h.gate.Abandon(context.Background(), nil); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Errorf("Abandon(nil) err = %v", err)
	}
}
