package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/gate"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/backend"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/metrics"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/repository"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/go-playground/validator/v10"
)

type PhoneUpdater interface {
	UpdatePhoneNumber(ctx context.Context, caller backend.Caller, phone string) error
}

// PhoneGate drives the phone-number interstitial for sessions that were
// issued without a phone number.
type PhoneGate struct {
	phones     PhoneUpdater
	identities repository.IdentityRepository
	sessions   repository.SessionStateRepository
	issuer     *session.Issuer
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewPhoneGate(
	phones PhoneUpdater,
	identities repository.IdentityRepository,
	sessions repository.SessionStateRepository,
	issuer *session.Issuer,
	logger *slog.Logger,
) *PhoneGate {
	return &PhoneGate{
		phones:     phones,
		identities: identities,
		sessions:   sessions,
		issuer:     issuer,
		validate:   validator.New(),
		logger:     logger.With("component", "phone_gate"),
	}
}

// State computes the gate for view, taking into account a phone number
// accepted earlier in the same session. A store error leaves the gate
// closed.
func (p *PhoneGate) State(ctx context.Context, view *session.View) gate.State {
	return p.gateFor(ctx, view).State()
}

// Supply records phone for the session's subject. The gate opens only when
// every backing store accepted the update.
func (p *PhoneGate) Supply(ctx context.Context, view *session.View, phone string) (gate.State, error) {
	if view == nil {
		return gate.StateSignedOut, domain.ErrSessionInvalid
	}
	g := p.gateFor(ctx, view)
	if g.State() != gate.StateGated {
		return g.State(), g.SupplyPhone(true)
	}

	phone = strings.TrimSpace(phone)
	if err := p.validate.Var(phone, "required,e164"); err != nil {
		_ = g.SupplyPhone(false)
		return g.State(), fmt.Errorf("%w: not an E.164 number", gate.ErrPhoneRejected)
	}

	accepted := p.store(ctx, view, phone)
	if err := g.SupplyPhone(accepted); err != nil {
		return g.State(), err
	}

	ttl := view.ExpiresAt.Sub(p.issuer.Now())
	if err := p.sessions.MarkGateSatisfied(ctx, view.SessionID, ttl); err != nil {
		return gate.StateGated, fmt.Errorf("mark gate satisfied: %w", err)
	}
	metrics.GateTransitionsTotal.WithLabelValues(string(g.State())).Inc()
	p.logger.InfoContext(ctx, "phone number accepted")
	return g.State(), nil
}

// Abandon terminates a gated session and revokes it.
func (p *PhoneGate) Abandon(ctx context.Context, view *session.View) (gate.State, error) {
	if view == nil {
		return gate.StateSignedOut, domain.ErrSessionInvalid
	}
	g := p.gateFor(ctx, view)
	if err := g.Abandon(); err != nil {
		return g.State(), err
	}

	ttl := view.ExpiresAt.Sub(p.issuer.Now())
	if err := p.sessions.Revoke(ctx, view.SessionID, ttl); err != nil {
		return g.State(), fmt.Errorf("revoke abandoned session: %w", err)
	}
	metrics.GateTransitionsTotal.WithLabelValues(string(g.State())).Inc()
	p.logger.InfoContext(ctx, "phone gate abandoned")
	return g.State(), nil
}

func (p *PhoneGate) gateFor(ctx context.Context, view *session.View) *gate.Gate {
	if gate.Initial(view) != gate.StateGated {
		return gate.New(view, false)
	}
	satisfied, err := p.sessions.IsGateSatisfied(ctx, view.SessionID)
	if err != nil {
		p.logger.WarnContext(ctx, "read gate state", "error", err)
	}
	return gate.New(view, satisfied)
}

func (p *PhoneGate) store(ctx context.Context, view *session.View, phone string) bool {
	if view.BackendToken != "" {
		caller := backend.Caller{SubjectID: view.SubjectID, BearerToken: view.BackendToken}
		if err := p.phones.UpdatePhoneNumber(ctx, caller, phone); err != nil {
			p.logger.WarnContext(ctx, "backend rejected phone number", "error", err)
			return false
		}
	}
	if err := p.identities.SavePhoneNumber(ctx, view.SubjectID, phone); err != nil {
		p.logger.WarnContext(ctx, "store phone number", "error", err)
		return false
	}
	return true
}
