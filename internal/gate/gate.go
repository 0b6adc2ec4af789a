// Package gate decides whether a session may reach the dashboard or must
// first complete the phone-number interstitial.
package gate

import (
	"errors"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
)

type State string

const (
	StateSignedOut  State = "signed_out"
	StateGated      State = "gated"
	StateOpen       State = "open"
	StateTerminated State = "terminated"
)

var (
	ErrInvalidTransition = errors.New("invalid gate transition")
	ErrPhoneRejected     = errors.New("phone number was not accepted")
)

// Initial is the state of a freshly established session. A nil view is
// treated as signed out.
func Initial(v *session.View) State {
	if v == nil {
		return StateSignedOut
	}
	if v.NeedsPhoneNumber && v.PhoneNumber == "" {
		return StateGated
	}
	return StateOpen
}

// Gate tracks one session's interstitial state. Once open it never closes
// again for the lifetime of the session.
type Gate struct {
	state State
}

// New builds the gate for v. satisfied is true when a phone number was
// already accepted earlier in this session.
func New(v *session.View, satisfied bool) *Gate {
	s := Initial(v)
	if s == StateGated && satisfied {
		s = StateOpen
	}
	return &Gate{state: s}
}

func (g *Gate) State() State {
	return g.state
}

func (g *Gate) Open() bool {
	return g.state == StateOpen
}

// SupplyPhone applies the outcome of a phone-number submission. accepted is
// whether the backing store took the update.
func (g *Gate) SupplyPhone(accepted bool) error {
	switch g.state {
	case StateOpen:
		return nil
	case StateGated:
		if !accepted {
			return ErrPhoneRejected
		}
		g.state = StateOpen
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Abandon ends a gated session. The caller is responsible for invalidating
// the session itself.
func (g *Gate) Abandon() error {
	if g.state != StateGated {
		return ErrInvalidTransition
	}
	g.state = StateTerminated
	return nil
}
