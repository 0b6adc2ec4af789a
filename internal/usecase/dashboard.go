package usecase

import (
	"context"
	"fmt"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/backend"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/method"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
)

type DashboardBackend interface {
	ListCards(ctx context.Context, caller backend.Caller) ([]domain.Card, error)
	ListPayments(ctx context.Context, caller backend.Caller, f backend.PaymentFilter) ([]domain.Payment, error)
	ListBills(ctx context.Context, caller backend.Caller) ([]domain.Bill, error)
}

type AccountLister interface {
	GetHolder(ctx context.Context, id string) (*method.Holder, error)
	ListAccounts(ctx context.Context, holderID string) ([]domain.LinkedAccountRecord, error)
}

// DashboardUsecase serves the dashboard's reads on behalf of a session.
// Every backend call carries the subject and the session's backend token.
type DashboardUsecase struct {
	backend  DashboardBackend
	accounts AccountLister
}

func NewDashboardUsecase(b DashboardBackend, accounts AccountLister) *DashboardUsecase {
	return &DashboardUsecase{backend: b, accounts: accounts}
}

func (u *DashboardUsecase) Cards(ctx context.Context, view *session.View) ([]domain.Card, error) {
	return u.backend.ListCards(ctx, callerOf(view))
}

func (u *DashboardUsecase) Payments(ctx context.Context, view *session.View, f backend.PaymentFilter) ([]domain.Payment, error) {
	return u.backend.ListPayments(ctx, callerOf(view), f)
}

func (u *DashboardUsecase) Bills(ctx context.Context, view *session.View) ([]domain.Bill, error) {
	return u.backend.ListBills(ctx, callerOf(view))
}

// PaymentStats summarizes the full payment history. Amounts are reported
// in dollars.
func (u *DashboardUsecase) PaymentStats(ctx context.Context, view *session.View) (*domain.PaymentStats, error) {
	payments, err := u.backend.ListPayments(ctx, callerOf(view), backend.PaymentFilter{})
	if err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}

	stats := &domain.PaymentStats{RecentPaymentsCount: len(payments)}
	var cents int64
	for _, p := range payments {
		cents += p.Amount
		switch p.Status {
		case domain.PaymentSent:
			stats.SuccessfulPayments++
		case domain.PaymentFailed:
			stats.FailedPayments++
		case domain.PaymentPending, domain.PaymentProcessing:
			stats.PendingPayments++
		}
	}
	stats.TotalAmount = float64(cents) / 100
	return stats, nil
}

// LinkedAccounts lists the accounts of the session's linked holder. A
// session without a linked account has none.
func (u *DashboardUsecase) LinkedAccounts(ctx context.Context, view *session.View) ([]domain.LinkedAccountRecord, error) {
	if view == nil || view.LinkedAccountID == "" {
		return []domain.LinkedAccountRecord{}, nil
	}
	return u.accounts.ListAccounts(ctx, view.LinkedAccountID)
}

// LinkedHolder reads the session's holder back from the provider, so the
// dashboard shows its current status rather than the one captured at sign-in.
// It returns nil for a session without a linked account.
func (u *DashboardUsecase) LinkedHolder(ctx context.Context, view *session.View) (*domain.LinkedAccount, error) {
	if view == nil || view.LinkedAccountID == "" {
		return nil, nil
	}
	h, err := u.accounts.GetHolder(ctx, view.LinkedAccountID)
	if err != nil {
		return nil, fmt.Errorf("linked holder: %w", err)
	}
	status := h.Status
	if status == "" {
		status = domain.LinkedStatusActive
	}
	return &domain.LinkedAccount{ID: h.ID, Status: status}, nil
}

func callerOf(view *session.View) backend.Caller {
	if view == nil {
		return backend.Caller{}
	}
	return backend.Caller{SubjectID: view.SubjectID, BearerToken: view.BackendToken}
}
