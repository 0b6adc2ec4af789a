package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/backend"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/method"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/usecase"
)

type fakeDashboardBackend struct {
	caller       backend.Caller
	listCards    func() ([]domain.Card, error)
	listPayments func(f backend.PaymentFilter) ([]domain.Payment, error)
	listBills    func() ([]domain.Bill, error)
}

func (f *fakeDashboardBackend) ListCards(_ context.Context, c backend.Caller) ([]domain.Card, error) {
	f.caller = c
	return f.listCards()
}

func (f *fakeDashboardBackend) ListPayments(_ context.Context, c backend.Caller, filter backend.PaymentFilter) ([]domain.Payment, error) {
	f.caller = c
	return f.listPayments(filter)
}

func (f *fakeDashboardBackend) ListBills(_ context.Context, c backend.Caller) ([]domain.Bill, error) {
	f.caller = c
	return f.listBills()
}

type fakeAccountLister struct {
	holderID string
	accounts []domain.LinkedAccountRecord
	holder   *method.Holder
	err      error
}

func (f *fakeAccountLister) GetHolder(_ context.Context, id string) (*method.Holder, error) {
	f.holderID = id
	return f.holder, f.err
}

func (f *fakeAccountLister) ListAccounts(_ context.Context, holderID string) ([]domain.LinkedAccountRecord, error) {
	f.holderID = holderID
	return f.accounts, nil
}

var dashboardView = &session.View{SubjectID: "u1", BackendToken: "bt", LinkedAccountID: "hld_1"}

func TestPaymentStats(t *testing.T) {
	b := &fakeDashboardBackend{listPayments: func(f backend.PaymentFilter) ([]domain.Payment, error) {
		if f != (backend.PaymentFilter{}) {
			t.Errorf("stats should read the unfiltered history, got %+v", f)
		}
		return []domain.Payment{
			{ID: "1", Amount: 10050, Status: domain.PaymentSent},
			{ID: "2", Amount: 2500, Status: domain.PaymentFailed},
			{ID: "3", Amount: 100, Status: domain.PaymentPending},
			{ID: "4", Amount: 200, Status: domain.PaymentProcessing},
			{ID: "5", Amount: 50, Status: domain.PaymentCanceled},
		}, nil
	}}

	stats, err := usecase.NewDashboardUsecase(b, &fakeAccountLister{}).PaymentStats(context.Background(), dashboardView)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.PaymentStats{
		TotalAmount:         129.00,
		SuccessfulPayments:  1,
		FailedPayments:      1,
		PendingPayments:     2,
		RecentPaymentsCount: 5,
	}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
	if b.caller.SubjectID != "u1" || b.caller.BearerToken != "bt" {
		t.Errorf("caller not attached: %+v", b.caller)
	}
}

func TestPaymentStats_PropagatesError(t *testing.T) {
	b := &fakeDashboardBackend{listPayments: func(backend.PaymentFilter) ([]domain.Payment, error) {
		return nil, domain.ErrMalformedPayload
	}}

	_, err := usecase.NewDashboardUsecase(b, &fakeAccountLister{}).PaymentStats(context.Background(), dashboardView)
	if !errors.Is(err, domain.ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestCardsAndBills_AttachCaller(t *testing.T) {
	b := &fakeDashboardBackend{
		listCards: func() ([]domain.Card, error) { return []domain.Card{{ID: "c1"}}, nil },
		listBills: func() ([]domain.Bill, error) { return []domain.Bill{{ID: "b1"}}, nil },
	}
	u := usecase.NewDashboardUsecase(b, &fakeAccountLister{})

	cards, err := u.Cards(context.Background(), dashboardView)
	if err != nil || len(cards) != 1 {
		t.Fatalf("cards = %v, %v", cards, err)
	}
	bills, err := u.Bills(context.Background(), dashboardView)
	if err != nil || len(bills) != 1 {
		t.Fatalf("bills = %v, %v", bills, err)
	}
	if b.caller.SubjectID != "u1" {
		t.Errorf("caller = %+v", b.caller)
	}
}

func TestLinkedAccounts(t *testing.T) {
	lister := &fakeAccountLister{accounts: []domain.LinkedAccountRecord{{ID: "acc_1", HolderID: "hld_1"}}}
	u := usecase.NewDashboardUsecase(&fakeDashboardBackend{}, lister)

	accounts, err := u.LinkedAccounts(context.Background(), dashboardView)
	if err != nil || len(accounts) != 1 || lister.holderID != "hld_1" {
		t.Errorf("accounts = %v, %v, holder %q", accounts, err, lister.holderID)
	}

	lister.holderID = ""
	accounts, err = u.LinkedAccounts(context.Background(), &session.View{SubjectID: "u2"})
	if err != nil || len(accounts) != 0 || lister.holderID != "" {
		t.Errorf("unlinked session should not call the provider: %v, %v", accounts, err)
	}
}

func TestLinkedHolder(t *testing.T) {
	lister := &fakeAccountLister{holder: &method.Holder{ID: "hld_1", Type: "individual", Status: "disabled"}}
	u := usecase.NewDashboardUsecase(&fakeDashboardBackend{}, lister)

	h, err := u.LinkedHolder(context.Background(), dashboardView)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.holderID != "hld_1" || h.ID != "hld_1" || h.Status != "disabled" {
		t.Errorf("holder = %+v, looked up %q", h, lister.holderID)
	}

	lister.holder.Status = ""
	if h, _ := u.LinkedHolder(context.Background(), dashboardView); h.Status != domain.LinkedStatusActive {
		t.Errorf("missing status = %q, want active", h.Status)
	}

	lister.holderID = ""
	h, err = u.LinkedHolder(context.Background(), &session.View{SubjectID: "u2"})
	if err != nil || h != nil || lister.holderID != "" {
		t.Errorf("unlinked session should not call the provider: %+v, %v", h, err)
	}
}

func TestLinkedHolder_PropagatesError(t *testing.T) {
	lister := &fakeAccountLister{err: domain.ErrUpstream}
	u := usecase.NewDashboardUsecase(&fakeDashboardBackend{}, lister)

	if _, err := u.LinkedHolder(context.Background(), dashboardView); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}
