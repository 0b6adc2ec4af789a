package domain

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSent       PaymentStatus = "sent"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCanceled   PaymentStatus = "canceled"
	PaymentReturned   PaymentStatus = "returned"
)

type Liability struct {
	Mask                     string   `json:"mask"`
	Name                     string   `json:"name"`
	Type                     string   `json:"type"`
	Balance                  float64  `json:"balance"`
	LastPaymentDate          string   `json:"last_payment_date,omitempty"`
	LastPaymentAmount        *float64 `json:"last_payment_amount,omitempty"`
	NextPaymentDueDate       string   `json:"next_payment_due_date,omitempty"`
	NextPaymentMinimumAmount *float64 `json:"next_payment_minimum_amount,omitempty"`
}

type CardPreferences struct {
	AutopayEnabled       bool   `json:"autopay_enabled"`
	AutopayAmount        string `json:"autopay_amount"`
	ReminderDays         int    `json:"reminder_days"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// DefaultCardPreferences applies when the backend has none stored for a card.
func DefaultCardPreferences() CardPreferences {
	return CardPreferences{
		AutopayEnabled:       false,
		AutopayAmount:        "minimum",
		ReminderDays:         3,
		NotificationsEnabled: true,
	}
}

type Card struct {
	ID          string          `json:"id"`
	Brand       string          `json:"brand"`
	LastFour    string          `json:"last_four"`
	Name        string          `json:"name"`
	Status      string          `json:"status"`
	Balance     float64         `json:"balance"`
	ExpMonth    int             `json:"exp_month,omitempty"`
	ExpYear     int             `json:"exp_year,omitempty"`
	Liability   *Liability      `json:"liability,omitempty"`
	Preferences CardPreferences `json:"preferences"`
}

type Payment struct {
	ID          string        `json:"id"`
	Amount      int64         `json:"amount"` // cents
	Source      string        `json:"source"`
	Destination string        `json:"destination"`
	Description string        `json:"description"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Bill struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Amount  float64   `json:"amount"`
	DueDate time.Time `json:"due_date"`
	Status  string    `json:"status"`
}

type PaymentStats struct {
	TotalAmount         float64 `json:"total_amount"`
	SuccessfulPayments  int     `json:"successful_payments"`
	FailedPayments      int     `json:"failed_payments"`
	PendingPayments     int     `json:"pending_payments"`
	RecentPaymentsCount int     `json:"recent_payments_count"`
}

// LinkedAccountRecord is an account held by a linked holder at the
// financial-data provider. Liability accounts are credit-card-like.
type LinkedAccountRecord struct {
	ID        string     `json:"id"`
	HolderID  string     `json:"holder_id"`
	Status    string     `json:"status"`
	Type      string     `json:"type"`
	Liability *Liability `json:"liability,omitempty"`
}
