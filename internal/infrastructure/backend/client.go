package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// Caller identifies the end user on whose behalf a request is made.
type Caller struct {
	SubjectID   string
	BearerToken string
}

type AuthUser struct {
	ID              string `json:"id"                validate:"required"`
	Email           string `json:"email"             validate:"required,email"`
	FullName        string `json:"full_name"`
	PhoneNumber     string `json:"phone_number"`
	MethodAccountID string `json:"method_account_id"`
}

type AuthResponse struct {
	AccessToken string   `json:"access_token" validate:"required"`
	TokenType   string   `json:"token_type"`
	User        AuthUser `json:"user"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name,omitempty"`
}

type PaymentFilter struct {
	Status string
	Limit  int
	Offset int
}

// Client talks to the backend API. Every non-2xx answer and every payload
// that fails validation is reported as an error.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := c.validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("login: %w: %v", domain.ErrMalformedPayload, err)
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := c.validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("register: %w: %v", domain.ErrMalformedPayload, err)
	}
	return &resp, nil
}

// UpdatePhoneNumber writes the phone number onto the caller's backend profile.
func (c *Client) UpdatePhoneNumber(ctx context.Context, caller Caller, phone string) error {
	body := map[string]string{"phone_number": phone}
	if err := c.do(ctx, http.MethodPut, "/api/users/me", &caller, body, nil); err != nil {
		return fmt.Errorf("update phone number: %w", err)
	}
	return nil
}

type cardWire struct {
	MethodCard struct {
		ID        string            `json:"id"        validate:"required"`
		Brand     string            `json:"brand"`
		LastFour  string            `json:"last_four" validate:"omitempty,len=4,numeric"`
		Name      string            `json:"name"`
		Status    string            `json:"status"`
		Balance   float64           `json:"balance"`
		ExpMonth  int               `json:"exp_month" validate:"omitempty,min=1,max=12"`
		ExpYear   int               `json:"exp_year"`
		Liability *domain.Liability `json:"liability"`
	} `json:"method_card"`
	Preferences *domain.CardPreferences `json:"preferences"`
}

func (c *Client) ListCards(ctx context.Context, caller Caller) ([]domain.Card, error) {
	raw, err := c.get(ctx, "/api/cards/", caller)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	wires, err := decodeList[cardWire](raw)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	cards := make([]domain.Card, 0, len(wires))
	for _, w := range wires {
		if err := c.validate.Struct(&w); err != nil {
			return nil, fmt.Errorf("list cards: %w: %v", domain.ErrMalformedPayload, err)
		}
		cards = append(cards, toCard(w))
	}
	return cards, nil
}

func toCard(w cardWire) domain.Card {
	mc := w.MethodCard
	card := domain.Card{
		ID:        mc.ID,
		Brand:     orDefault(mc.Brand, "visa"),
		LastFour:  orDefault(mc.LastFour, "0000"),
		Status:    orDefault(mc.Status, "active"),
		Balance:   mc.Balance,
		ExpMonth:  mc.ExpMonth,
		ExpYear:   mc.ExpYear,
		Liability: mc.Liability,
	}
	card.Name = orDefault(mc.Name, strings.ToUpper(card.Brand)+" Credit Card")
	if w.Preferences != nil {
		card.Preferences = *w.Preferences
	} else {
		card.Preferences = domain.DefaultCardPreferences()
	}
	return card
}

type paymentWire struct {
	ID          string               `json:"id"     validate:"required"`
	Amount      int64                `json:"amount" validate:"min=0"`
	Source      string               `json:"source"`
	Destination string               `json:"destination"`
	Description string               `json:"description"`
	Status      domain.PaymentStatus `json:"status" validate:"required,oneof=pending processing sent failed canceled returned"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func (c *Client) ListPayments(ctx context.Context, caller Caller, f PaymentFilter) ([]domain.Payment, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	path := "/api/payments/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	raw, err := c.get(ctx, path, caller)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	wires, err := decodeList[paymentWire](raw)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	payments := make([]domain.Payment, 0, len(wires))
	for _, w := range wires {
		if err := c.validate.Struct(&w); err != nil {
			return nil, fmt.Errorf("list payments: %w: %v", domain.ErrMalformedPayload, err)
		}
		payments = append(payments, domain.Payment(w))
	}
	return payments, nil
}

type billWire struct {
	ID      string    `json:"id"     validate:"required"`
	Name    string    `json:"name"   validate:"required"`
	Amount  float64   `json:"amount" validate:"min=0"`
	DueDate time.Time `json:"due_date"`
	Status  string    `json:"status"`
}

func (c *Client) ListBills(ctx context.Context, caller Caller) ([]domain.Bill, error) {
	raw, err := c.get(ctx, "/api/bills/", caller)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	wires, err := decodeList[billWire](raw)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}

	bills := make([]domain.Bill, 0, len(wires))
	for _, w := range wires {
		if err := c.validate.Struct(&w); err != nil {
			return nil, fmt.Errorf("list bills: %w: %v", domain.ErrMalformedPayload, err)
		}
		bills = append(bills, domain.Bill(w))
	}
	return bills, nil
}

func (c *Client) get(ctx context.Context, path string, caller Caller) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, &caller, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, caller *Caller, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != nil {
		if caller.BearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+caller.BearerToken)
		}
		if caller.SubjectID != "" {
			req.Header.Set("X-Subject-ID", caller.SubjectID)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: status %d", domain.ErrUnauthorized, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, detail(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return nil
}

// decodeList accepts either a bare JSON array or a {"data": [...]} envelope.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var items []T
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
		}
		return items, nil
	}

	var envelope struct {
		Data *[]T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: expected array or data envelope", domain.ErrMalformedPayload)
	}
	return *envelope.Data, nil
}

// detail pulls the FastAPI-style {"detail": "..."} message out of an error body.
func detail(body []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != nil {
		return fmt.Sprint(e.Detail)
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// IsUnauthorized reports whether err came from a 401/403 answer.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
