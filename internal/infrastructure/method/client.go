// Package method is a client for the holder-provisioning API of the
// financial-data provider. Requests are authorized with the static API key,
// never with an end-user token.
package method

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
)

const maxBodyBytes = 1 << 20

type Individual struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type Holder struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Status     string     `json:"status,omitempty"`
	Individual Individual `json:"individual"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateHolder provisions a new individual holder.
func (c *Client) CreateHolder(ctx context.Context, ind Individual) (*Holder, error) {
	in := map[string]any{"type": "individual", "individual": ind}

	var h Holder
	if err := c.do(ctx, http.MethodPost, "/holders", in, &h); err != nil {
		return nil, fmt.Errorf("create holder: %w", err)
	}
	if h.ID == "" {
		return nil, fmt.Errorf("create holder: %w: missing id", domain.ErrMalformedPayload)
	}
	return &h, nil
}

func (c *Client) GetHolder(ctx context.Context, id string) (*Holder, error) {
	var h Holder
	if err := c.do(ctx, http.MethodGet, "/holders/"+url.PathEscape(id), nil, &h); err != nil {
		return nil, fmt.Errorf("get holder: %w", err)
	}
	if h.ID == "" {
		return nil, fmt.Errorf("get holder: %w: missing id", domain.ErrMalformedPayload)
	}
	return &h, nil
}

// ListAccounts returns every account held by holderID.
func (c *Client) ListAccounts(ctx context.Context, holderID string) ([]domain.LinkedAccountRecord, error) {
	var accounts []domain.LinkedAccountRecord
	if err := c.do(ctx, http.MethodGet, "/holders/"+url.PathEscape(holderID)+"/accounts", nil, &accounts); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.ID == "" {
			return nil, fmt.Errorf("list accounts: %w: account without id", domain.ErrMalformedPayload)
		}
	}
	return accounts, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
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
		return fmt.Errorf("%w: status %d %s", domain.ErrUpstream, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return unwrap(data, out)
}

// unwrap decodes data into out, accepting the provider's
// {"success": true, "data": ...} envelope as well as a bare payload.
func unwrap(data []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			trimmed = envelope.Data
		}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return nil
}
