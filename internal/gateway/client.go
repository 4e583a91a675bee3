// Package gateway implements the PIX payment gateway client.  The gateway
// authenticates with a short-lived bearer token; the client caches it in a
// struct field guarded by a mutex instead of package-level state, refreshing
// only when the cached token is within the expiry margin.  Concurrent
// refreshes are tolerated: a duplicate token is harmless.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenTTL is assumed by the gateway contract: tokens live one hour and are
// refreshed expiryMargin before the deadline.
const (
	tokenTTL     = time.Hour
	expiryMargin = 60 * time.Second
)

// Customer carries the payer data sent when creating a charge.
type Customer struct {
	Name     string
	Email    string
	Document string
	Phone    string
}

// UTMParams are forwarded to the gateway as query parameters for
// attribution.  Empty fields are omitted.
type UTMParams struct {
	Source   string
	Medium   string
	Campaign string
	Term     string
	Content  string
}

// PaymentResponse is the gateway's answer to a new PIX charge.
type PaymentResponse struct {
	CopyPast   string `json:"copy_past"`  // copy-and-paste PIX payload
	ExternalID int64  `json:"external_id"`
	PayerName  string `json:"payer_name"`
	Payment    string `json:"payment"` // QR code image, base64
	Status     int    `json:"status"`
}

// DepositStatus is the gateway's answer to a status poll.  A non-empty
// EndToEnd settlement reference means money has moved even when Status
// still reads "pending".
type DepositStatus struct {
	ID        int64   `json:"id"`
	Value     float64 `json:"value"` // reais
	Tax       float64 `json:"tax"`
	EndToEnd  string  `json:"end_to_end"`
	Status    string  `json:"status"` // "pending" | "paid"
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// IsPaid reports whether the deposit should be treated as settled.
func (d DepositStatus) IsPaid() bool {
	return d.Status == "paid" || strings.TrimSpace(d.EndToEnd) != ""
}

// Client talks to the gateway API.  Create one per process and share it;
// the token cache is internal.
type Client struct {
	baseURL      string
	clientKey    string
	clientSecret string
	http         *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a gateway client.  The HTTP client carries a timeout so
// a stalled gateway surfaces as an error instead of hanging a checkout.
func NewClient(baseURL, clientKey, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientKey:    clientKey,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 15 * time.Second},
	}
}

// accessToken returns the cached token while it is still comfortably valid
// and fetches a new one otherwise.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-expiryMargin)) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"client_key":    c.clientKey,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway auth failed: HTTP %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("gateway auth: no access_token in response")
	}

	c.token = out.AccessToken
	c.tokenExpiry = time.Now().Add(tokenTTL)
	return c.token, nil
}

// doJSON performs an authenticated request and decodes the JSON response
// into out.  Non-2xx responses are returned as errors.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreatePayment opens a new PIX charge.  amountCents is converted to reais
// on the wire, as the gateway expects.  UTM parameters ride along as query
// parameters when present.
func (c *Client) CreatePayment(ctx context.Context, amountCents int64, customer Customer, description, callbackURL, referenceID string, utm UTMParams) (*PaymentResponse, error) {
	payload := map[string]interface{}{
		"payer_name":          customer.Name,
		"amount":              float64(amountCents) / 100.0,
		"description":         description,
		"callback_url":        callbackURL,
		"client_reference_id": referenceID,
		"phone":               customer.Phone,
	}

	query := url.Values{}
	setIf := func(k, v string) {
		if v != "" {
			query.Set(k, v)
		}
	}
	setIf("utm_source", utm.Source)
	setIf("utm_medium", utm.Medium)
	setIf("utm_campaign", utm.Campaign)
	setIf("utm_term", utm.Term)
	setIf("utm_content", utm.Content)

	var out PaymentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/transaction/neworder", query, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDepositStatus polls the gateway for the current state of a deposit.
func (c *Client) GetDepositStatus(ctx context.Context, depositID string) (*DepositStatus, error) {
	var out DepositStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders/deposit/"+url.PathEscape(depositID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
