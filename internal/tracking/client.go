// Package tracking sends conversion events to the external tracking
// service.  Delivery is strictly fire-and-forget: failures are logged and
// swallowed so a tracking outage can never affect payment state.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

const (
	statusWaitingPayment = "waiting_payment"
	statusPaid           = "paid"
)

// Client posts conversion events.  A nil or disabled client (empty URL) is
// valid and does nothing.
type Client struct {
	url  string
	http *http.Client
}

// NewClient builds a tracking client.  Pass an empty url to disable
// tracking entirely.
func NewClient(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

type event struct {
	OrderID   string `json:"orderId"`
	Value     int64  `json:"value"` // centavos
	Status    string `json:"status"`
	UTMSource string `json:"utm_source,omitempty"`
}

// SendWaitingPayment reports that a PIX charge was generated and is
// awaiting payment.
func (c *Client) SendWaitingPayment(ctx context.Context, paymentID string, amountCents int64, utmSource string) {
	c.send(ctx, event{OrderID: paymentID, Value: amountCents, Status: statusWaitingPayment, UTMSource: utmSource})
}

// SendPaid reports a confirmed payment.
func (c *Client) SendPaid(ctx context.Context, paymentID string, amountCents int64, utmSource string) {
	c.send(ctx, event{OrderID: paymentID, Value: amountCents, Status: statusPaid, UTMSource: utmSource})
}

func (c *Client) send(ctx context.Context, ev event) {
	if c == nil || c.url == "" {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("tracking: marshal event failed: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("tracking: build request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("tracking: send %s for %s failed: %v", ev.Status, ev.OrderID, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("tracking: send %s for %s returned HTTP %d", ev.Status, ev.OrderID, resp.StatusCode)
	}
}
