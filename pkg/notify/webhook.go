// Package notify implements the Notification Sender external collaborator
// (§6.4): push-only delivery of clawsec.AuditEvent to out-of-band channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// NotificationSender is the §6.4 interface: push-only send, plus a test
// hook so an operator can validate a channel without waiting for a real
// event.
type NotificationSender interface {
	Send(ctx context.Context, event clawsec.AuditEvent) error
	Test(ctx context.Context) error
}

// WebhookSender POSTs the event as JSON to approval.webhook.url, signing
// the body with an HS256 JWT assertion so the receiver can verify the
// request actually came from this engine instance.
type WebhookSender struct {
	url     string
	secret  []byte
	headers map[string]string
	client  *http.Client
}

// WebhookOption configures a WebhookSender at construction time.
type WebhookOption func(*WebhookSender)

func WithWebhookHeaders(headers map[string]string) WebhookOption {
	return func(w *WebhookSender) { w.headers = headers }
}

func WithWebhookTimeout(d time.Duration) WebhookOption {
	return func(w *WebhookSender) { w.client.Timeout = d }
}

func WithWebhookHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookSender) { w.client = c }
}

// NewWebhookSender builds a sender that posts to url, signing each request
// with secret.
func NewWebhookSender(url string, secret []byte, opts ...WebhookOption) *WebhookSender {
	w := &WebhookSender{url: url, secret: secret, client: &http.Client{Timeout: 5 * time.Second}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type webhookPayload struct {
	Kind     string `json:"kind"`
	Time     string `json:"time"`
	Tool     string `json:"tool"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
	Action   string `json:"action,omitempty"`
	Reason   string `json:"reason,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
	ActorID  string `json:"actor_id,omitempty"`
}

func (w *WebhookSender) Send(ctx context.Context, event clawsec.AuditEvent) error {
	payload := webhookPayload{
		Kind:     string(event.Kind),
		Time:     event.Time.Format(time.RFC3339Nano),
		Tool:     event.ToolName,
		Category: string(event.Category),
		Severity: event.Severity.String(),
		Action:   string(event.Action),
		Reason:   event.Reason,
		TicketID: event.TicketID,
		ActorID:  event.ActorID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal webhook payload: %w", err)
	}
	return w.post(ctx, body)
}

// Test sends a zero-value heartbeat payload so an operator can validate
// connectivity and signature verification independent of a real event.
func (w *WebhookSender) Test(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"kind": "test", "time": time.Now().UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return err
	}
	return w.post(ctx, body)
}

func (w *WebhookSender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	sig, err := w.sign(body)
	if err != nil {
		return fmt.Errorf("notify: sign webhook payload: %w", err)
	}
	req.Header.Set("X-Clawsec-Signature", sig)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook endpoint returned %s", resp.Status)
	}
	return nil
}

// sign produces an HS256 JWT whose claim carries a hash of the body, so the
// receiver can bind the signature to the exact bytes it received.
func (w *WebhookSender) sign(body []byte) (string, error) {
	claims := jwt.MapClaims{
		"iss": "clawsec",
		"iat": time.Now().Unix(),
		"bl":  len(body),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(w.secret)
}
