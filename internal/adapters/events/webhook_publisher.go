package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
)

const defaultWebhookTimeout = 10 * time.Second

// webhookPayload is the JSON body sent to subscribers. The description key
// set inside is the wire contract toward them and is emitted verbatim.
type webhookPayload struct {
	Source      string            `json:"source"`
	Category    string            `json:"category"`
	EventType   string            `json:"eventType"`
	EntityType  string            `json:"resourceType"`
	EntityUUID  string            `json:"resourceUUID"`
	Description map[string]string `json:"description"`
}

// WebhookPublisher delivers bus events to a configured HTTP endpoint. Each
// request is signed with HMAC-SHA256 so the receiver can verify authenticity.
// Non-2xx responses are treated as errors; delivery is at-most-once and the
// caller decides whether a failure matters.
type WebhookPublisher struct {
	url    string
	secret []byte
	client *http.Client
}

// NewWebhookPublisher returns a WebhookPublisher that POSTs events to url and
// signs them with secret using HMAC-SHA256. A zero or negative timeout falls
// back to defaultWebhookTimeout (10 s).
func NewWebhookPublisher(url, secret string, timeout time.Duration) *WebhookPublisher {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookPublisher{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
	}
}

// Publish marshals event to JSON, signs the body, and POSTs it to the
// configured webhook URL. The following headers are set on every request:
//
//	Content-Type:              application/json
//	X-Actionlog-Category:      <event.Category>
//	X-Actionlog-Event-Type:    <event.Type>
//	X-Actionlog-Source:        <event.Source>
//	X-Hub-Signature-256:       sha256=<hex-encoded HMAC-SHA256>
func (p *WebhookPublisher) Publish(ctx context.Context, event domain.BusEvent) error {
	payload, err := json.Marshal(webhookPayload{
		Source:      event.Source,
		Category:    event.Category,
		EventType:   event.Type,
		EntityType:  event.EntityType,
		EntityUUID:  event.EntityUUID,
		Description: event.Description,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	sig := p.sign(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actionlog-Category", event.Category)
	req.Header.Set("X-Actionlog-Event-Type", event.Type)
	req.Header.Set("X-Actionlog-Source", event.Source)
	req.Header.Set("X-Hub-Signature-256", "sha256="+sig)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// sign returns the lowercase hex-encoded HMAC-SHA256 of payload using p.secret.
func (p *WebhookPublisher) sign(payload []byte) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
