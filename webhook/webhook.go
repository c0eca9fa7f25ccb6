// Package webhook posts signed completion events to a configured endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/sectionscope/models"
)

// EventScrapeCompleted is sent once per finished scrape request.
const EventScrapeCompleted = "scrape.completed"

// SignatureHeader carries "sha256=<hex>" when a secret is configured.
const SignatureHeader = "X-Sectionscope-Signature"

const deliveryTimeout = 10 * time.Second

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string         `json:"type"`
	URL       string         `json:"url"`
	Timestamp int64          `json:"timestamp"`
	Data      models.Summary `json:"data"`
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Sectionscope-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(secret, body))
	}

	client := &http.Client{Timeout: deliveryTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Notifier delivers a scrape.completed event for every summary.
type Notifier struct {
	url    string
	secret string
	delays []time.Duration
}

// NewNotifier returns nil when url is empty, so callers can skip wiring.
func NewNotifier(url, secret string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:    url,
		secret: secret,
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Notify delivers in the background. It never blocks the caller.
func (n *Notifier) Notify(s models.Summary) {
	event := &Event{
		Type:      EventScrapeCompleted,
		URL:       s.URL,
		Timestamp: s.ScrapedAt.UnixMilli(),
		Data:      s,
	}
	go n.deliverWithRetry(event)
}

func (n *Notifier) deliverWithRetry(event *Event) {
	for attempt, delay := range n.delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		err := Deliver(ctx, n.url, n.secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"endpoint", n.url,
				"event", event.Type,
				"url", event.URL,
				"attempt", attempt+1,
			)
			return
		}
		slog.Warn("webhook delivery failed",
			"endpoint", n.url,
			"event", event.Type,
			"url", event.URL,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"endpoint", n.url,
		"event", event.Type,
		"url", event.URL,
	)
}
