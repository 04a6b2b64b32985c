package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

const defaultWebhookUsername = "PoE Level Tracker"

// WebhookNotifier posts level-up messages to a chat webhook URL. The payload
// is the plain {content, username} document most chat platforms accept.
type WebhookNotifier struct {
	URL        string
	Username   string
	HTTPClient *http.Client
}

// NewWebhookNotifier builds a notifier with a bounded request timeout.
func NewWebhookNotifier(url, username string) *WebhookNotifier {
	if strings.TrimSpace(username) == "" {
		username = defaultWebhookUsername
	}
	return &WebhookNotifier{
		URL:        url,
		Username:   username,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username"`
}

// NotifyLevelUp implements Notifier.
func (n *WebhookNotifier) NotifyLevelUp(ctx context.Context, event core.LevelUpEvent) error {
	message := fmt.Sprintf("**%s** reached level **%d** in **%s** (%d → %d)",
		event.Character, event.NewLevel, event.League, event.OldLevel, event.NewLevel)
	return n.send(ctx, message)
}

func (n *WebhookNotifier) send(ctx context.Context, message string) error {
	if strings.TrimSpace(n.URL) == "" {
		return errors.New("webhook url is not configured")
	}

	body, err := json.Marshal(webhookPayload{Content: message, Username: n.Username})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
