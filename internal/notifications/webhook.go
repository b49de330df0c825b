// Package notifications fans engine change events out to external sinks.
package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// WebhookNotifier posts every engine event to a configured HTTP endpoint.
// Delivery is fire-and-forget; a dead endpoint never slows the engine down.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Broadcast(event string, data interface{}) {
	go func() {
		payload := map[string]interface{}{
			"event":     event,
			"data":      data,
			"source":    "whirlwatch",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if err := n.postJSON(n.url, payload); err != nil {
			log.Printf("[notifications] webhook %s: %v", event, err)
		}
	}()
}

func (n *WebhookNotifier) postJSON(url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
