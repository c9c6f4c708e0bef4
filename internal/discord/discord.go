// Package discord posts rich-embed messages to a Discord webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmbedColor is the accent color used on release embeds.
const EmbedColor = 6451704

// Field is one name/value pair within an embed.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Embed is a structured rich-content block within a webhook message.
type Embed struct {
	Title     string  `json:"title"`
	URL       string  `json:"url,omitempty"`
	Color     int     `json:"color"`
	Timestamp string  `json:"timestamp,omitempty"` // ISO 8601
	Fields    []Field `json:"fields,omitempty"`
}

// Message is a webhook message payload.
type Message struct {
	Embeds []Embed `json:"embeds"`
}

// Sender dispatches one message to a chat webhook.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Webhook posts messages to a fixed Discord webhook URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook sender for the given URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts the message as JSON. Any non-2xx response is an error;
// there is no retry.
func (w *Webhook) Send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Discord webhook error: %d - %s", resp.StatusCode, string(respBody))
	}
	return nil
}
