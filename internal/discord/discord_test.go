package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPostsEmbeds(t *testing.T) {
	var received Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	msg := &Message{
		Embeds: []Embed{{
			Title:     "Update released in acme/widgets",
			URL:       "https://github.com/acme/widgets/compare/abc...def",
			Color:     EmbedColor,
			Timestamp: "2024-03-01T12:30:00Z",
			Fields: []Field{
				{Name: "ABC-1: Ship the widget", Value: "[View](https://linear.app/acme/issue/ABC-1) • Ada"},
			},
		}},
	}

	if err := NewWebhook(srv.URL).Send(context.Background(), msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(received.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(received.Embeds))
	}
	if received.Embeds[0].Color != EmbedColor {
		t.Errorf("unexpected color: %d", received.Embeds[0].Color)
	}
	if len(received.Embeds[0].Fields) != 1 || received.Embeds[0].Fields[0].Name != "ABC-1: Ship the widget" {
		t.Errorf("unexpected fields: %+v", received.Embeds[0].Fields)
	}
}

func TestSendNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "invalid webhook token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Send(context.Background(), &Message{Embeds: []Embed{{Title: "x"}}})
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}
