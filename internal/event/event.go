// Package event parses and validates GitHub push event payloads.
//
// The structs model only the fields relaynote needs. Webhook payloads
// carry hundreds of fields that are irrelevant here, so nothing else is
// decoded.
package event

import (
	"errors"
	"os"
	"time"
)

// ErrUnsupportedEvent is returned for any event kind other than "push".
var ErrUnsupportedEvent = errors.New("this action can only be used on push events")

// Author is the git author metadata on a commit. This is the git
// identity string, not a GitHub user object; Username may be empty.
type Author struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Commit is a single commit within a push event.
type Commit struct {
	ID        string    `json:"id"` // full SHA
	Message   string    `json:"message"`
	Distinct  bool      `json:"distinct"`
	Timestamp time.Time `json:"timestamp"`
	TreeID    string    `json:"tree_id"`
	URL       string    `json:"url"` // web URL
	Author    Author    `json:"author"`
	Committer Author    `json:"committer"`
}

// Repository identifies the repository the push landed in.
type Repository struct {
	FullName string `json:"full_name"` // "owner/repo"
	HTMLURL  string `json:"html_url"`
}

// PushEvent is the validated subset of a "push" webhook payload.
type PushEvent struct {
	CompareURL string
	Repository Repository
	Commits    []Commit
}

// LoadFile reads an event payload from disk and validates it as a push
// event. kind is the event name the payload arrived under.
func LoadFile(kind, path string) (*PushEvent, error) {
	if kind != "push" {
		return nil, ErrUnsupportedEvent
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(kind, data)
}
