package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FieldError is a single structural problem in a payload.
type FieldError struct {
	Path    string // e.g. "commits[2].timestamp"
	Message string
}

// ValidationError reports every structural problem found in a payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Path, f.Message)
	}
	return "invalid push payload: " + strings.Join(parts, "; ")
}

// pushWire is the raw envelope. Commits stay undecoded so each one can
// be validated independently with a per-index error path.
type pushWire struct {
	Compare    *string           `json:"compare"`
	Repository Repository        `json:"repository"`
	Commits    []json.RawMessage `json:"commits"`
}

// commitWire shadows Commit with pointer fields so missing keys are
// distinguishable from zero values.
type commitWire struct {
	ID        *string     `json:"id"`
	Message   *string     `json:"message"`
	Distinct  *bool       `json:"distinct"`
	Timestamp *string     `json:"timestamp"`
	TreeID    *string     `json:"tree_id"`
	URL       *string     `json:"url"`
	Author    *authorWire `json:"author"`
	Committer *authorWire `json:"committer"`
}

type authorWire struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Username *string `json:"username"`
}

// Parse validates a raw payload as a push event. kind must be "push";
// any other kind fails with ErrUnsupportedEvent before the payload is
// looked at. Structural problems are collected into a ValidationError
// rather than stopping at the first one.
func Parse(kind string, payload []byte) (*PushEvent, error) {
	if kind != "push" {
		return nil, ErrUnsupportedEvent
	}

	var wire pushWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, &ValidationError{Fields: []FieldError{jsonFieldError("", err)}}
	}

	var fields []FieldError
	if wire.Compare == nil {
		fields = append(fields, FieldError{Path: "compare", Message: "required"})
	} else if !validURL(*wire.Compare) {
		fields = append(fields, FieldError{Path: "compare", Message: "malformed URL"})
	}
	if wire.Commits == nil {
		fields = append(fields, FieldError{Path: "commits", Message: "required"})
	}

	commits := make([]Commit, 0, len(wire.Commits))
	for i, raw := range wire.Commits {
		commit, errs := parseCommit(i, raw)
		if len(errs) > 0 {
			fields = append(fields, errs...)
			continue
		}
		commits = append(commits, commit)
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	ev := &PushEvent{
		CompareURL: *wire.Compare,
		Repository: wire.Repository,
		Commits:    commits,
	}
	return ev, nil
}

func parseCommit(index int, raw json.RawMessage) (Commit, []FieldError) {
	path := fmt.Sprintf("commits[%d]", index)

	var wire commitWire
	var fields []FieldError
	mistyped := ""
	if err := json.Unmarshal(raw, &wire); err != nil {
		// A type error on one field leaves the rest of the object
		// decoded, so the required-field checks below still apply. A
		// non-object commit leaves everything nil and reports once.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return Commit{}, []FieldError{{Path: path, Message: err.Error()}}
		}
		if typeErr.Field == "" {
			return Commit{}, []FieldError{{
				Path:    path,
				Message: fmt.Sprintf("expected object, got %s", typeErr.Value),
			}}
		}
		mistyped = typeErr.Field
		fields = append(fields, FieldError{
			Path:    path + "." + typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		})
	}

	required := func(name string, ok bool) {
		if !ok && name != mistyped {
			fields = append(fields, FieldError{Path: path + "." + name, Message: "required"})
		}
	}
	required("id", wire.ID != nil)
	required("message", wire.Message != nil)
	required("distinct", wire.Distinct != nil)
	required("timestamp", wire.Timestamp != nil)
	required("tree_id", wire.TreeID != nil)
	required("url", wire.URL != nil)
	required("author", wire.Author != nil)
	required("committer", wire.Committer != nil)

	var ts time.Time
	if wire.Timestamp != nil {
		var err error
		ts, err = time.Parse(time.RFC3339, *wire.Timestamp)
		if err != nil {
			fields = append(fields, FieldError{Path: path + ".timestamp", Message: "unparsable timestamp"})
		}
	}
	if wire.URL != nil && !validURL(*wire.URL) {
		fields = append(fields, FieldError{Path: path + ".url", Message: "malformed URL"})
	}

	if len(fields) > 0 {
		return Commit{}, fields
	}

	return Commit{
		ID:        *wire.ID,
		Message:   *wire.Message,
		Distinct:  *wire.Distinct,
		Timestamp: ts,
		TreeID:    *wire.TreeID,
		URL:       *wire.URL,
		Author:    author(wire.Author),
		Committer: author(wire.Committer),
	}, nil
}

func author(w *authorWire) Author {
	a := Author{}
	if w.Email != nil {
		a.Email = *w.Email
	}
	if w.Name != nil {
		a.Name = *w.Name
	}
	if w.Username != nil {
		a.Username = *w.Username
	}
	return a
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// jsonFieldError translates an encoding/json error into a FieldError
// anchored at the given path prefix.
func jsonFieldError(prefix string, err error) FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := prefix
		if typeErr.Field != "" {
			if path != "" {
				path += "."
			}
			path += typeErr.Field
		}
		if path == "" {
			path = "payload"
		}
		return FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}
	}
	path := prefix
	if path == "" {
		path = "payload"
	}
	return FieldError{Path: path, Message: err.Error()}
}
