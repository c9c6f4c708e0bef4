package ticket

import (
	"reflect"
	"testing"

	"github.com/drewfead/relaynote/internal/event"
)

func commits(messages ...string) []event.Commit {
	out := make([]event.Commit, len(messages))
	for i, m := range messages {
		out[i] = event.Commit{Message: m}
	}
	return out
}

func TestExtractOrderPreserving(t *testing.T) {
	got := Extract(commits(
		"fix ABC-123 bug",
		"no ticket here",
		"ABC-1 and XY-99",
	))
	want := []string{"ABC-123", "ABC-1", "XY-99"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}

	// Same input, same output: extraction is pure.
	again := Extract(commits(
		"fix ABC-123 bug",
		"no ticket here",
		"ABC-1 and XY-99",
	))
	if !reflect.DeepEqual(again, got) {
		t.Errorf("Extract not reproducible: %v vs %v", again, got)
	}
}

func TestExtractNoDedup(t *testing.T) {
	got := Extract(commits("ABC-1 fix", "ABC-1 follow-up", "XYZ-9"))
	want := []string{"ABC-1", "ABC-1", "XYZ-9"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractIgnoresNearMisses(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"lowercase prefix", "fix abc-123", nil},
		{"no hyphen", "fix ABC123", nil},
		{"no digits", "fix ABC-", nil},
		{"empty message", "", nil},
		{"embedded match", "revert bad1ABC-12x", []string{"ABC-12"}},
		{"multiple per message", "ABC-1 ABC-2 ABC-3", []string{"ABC-1", "ABC-2", "ABC-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromMessage(tt.message)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FromMessage(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}
