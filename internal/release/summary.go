package release

import "unicode/utf8"

// maxTitleLength is the visible-character budget for a summary title,
// including the ellipsis when the issue title is clipped.
const maxTitleLength = 50

// Summary is the per-issue record a notification field is built from.
// Built fresh each run and discarded after dispatch.
type Summary struct {
	Title    string   // "<identifier>: <truncated title>"
	URL      string   // link to the issue
	Assignee string   // display name, empty when unassigned
	Labels   []string // label names in tracker return order
}

// truncate clips s to max-1 runes plus an ellipsis when s is longer
// than max runes, and leaves it unchanged otherwise.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
