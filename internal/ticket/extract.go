// Package ticket extracts issue-tracker ticket identifiers from commit
// messages.
package ticket

import (
	"regexp"

	"github.com/drewfead/relaynote/internal/event"
)

// idPattern matches ticket identifiers like "ENG-123": one or more
// uppercase ASCII letters, a hyphen, one or more digits. Lowercase
// prefixes and hyphen-less tokens are not tickets.
var idPattern = regexp.MustCompile(`[A-Z]+-[0-9]+`)

// Extract returns every ticket identifier found in the commit messages,
// commits in input order, matches within a message left to right. No
// normalization or deduplication: the same identifier in two commits
// appears twice.
func Extract(commits []event.Commit) []string {
	var ids []string
	for _, c := range commits {
		ids = append(ids, FromMessage(c.Message)...)
	}
	return ids
}

// FromMessage returns the ticket identifiers in a single message in
// left-to-right order.
func FromMessage(message string) []string {
	return idPattern.FindAllString(message, -1)
}
