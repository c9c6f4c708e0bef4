// Package linear provides the issue tracker client used to resolve and
// transition tickets.
package linear

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a ticket identifier does not resolve to
// an issue.
var ErrNotFound = errors.New("issue not found")

// Issue is an issue tracker item. Related entities (team, assignee,
// labels) are resolved lazily through separate calls.
type Issue struct {
	ID         string // internal ID, used for mutations
	Identifier string // e.g. "ENG-123"
	Title      string
	URL        string
}

// Team owns issues and defines the workflow states they move through.
type Team struct {
	ID   string
	Name string
}

// WorkflowState is a single state in a team's workflow.
type WorkflowState struct {
	ID   string
	Name string
}

// User is an issue assignee.
type User struct {
	Name string
}

// Label is a tag attached to an issue.
type Label struct {
	Name string
}

// Client defines the tracker operations the pipeline consumes. The
// production implementation talks to Linear's GraphQL API; tests use
// fakes.
type Client interface {
	// Issue resolves a ticket identifier to an issue. Returns
	// ErrNotFound when the identifier is unknown.
	Issue(ctx context.Context, key string) (*Issue, error)

	// Team returns the issue's owning team, or nil when the issue has
	// none.
	Team(ctx context.Context, issueID string) (*Team, error)

	// States lists the team's workflow states whose name equals the
	// given name, compared case-insensitively, in the tracker's return
	// order.
	States(ctx context.Context, teamID, name string) ([]WorkflowState, error)

	// UpdateIssueState moves the issue into the given workflow state.
	UpdateIssueState(ctx context.Context, issueID, stateID string) error

	// Assignee returns the issue's assignee, or nil when unassigned.
	Assignee(ctx context.Context, issueID string) (*User, error)

	// Labels returns the issue's labels in the tracker's return order.
	Labels(ctx context.Context, issueID string) ([]Label, error)
}
