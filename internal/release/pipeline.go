// Package release implements the push-to-notification pipeline: extract
// ticket identifiers from commit messages, transition the referenced
// issues to Done, and post a summary embed to the chat webhook.
package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/drewfead/relaynote/internal/discord"
	"github.com/drewfead/relaynote/internal/event"
	"github.com/drewfead/relaynote/internal/linear"
	"github.com/drewfead/relaynote/internal/ticket"
)

// doneStateName is the workflow state issues are transitioned into,
// matched case-insensitively.
const doneStateName = "Done"

// Pipeline wires the tracker client and the webhook sink into the
// release notification flow.
type Pipeline struct {
	tracker linear.Client
	sink    discord.Sender
	log     *slog.Logger
}

// New creates a pipeline. The logger carries per-run attributes such as
// the run ID.
func New(tracker linear.Client, sink discord.Sender, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{tracker: tracker, sink: sink, log: log}
}

// Run processes one validated push event end to end. repo is the
// "owner/repo" slug used in the notification title.
//
// Per-ticket lookup failures are logged and skipped; a failed state
// update or webhook dispatch aborts the run. A push whose commits
// reference no resolvable tickets is a successful no-op.
func (p *Pipeline) Run(ctx context.Context, repo string, ev *event.PushEvent) error {
	ids := ticket.Extract(ev.Commits)
	issues := p.resolve(ctx, ids)
	if len(issues) == 0 {
		p.log.Info("no tickets found in commit messages, skipping webhook",
			"commits", len(ev.Commits))
		return nil
	}

	if err := p.transition(ctx, issues); err != nil {
		return err
	}

	summaries := p.summarize(ctx, issues)
	return p.notify(ctx, repo, ev.CompareURL, summaries)
}

// resolve fetches each ticket identifier concurrently. Failures are
// isolated per identifier: unknown or erroring tickets are logged and
// dropped, never aborting the batch. The result preserves extraction
// order minus the drops. Identifiers are intentionally not
// deduplicated; a ticket referenced by two commits is resolved twice.
func (p *Pipeline) resolve(ctx context.Context, ids []string) []*linear.Issue {
	results := make([]*linear.Issue, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			issue, err := p.tracker.Issue(ctx, id)
			switch {
			case errors.Is(err, linear.ErrNotFound):
				p.log.Warn("unknown issue ID", "id", id)
			case err != nil:
				p.log.Warn("issue lookup failed", "id", id, "error", err)
			default:
				results[i] = issue
			}
		}(i, id)
	}
	wg.Wait()

	issues := make([]*linear.Issue, 0, len(ids))
	for _, issue := range results {
		if issue != nil {
			issues = append(issues, issue)
		}
	}
	return issues
}

// transition moves each issue into its team's Done state. Missing teams
// and missing Done states are logged and skipped: the issue still shows
// up in the notification. A rejected update aborts the run — silently
// losing the primary side effect would be worse than a loud failure.
func (p *Pipeline) transition(ctx context.Context, issues []*linear.Issue) error {
	for _, issue := range issues {
		team, err := p.tracker.Team(ctx, issue.ID)
		if err != nil {
			p.log.Warn("team lookup failed", "issue", issue.Identifier, "error", err)
			continue
		}
		if team == nil {
			p.log.Warn("failed to find team for issue", "issue", issue.Identifier)
			continue
		}

		states, err := p.tracker.States(ctx, team.ID, doneStateName)
		if err != nil {
			p.log.Warn("state lookup failed", "team", team.Name, "error", err)
			continue
		}
		if len(states) == 0 {
			p.log.Warn("failed to find done state for team", "team", team.Name)
			continue
		}

		if err := p.tracker.UpdateIssueState(ctx, issue.ID, states[0].ID); err != nil {
			return fmt.Errorf("transition %s to done: %w", issue.Identifier, err)
		}
		p.log.Debug("issue transitioned", "issue", issue.Identifier, "state", states[0].Name)
	}
	return nil
}

// summarize builds one Summary per issue, fetching assignee and labels
// concurrently. Either fetch failing resolves to absent/empty rather
// than failing the run. Output order matches the input order.
func (p *Pipeline) summarize(ctx context.Context, issues []*linear.Issue) []Summary {
	summaries := make([]Summary, len(issues))

	var wg sync.WaitGroup
	for i, issue := range issues {
		wg.Add(1)
		go func(i int, issue *linear.Issue) {
			defer wg.Done()
			summaries[i] = p.buildSummary(ctx, issue)
		}(i, issue)
	}
	wg.Wait()

	return summaries
}

func (p *Pipeline) buildSummary(ctx context.Context, issue *linear.Issue) Summary {
	var (
		wg       sync.WaitGroup
		assignee *linear.User
		labels   []linear.Label
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		assignee, err = p.tracker.Assignee(ctx, issue.ID)
		if err != nil {
			p.log.Warn("assignee lookup failed", "issue", issue.Identifier, "error", err)
			assignee = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		labels, err = p.tracker.Labels(ctx, issue.ID)
		if err != nil {
			p.log.Warn("label lookup failed", "issue", issue.Identifier, "error", err)
			labels = nil
		}
	}()
	wg.Wait()

	s := Summary{
		Title: fmt.Sprintf("%s: %s", issue.Identifier, truncate(issue.Title, maxTitleLength)),
		URL:   issue.URL,
	}
	if assignee != nil {
		s.Assignee = assignee.Name
	}
	for _, l := range labels {
		s.Labels = append(s.Labels, l.Name)
	}
	return s
}

// notify assembles the summaries into a single embed and dispatches it.
// An empty summary list is a logged no-op; a failed POST propagates.
func (p *Pipeline) notify(ctx context.Context, repo, compareURL string, summaries []Summary) error {
	if len(summaries) == 0 {
		p.log.Info("no summaries to report, skipping webhook")
		return nil
	}

	fields := make([]discord.Field, 0, len(summaries))
	for _, s := range summaries {
		values := []string{fmt.Sprintf("[View](%s)", s.URL)}
		if s.Assignee != "" {
			values = append(values, s.Assignee)
		}
		if len(s.Labels) > 0 {
			values = append(values, strings.Join(s.Labels, ", "))
		}
		fields = append(fields, discord.Field{
			Name:  s.Title,
			Value: strings.Join(values, " • "),
		})
	}

	msg := &discord.Message{
		Embeds: []discord.Embed{{
			Title:     fmt.Sprintf("Update released in %s", repo),
			URL:       compareURL,
			Color:     discord.EmbedColor,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Fields:    fields,
		}},
	}

	if err := p.sink.Send(ctx, msg); err != nil {
		return fmt.Errorf("webhook dispatch: %w", err)
	}
	p.log.Info("release notification sent", "repo", repo, "tickets", len(summaries))
	return nil
}
