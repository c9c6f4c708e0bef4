package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is Linear's GraphQL API endpoint.
const DefaultEndpoint = "https://api.linear.app/graphql"

// HTTPClient implements Client against Linear's GraphQL API.
type HTTPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPClient creates a Linear client authenticated with a personal
// API key. endpoint may be empty to use the production API.
func NewHTTPClient(apiKey, endpoint string) *HTTPClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

const issueQuery = `query Issue($id: String!) {
  issue(id: $id) { id identifier title url }
}`

// Issue resolves a ticket identifier (e.g. "ENG-123") to an issue.
func (c *HTTPClient) Issue(ctx context.Context, key string) (*Issue, error) {
	var result struct {
		Issue *struct {
			ID         string `json:"id"`
			Identifier string `json:"identifier"`
			Title      string `json:"title"`
			URL        string `json:"url"`
		} `json:"issue"`
	}
	if err := c.do(ctx, issueQuery, map[string]any{"id": key}, &result); err != nil {
		return nil, err
	}
	if result.Issue == nil {
		return nil, ErrNotFound
	}
	return &Issue{
		ID:         result.Issue.ID,
		Identifier: result.Issue.Identifier,
		Title:      result.Issue.Title,
		URL:        result.Issue.URL,
	}, nil
}

const issueTeamQuery = `query IssueTeam($id: String!) {
  issue(id: $id) { team { id name } }
}`

// Team returns the issue's owning team, or nil when the issue has none.
func (c *HTTPClient) Team(ctx context.Context, issueID string) (*Team, error) {
	var result struct {
		Issue *struct {
			Team *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"team"`
		} `json:"issue"`
	}
	if err := c.do(ctx, issueTeamQuery, map[string]any{"id": issueID}, &result); err != nil {
		return nil, err
	}
	if result.Issue == nil {
		return nil, ErrNotFound
	}
	if result.Issue.Team == nil {
		return nil, nil
	}
	return &Team{ID: result.Issue.Team.ID, Name: result.Issue.Team.Name}, nil
}

const teamStatesQuery = `query TeamStates($id: String!, $name: String!) {
  team(id: $id) {
    states(filter: { name: { eqIgnoreCase: $name } }) {
      nodes { id name }
    }
  }
}`

// States lists the team's workflow states matching name
// case-insensitively, in the tracker's return order.
func (c *HTTPClient) States(ctx context.Context, teamID, name string) ([]WorkflowState, error) {
	var result struct {
		Team *struct {
			States struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}
	if err := c.do(ctx, teamStatesQuery, map[string]any{"id": teamID, "name": name}, &result); err != nil {
		return nil, err
	}
	if result.Team == nil {
		return nil, ErrNotFound
	}
	states := make([]WorkflowState, 0, len(result.Team.States.Nodes))
	for _, n := range result.Team.States.Nodes {
		states = append(states, WorkflowState{ID: n.ID, Name: n.Name})
	}
	return states, nil
}

const issueUpdateMutation = `mutation UpdateIssueState($id: String!, $stateId: String!) {
  issueUpdate(id: $id, input: { stateId: $stateId }) { success }
}`

// UpdateIssueState moves the issue into the given workflow state.
func (c *HTTPClient) UpdateIssueState(ctx context.Context, issueID, stateID string) error {
	var result struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}
	vars := map[string]any{"id": issueID, "stateId": stateID}
	if err := c.do(ctx, issueUpdateMutation, vars, &result); err != nil {
		return err
	}
	if !result.IssueUpdate.Success {
		return fmt.Errorf("issue update rejected for %s", issueID)
	}
	return nil
}

const issueAssigneeQuery = `query IssueAssignee($id: String!) {
  issue(id: $id) { assignee { name } }
}`

// Assignee returns the issue's assignee, or nil when unassigned.
func (c *HTTPClient) Assignee(ctx context.Context, issueID string) (*User, error) {
	var result struct {
		Issue *struct {
			Assignee *struct {
				Name string `json:"name"`
			} `json:"assignee"`
		} `json:"issue"`
	}
	if err := c.do(ctx, issueAssigneeQuery, map[string]any{"id": issueID}, &result); err != nil {
		return nil, err
	}
	if result.Issue == nil {
		return nil, ErrNotFound
	}
	if result.Issue.Assignee == nil {
		return nil, nil
	}
	return &User{Name: result.Issue.Assignee.Name}, nil
}

const issueLabelsQuery = `query IssueLabels($id: String!) {
  issue(id: $id) { labels { nodes { name } } }
}`

// Labels returns the issue's labels in the tracker's return order.
func (c *HTTPClient) Labels(ctx context.Context, issueID string) ([]Label, error) {
	var result struct {
		Issue *struct {
			Labels struct {
				Nodes []struct {
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"labels"`
		} `json:"issue"`
	}
	if err := c.do(ctx, issueLabelsQuery, map[string]any{"id": issueID}, &result); err != nil {
		return nil, err
	}
	if result.Issue == nil {
		return nil, ErrNotFound
	}
	labels := make([]Label, 0, len(result.Issue.Labels.Nodes))
	for _, n := range result.Issue.Labels.Nodes {
		labels = append(labels, Label{Name: n.Name})
	}
	return labels, nil
}

// graphQLError is one entry of a GraphQL response's errors array.
type graphQLError struct {
	Message string `json:"message"`
}

// do executes one GraphQL request and decodes the data object into out.
func (c *HTTPClient) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Linear API error: %d - %s", resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		// Linear reports unknown identifiers as an "Entity not found"
		// error with a null data object.
		if strings.Contains(strings.ToLower(envelope.Errors[0].Message), "not found") {
			return ErrNotFound
		}
		return fmt.Errorf("Linear API error: %s", envelope.Errors[0].Message)
	}

	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
