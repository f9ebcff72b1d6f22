// Package jira provides HTTP access to the Jira Cloud REST API plus the
// pure conversion helpers (ADF documents, status colors, priorities) used
// by the sync engine.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client provides authenticated HTTP access to a Jira Cloud instance.
// All calls use HTTP Basic auth (base64 of "email:token"). The client does
// not retry mutations; idempotent GETs are retried with exponential backoff.
type Client struct {
	BaseURL    string
	Email      string
	APIToken   string
	HTTPClient *http.Client
}

// NewClient creates a client for the given Jira domain. The domain may be
// a bare host ("acme.atlassian.net") or a full URL.
func NewClient(domain, email, apiToken string) *Client {
	base := strings.TrimSuffix(domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &Client{
		BaseURL:  base,
		Email:    email,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetCurrentUser fetches the authenticated user. Used both as a credential
// check and to resolve the lead account for project creation.
func (c *Client) GetCurrentUser(ctx context.Context) (*UserField, error) {
	body, err := c.get(ctx, "/rest/api/3/myself")
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	var user UserField
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("parse myself response: %w", err)
	}
	return &user, nil
}

// GetProjects lists all projects visible to the authenticated user.
func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	body, err := c.get(ctx, "/rest/api/3/project?expand=description,lead")
	if err != nil {
		return nil, fmt.Errorf("get projects: %w", err)
	}
	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("parse projects response: %w", err)
	}
	return projects, nil
}

// GetProject fetches a single project by key.
func (c *Client) GetProject(ctx context.Context, key string) (*Project, error) {
	body, err := c.get(ctx, "/rest/api/3/project/"+url.PathEscape(key))
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", key, err)
	}
	var project Project
	if err := json.Unmarshal(body, &project); err != nil {
		return nil, fmt.Errorf("parse project response: %w", err)
	}
	return &project, nil
}

// GetProjectIssues fetches up to maxResults issues for a project, newest
// first. This is a single bounded fetch: projects with more issues than the
// cap are truncated, a known limitation of the import path.
func (c *Client) GetProjectIssues(ctx context.Context, key string, maxResults int) ([]Issue, error) {
	if maxResults <= 0 {
		maxResults = 100
	}
	params := url.Values{
		"jql":        {fmt.Sprintf("project = %q ORDER BY created DESC", key)},
		"maxResults": {fmt.Sprintf("%d", maxResults)},
		"fields":     {"summary,description,status,priority,issuetype,project,parent,assignee,labels,created,updated"},
	}
	body, err := c.get(ctx, "/rest/api/3/search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("get issues for %s: %w", key, err)
	}
	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return result.Issues, nil
}

// GetProjectStatuses fetches the statuses of a project, flattening the
// per-issue-type lists and de-duplicating by status id.
func (c *Client) GetProjectStatuses(ctx context.Context, key string) ([]StatusField, error) {
	body, err := c.get(ctx, "/rest/api/3/project/"+url.PathEscape(key)+"/statuses")
	if err != nil {
		return nil, fmt.Errorf("get statuses for %s: %w", key, err)
	}
	var perType []issueTypeStatuses
	if err := json.Unmarshal(body, &perType); err != nil {
		return nil, fmt.Errorf("parse statuses response: %w", err)
	}

	seen := make(map[string]bool)
	var statuses []StatusField
	for _, it := range perType {
		for _, st := range it.Statuses {
			if seen[st.ID] {
				continue
			}
			seen[st.ID] = true
			statuses = append(statuses, st)
		}
	}
	return statuses, nil
}

// GetProjectIssueTypes fetches the issue types available in a project.
func (c *Client) GetProjectIssueTypes(ctx context.Context, key string) ([]IssueTypeField, error) {
	body, err := c.get(ctx, "/rest/api/3/project/"+url.PathEscape(key)+"/statuses")
	if err != nil {
		return nil, fmt.Errorf("get issue types for %s: %w", key, err)
	}
	var perType []issueTypeStatuses
	if err := json.Unmarshal(body, &perType); err != nil {
		return nil, fmt.Errorf("parse issue types response: %w", err)
	}
	result := make([]IssueTypeField, 0, len(perType))
	for _, it := range perType {
		result = append(result, IssueTypeField{ID: it.ID, Name: it.Name, Subtask: it.Subtask})
	}
	return result, nil
}

// GetPriorities fetches the global priority list.
func (c *Client) GetPriorities(ctx context.Context) ([]PriorityField, error) {
	body, err := c.get(ctx, "/rest/api/3/priority")
	if err != nil {
		return nil, fmt.Errorf("get priorities: %w", err)
	}
	var priorities []PriorityField
	if err := json.Unmarshal(body, &priorities); err != nil {
		return nil, fmt.Errorf("parse priorities response: %w", err)
	}
	return priorities, nil
}

// CreateProject creates a new project in Jira.
func (c *Client) CreateProject(ctx context.Context, spec ProjectSpec) (*CreatedProject, error) {
	if spec.ProjectTypeKey == "" {
		spec.ProjectTypeKey = "software"
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal project spec: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/rest/api/3/project", data)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	var created CreatedProject
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse create project response: %w", err)
	}
	return &created, nil
}

// CreateIssue creates a new issue. fields follows the Jira "fields" payload
// shape and must include project, summary and issuetype.
func (c *Client) CreateIssue(ctx context.Context, projectKey string, fields map[string]interface{}) (*CreatedIssue, error) {
	if _, ok := fields["project"]; !ok {
		fields["project"] = map[string]string{"key": projectKey}
	}
	data, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("marshal create request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/rest/api/3/issue", data)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	var created CreatedIssue
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse create issue response: %w", err)
	}
	return &created, nil
}

// UpdateIssue updates an existing issue by key.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]interface{}) error {
	data, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return fmt.Errorf("marshal update request: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPut, "/rest/api/3/issue/"+url.PathEscape(key), data); err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}
	return nil
}

// GetIssueTransitions fetches the available workflow transitions for an issue.
func (c *Client) GetIssueTransitions(ctx context.Context, key string) ([]Transition, error) {
	body, err := c.get(ctx, "/rest/api/3/issue/"+url.PathEscape(key)+"/transitions")
	if err != nil {
		return nil, fmt.Errorf("get transitions for %s: %w", key, err)
	}
	var result struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse transitions response: %w", err)
	}
	return result.Transitions, nil
}

// ApplyTransition moves an issue through the workflow transition with the
// given id.
func (c *Client) ApplyTransition(ctx context.Context, key, transitionID string) error {
	data, err := json.Marshal(map[string]interface{}{
		"transition": map[string]string{"id": transitionID},
	})
	if err != nil {
		return fmt.Errorf("marshal transition request: %w", err)
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/transitions"
	if _, err := c.do(ctx, http.MethodPost, path, data); err != nil {
		return fmt.Errorf("apply transition on %s: %w", key, err)
	}
	return nil
}

// get performs a GET with retry. 4xx responses are permanent; network
// errors and 5xx responses are retried with exponential backoff.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	op := func() error {
		b, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 15 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 2), ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// do executes one authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("jira domain not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.Email + ":" + c.APIToken))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "workweave-sync/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrConnection, err)
	}

	// PUT and transition POSTs return 204 No Content on success
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
