package jira

import "encoding/json"

// Project represents a Jira project from the REST API.
type Project struct {
	ID          string     `json:"id"`
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Self        string     `json:"self"`
	Lead        *UserField `json:"lead"`
}

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the fields of a Jira issue.
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"` // ADF (Atlassian Document Format) or plain text
	Status      *StatusField    `json:"status"`
	Priority    *PriorityField  `json:"priority"`
	IssueType   *IssueTypeField `json:"issuetype"`
	Project     *ProjectField   `json:"project"`
	Parent      *ParentField    `json:"parent"`
	Assignee    *UserField      `json:"assignee"`
	Labels      []string        `json:"labels"`
	Created     string          `json:"created"`
	Updated     string          `json:"updated"`
}

// StatusField represents a Jira issue status.
type StatusField struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	StatusCategory *StatusCategory `json:"statusCategory"`
}

// StatusCategory carries the category and color name for a status.
type StatusCategory struct {
	ID        int    `json:"id"`
	Key       string `json:"key"`
	ColorName string `json:"colorName"`
	Name      string `json:"name"`
}

// PriorityField represents a Jira issue priority.
type PriorityField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueTypeField represents a Jira issue type.
type IssueTypeField struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// ProjectField represents the project reference on an issue.
type ProjectField struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ParentField references a parent issue (sub-task relationship).
type ParentField struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// UserField represents a Jira user.
type UserField struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Transition is one available workflow transition for an issue.
type Transition struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	To   *StatusField `json:"to"`
}

// SearchResult represents a Jira JQL search response.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// issueTypeStatuses is the per-issue-type status list returned by
// GET /project/{key}/statuses.
type issueTypeStatuses struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Subtask  bool          `json:"subtask"`
	Statuses []StatusField `json:"statuses"`
}

// CreatedProject is the response of POST /project.
type CreatedProject struct {
	ID   json.Number `json:"id"`
	Key  string      `json:"key"`
	Self string      `json:"self"`
}

// CreatedIssue is the response of POST /issue.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// ProjectSpec describes a project to create in Jira.
type ProjectSpec struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	LeadAccountID  string `json:"leadAccountId,omitempty"`
	ProjectTypeKey string `json:"projectTypeKey"`
}

// ParentID extracts the parent issue id, empty when the issue has none.
func (i *Issue) ParentID() string {
	if i.Fields.Parent == nil {
		return ""
	}
	return i.Fields.Parent.ID
}
