// Package tracker implements the external issue-tracker synchronization
// engine: import, export, and incremental sync between the local workspace
// store and a Jira-compatible tracker.
//
// The engine composes a thin REST client, pure taxonomy/document
// converters, an identity registry backed by storage uniqueness
// constraints, and a two-pass dependency resolver for parent/child issue
// batches.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/workweave/workweave/internal/jira"
)

// Credentials connect one workspace to one Jira account.
type Credentials struct {
	Domain   string
	Email    string
	APIToken string
}

// Client is the tracker REST surface the engine depends on. *jira.Client
// implements it; tests substitute a fake.
type Client interface {
	GetCurrentUser(ctx context.Context) (*jira.UserField, error)
	GetProjects(ctx context.Context) ([]jira.Project, error)
	GetProject(ctx context.Context, key string) (*jira.Project, error)
	GetProjectIssues(ctx context.Context, key string, maxResults int) ([]jira.Issue, error)
	GetProjectStatuses(ctx context.Context, key string) ([]jira.StatusField, error)
	GetProjectIssueTypes(ctx context.Context, key string) ([]jira.IssueTypeField, error)
	GetPriorities(ctx context.Context) ([]jira.PriorityField, error)
	CreateProject(ctx context.Context, spec jira.ProjectSpec) (*jira.CreatedProject, error)
	CreateIssue(ctx context.Context, projectKey string, fields map[string]interface{}) (*jira.CreatedIssue, error)
	UpdateIssue(ctx context.Context, key string, fields map[string]interface{}) error
	GetIssueTransitions(ctx context.Context, key string) ([]jira.Transition, error)
	ApplyTransition(ctx context.Context, key, transitionID string) error
}

// ImportOptions selects what to import and where to put it.
type ImportOptions struct {
	WorkspaceID string
	SpaceID     string
	ProjectKeys []string
	// MaxResults bounds the single issue fetch per project (default 100).
	// Projects with more issues are truncated; import has no cursoring.
	MaxResults int
}

// ImportResult reports what one import run created. Never persisted.
type ImportResult struct {
	ProjectsCreated int         `json:"projects_created"`
	TasksCreated    int         `json:"tasks_created"`
	StatusesCreated int         `json:"statuses_created"`
	TasksSkipped    int         `json:"tasks_skipped"`
	Warnings        []string    `json:"warnings,omitempty"`
	Events          []SyncEvent `json:"-"`
}

// ExportOptions selects which local tasks to push and to which external
// project.
type ExportOptions struct {
	WorkspaceID string
	SpaceID     string
	// ProjectID scopes the export to one local project; empty exports the
	// whole space.
	ProjectID string
	// ProjectKey is the external project key, existing or to be created.
	ProjectKey  string
	ProjectName string
	// CreateNewProject creates ProjectKey in the tracker before pushing.
	CreateNewProject bool
	// StatusMapping maps local status ids to external status names. Tasks
	// with an unmapped status land in the project's first available status.
	StatusMapping map[string]string
}

// ExportedTask identifies one successfully pushed task.
type ExportedTask struct {
	TaskID      string `json:"task_id"`
	ExternalID  string `json:"external_id"`
	ExternalKey string `json:"external_key"`
	URL         string `json:"url,omitempty"`
}

// ExportResult reports what one export run pushed. Partial success is
// success: failures are counted, not fatal.
type ExportResult struct {
	ExportedCount int            `json:"exported_count"`
	FailedCount   int            `json:"failed_count"`
	TotalCount    int            `json:"total_count"`
	ProjectKey    string         `json:"project_key"`
	ExportedTasks []ExportedTask `json:"exported_tasks"`
	Warnings      []string       `json:"warnings,omitempty"`
	Events        []SyncEvent    `json:"-"`
}

// SyncOptions selects the externally-linked project to reconcile.
type SyncOptions struct {
	ProjectID string
	// MaxResults bounds the issue fetch (default 100).
	MaxResults int
}

// SyncResult reports what one sync run reconciled.
type SyncResult struct {
	TasksUpdated    int         `json:"tasks_updated"`
	TasksCreated    int         `json:"tasks_created"`
	StatusesUpdated int         `json:"statuses_updated"`
	StatusesCreated int         `json:"statuses_created"`
	Warnings        []string    `json:"warnings,omitempty"`
	Events          []SyncEvent `json:"-"`
}

// StatusOptions selects the space to report on.
type StatusOptions struct {
	SpaceID string
}

// IntegrationInfo is the stored tracker connection, API token omitted.
type IntegrationInfo struct {
	Domain string `json:"domain"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// ProjectSyncState summarizes one mapped external project.
type ProjectSyncState struct {
	ProjectID    string     `json:"project_id,omitempty"`
	Name         string     `json:"name,omitempty"`
	ExternalID   string     `json:"external_id"`
	ExternalKey  string     `json:"external_key,omitempty"`
	LinkedTasks  int        `json:"linked_tasks"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// StatusResult is a read-only snapshot of the stored integration and the
// sync state of every mapped project in the space.
type StatusResult struct {
	Integration    *IntegrationInfo   `json:"integration,omitempty"`
	Projects       []ProjectSyncState `json:"projects,omitempty"`
	LocalStatuses  int                `json:"local_statuses"`
	LinkedStatuses int                `json:"linked_statuses"`
}

// SyncEvent is an "operation completed" record returned to the caller.
// The engine performs no notification I/O itself; a dispatcher consumes
// these best-effort after the operation returns.
type SyncEvent struct {
	Type        string    `json:"type"` // import_completed, export_completed, sync_completed
	WorkspaceID string    `json:"workspace_id,omitempty"`
	SpaceID     string    `json:"space_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	Summary     string    `json:"summary"`
	At          time.Time `json:"at"`
}

// Event types emitted by the engine.
const (
	EventImportCompleted = "import_completed"
	EventExportCompleted = "export_completed"
	EventSyncCompleted   = "sync_completed"
)

// Validation and setup failures abort the whole operation with one of
// these, or with a *jira.APIError / jira.ErrConnection from the client.
var (
	ErrMissingCredentials = errors.New("tracker: domain, email and API token are required")
	ErrNoProjectsSelected = errors.New("tracker: no external projects selected")
	ErrNoTasksToExport    = errors.New("tracker: no tasks to export")
	ErrProjectNotLinked   = errors.New("tracker: project is not linked to an external tracker")

	// Project-creation failures, classified from the client's structured
	// error codes.
	ErrInvalidProjectLead = errors.New("tracker: external tracker rejected the project lead")
	ErrProjectKeyConflict = errors.New("tracker: project key is already in use")
	ErrPermissionDenied   = errors.New("tracker: missing permission to create projects")
)

// Validate checks that all credential fields are present.
func (c Credentials) Validate() error {
	if c.Domain == "" || c.Email == "" || c.APIToken == "" {
		return ErrMissingCredentials
	}
	return nil
}
