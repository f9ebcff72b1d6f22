// Package types defines the core data model shared across workweave:
// tasks, statuses, projects, spaces, and the external-tracker linkage
// fields (integration configs and entity mappings) used by the sync engine.
package types

import (
	"encoding/json"
	"time"
)

// Priority is the internal task priority enumeration.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// SyncStatus tracks whether a task has been pushed to an external tracker.
type SyncStatus string

const (
	SyncStatusUnsynced SyncStatus = "unsynced"
	SyncStatusSynced   SyncStatus = "synced"
)

// StatusColor is the internal status color palette.
type StatusColor string

const (
	ColorGray   StatusColor = "gray"
	ColorBlue   StatusColor = "blue"
	ColorGreen  StatusColor = "green"
	ColorYellow StatusColor = "yellow"
	ColorRed    StatusColor = "red"
	ColorPurple StatusColor = "purple"
	ColorPink   StatusColor = "pink"
	ColorOrange StatusColor = "orange"
	ColorIndigo StatusColor = "indigo"
	ColorTeal   StatusColor = "teal"
)

// StatusScope says what level of the hierarchy a status belongs to.
type StatusScope string

const (
	ScopeSpace   StatusScope = "space"
	ScopeProject StatusScope = "project"
	ScopeSprint  StatusScope = "sprint"
)

// ProviderJira is the only tracker vendor currently modeled. Integration
// rows carry a provider column so additional vendors slot in without a
// schema change.
const ProviderJira = "jira"

// Task is a unit of work inside a project. Tasks imported from or exported
// to an external tracker carry an ExternalID plus vendor metadata; purely
// local tasks leave both unset.
type Task struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	StatusID     string            `json:"status_id"`
	Priority     Priority          `json:"priority"`
	ParentTaskID *string           `json:"parent_task_id,omitempty"`
	ProjectID    string            `json:"project_id"`
	SpaceID      string            `json:"space_id"`
	ExternalID   *string           `json:"external_id,omitempty"`
	ExternalData *TaskExternalMeta `json:"external_data,omitempty"`
	SyncStatus   SyncStatus        `json:"sync_status"`
	LastSyncedAt *time.Time        `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Status is a workflow state a task can be in. Vendor-origin statuses keep
// their external id so re-imports update in place instead of duplicating.
type Status struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Color        StatusColor         `json:"color"`
	Scope        StatusScope         `json:"scope"`
	SpaceID      *string             `json:"space_id,omitempty"`
	ProjectID    *string             `json:"project_id,omitempty"`
	Position     int                 `json:"position"`
	ExternalID   *string             `json:"external_id,omitempty"`
	ExternalData *StatusExternalMeta `json:"external_data,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Project groups tasks inside a space.
type Project struct {
	ID           string               `json:"id"`
	SpaceID      string               `json:"space_id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	ExternalID   *string              `json:"external_id,omitempty"`
	ExternalKey  *string              `json:"external_key,omitempty"`
	ExternalData *ProjectExternalMeta `json:"external_data,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// IsExternallyLinked reports whether the project is bound to an external
// tracker project. Sync requires this.
func (p *Project) IsExternallyLinked() bool {
	return p.ExternalID != nil && *p.ExternalID != ""
}

// Space is a container for projects and space-scoped statuses.
type Space struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IntegrationConfig is the configured connection between one workspace and
// one external tracker account. Exactly one row per (workspace, provider);
// writes are last-writer-wins upserts.
type IntegrationConfig struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Provider    string    `json:"provider"`
	Domain      string    `json:"domain"`
	Email       string    `json:"email"`
	APIToken    string    `json:"api_token"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExternalProjectMapping associates an external tracker project with the
// local space (and optionally project) it was imported into. Mapping rows
// are append-only: sync refreshes entity content, never deletes mappings.
type ExternalProjectMapping struct {
	ID                string               `json:"id"`
	IntegrationID     string               `json:"integration_id"`
	ExternalProjectID string               `json:"external_project_id"`
	SpaceID           string               `json:"space_id"`
	ProjectID         *string              `json:"project_id,omitempty"`
	Meta              *ProjectExternalMeta `json:"meta,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

// TaskExternalMeta is the vendor metadata carried by an externally-linked
// task. Serialized to JSON only at the storage boundary.
type TaskExternalMeta struct {
	Source    string `json:"source"` // vendor tag, e.g. "jira"
	Key       string `json:"key,omitempty"`
	URL       string `json:"url,omitempty"`
	IssueType string `json:"issue_type,omitempty"`
	Project   string `json:"project,omitempty"`
}

// ProjectExternalMeta is the denormalized vendor metadata for an external
// project: enough to self-heal a missing mapping row.
type ProjectExternalMeta struct {
	Source      string `json:"source"`
	Key         string `json:"key,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Lead        string `json:"lead,omitempty"`
	URL         string `json:"url,omitempty"`
}

// StatusExternalMeta is the vendor metadata for a vendor-origin status.
type StatusExternalMeta struct {
	Source   string `json:"source"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"` // vendor color name before translation
}

// MarshalMeta serializes external metadata for storage. A nil meta
// marshals to an empty string so the column stays NULL-ish and cheap.
func MarshalMeta(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// UnmarshalMeta deserializes external metadata from storage into dst.
// Empty input leaves dst untouched and returns false.
func UnmarshalMeta(data string, dst interface{}) bool {
	if data == "" || data == "null" {
		return false
	}
	return json.Unmarshal([]byte(data), dst) == nil
}
