// Package storage defines the data-access interface consumed by the sync
// engine, plus the sentinel errors every backend maps its driver errors to.
// The uniqueness constraints enforced by backends on external ids are the
// sole concurrency guard for entity mappings: callers treat ErrConflict
// from a racing duplicate write as benign.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/workweave/workweave/internal/types"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation. For external-id
	// mappings this is recoverable: the existing mapping wins.
	ErrConflict = errors.New("conflict")
)

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict checks if an error is or wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// Storage is the relational data-access surface the sync engine depends on.
// Implementations: sqlite (production), memory (tests).
type Storage interface {
	// Integrations. UpsertIntegration creates or refreshes the single row
	// per (workspace, provider) pair and returns the stored config.
	UpsertIntegration(ctx context.Context, cfg *types.IntegrationConfig) (*types.IntegrationConfig, error)
	GetIntegration(ctx context.Context, workspaceID, provider string) (*types.IntegrationConfig, error)

	// External project mappings. CreateProjectMapping returns ErrConflict
	// when a mapping already exists for (integration, external project).
	CreateProjectMapping(ctx context.Context, m *types.ExternalProjectMapping) error
	GetProjectMapping(ctx context.Context, integrationID, externalProjectID string) (*types.ExternalProjectMapping, error)
	ListProjectMappings(ctx context.Context, integrationID string) ([]*types.ExternalProjectMapping, error)

	// Spaces and projects.
	GetSpace(ctx context.Context, id string) (*types.Space, error)
	CreateSpace(ctx context.Context, s *types.Space) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	CreateProject(ctx context.Context, p *types.Project) error
	UpdateProject(ctx context.Context, p *types.Project) error
	TouchProject(ctx context.Context, id string, at time.Time) error

	// Statuses. Bulk creates are atomic: a duplicate external id inside
	// CreateStatuses or CreateTasks rolls the whole batch back and
	// returns ErrConflict, so callers can safely retry item by item.
	CreateStatuses(ctx context.Context, statuses []*types.Status) error
	UpdateStatuses(ctx context.Context, statuses []*types.Status) error
	GetStatusByExternalID(ctx context.Context, externalID string) (*types.Status, error)
	ListStatusesBySpace(ctx context.Context, spaceID string) ([]*types.Status, error)
	ListExternalStatuses(ctx context.Context, spaceID string) ([]*types.Status, error)

	// Tasks.
	CreateTasks(ctx context.Context, tasks []*types.Task) error
	UpdateTask(ctx context.Context, t *types.Task) error
	UpdateTasks(ctx context.Context, tasks []*types.Task) error
	GetTaskByExternalID(ctx context.Context, externalID string) (*types.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]*types.Task, error)
	ListTasksBySpace(ctx context.Context, spaceID string) ([]*types.Task, error)
	ListExternalTasks(ctx context.Context, projectID string) ([]*types.Task, error)

	Close() error
}
