package tracker

import (
	"context"

	"github.com/workweave/workweave/internal/storage"
	"github.com/workweave/workweave/internal/types"
)

// Registry is the identity registry: the persistent external-id to
// internal-id mapping scoped to one integration. It holds no state of its
// own; the storage layer's uniqueness constraints are the concurrency
// guard, and a duplicate-key write from a race is reported as a benign
// "already registered" rather than an error.
type Registry struct {
	store         storage.Storage
	integrationID string
}

// NewRegistry creates a registry scoped to one integration.
func NewRegistry(store storage.Storage, integrationID string) *Registry {
	return &Registry{store: store, integrationID: integrationID}
}

// RegisterProject records an external-project mapping. Returns true when a
// new mapping was created, false when one already existed (the existing
// mapping wins, including under a racing duplicate write).
func (r *Registry) RegisterProject(ctx context.Context, m *types.ExternalProjectMapping) (bool, error) {
	m.IntegrationID = r.integrationID
	err := r.store.CreateProjectMapping(ctx, m)
	if err == nil {
		return true, nil
	}
	if storage.IsConflict(err) {
		return false, nil
	}
	return false, err
}

// LookupProject fetches the mapping for an external project id, nil when
// unmapped.
func (r *Registry) LookupProject(ctx context.Context, externalProjectID string) (*types.ExternalProjectMapping, error) {
	m, err := r.store.GetProjectMapping(ctx, r.integrationID, externalProjectID)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	return m, err
}

// LookupStatus fetches the local status mapped to an external status id,
// nil when unmapped.
func (r *Registry) LookupStatus(ctx context.Context, externalStatusID string) (*types.Status, error) {
	st, err := r.store.GetStatusByExternalID(ctx, externalStatusID)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	return st, err
}

// LookupTask fetches the local task mapped to an external issue id, nil
// when unmapped.
func (r *Registry) LookupTask(ctx context.Context, externalIssueID string) (*types.Task, error) {
	t, err := r.store.GetTaskByExternalID(ctx, externalIssueID)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	return t, err
}
