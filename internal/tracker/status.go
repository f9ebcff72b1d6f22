package tracker

import (
	"context"
	"fmt"

	"github.com/workweave/workweave/internal/storage"
	"github.com/workweave/workweave/internal/types"
)

// Status reports the stored integration and the sync state of every
// mapped project in the space. It reads only the local store; the
// tracker is never contacted.
func (e *Engine) Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	space, err := e.Store.GetSpace(ctx, opts.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("load space %s: %w", opts.SpaceID, err)
	}

	result := &StatusResult{}

	local, err := e.Store.ListStatusesBySpace(ctx, space.ID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	result.LocalStatuses = len(local)

	linked, err := e.Store.ListExternalStatuses(ctx, space.ID)
	if err != nil {
		return nil, fmt.Errorf("list external statuses: %w", err)
	}
	result.LinkedStatuses = len(linked)

	integration, err := e.Store.GetIntegration(ctx, space.WorkspaceID, types.ProviderJira)
	if storage.IsNotFound(err) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load integration: %w", err)
	}
	result.Integration = &IntegrationInfo{
		Domain: integration.Domain,
		Email:  integration.Email,
		Active: integration.Active,
	}

	mappings, err := e.Store.ListProjectMappings(ctx, integration.ID)
	if err != nil {
		return nil, fmt.Errorf("list project mappings: %w", err)
	}
	for _, m := range mappings {
		if m.SpaceID != space.ID {
			continue
		}
		state, err := e.projectState(ctx, m)
		if err != nil {
			return nil, err
		}
		result.Projects = append(result.Projects, *state)
	}
	return result, nil
}

// projectState resolves one mapping to its local project, its linked
// task count and the most recent task sync time. A mapping without a
// local project (export without a project scope) reports external
// identity only.
func (e *Engine) projectState(ctx context.Context, m *types.ExternalProjectMapping) (*ProjectSyncState, error) {
	state := &ProjectSyncState{ExternalID: m.ExternalProjectID}
	if m.Meta != nil {
		state.ExternalKey = m.Meta.Key
	}
	if m.ProjectID == nil {
		return state, nil
	}

	project, err := e.Store.GetProject(ctx, *m.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", *m.ProjectID, err)
	}
	state.ProjectID = project.ID
	state.Name = project.Name
	if project.ExternalKey != nil {
		state.ExternalKey = *project.ExternalKey
	}

	tasks, err := e.Store.ListExternalTasks(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list external tasks: %w", err)
	}
	state.LinkedTasks = len(tasks)
	for _, task := range tasks {
		if task.LastSyncedAt == nil {
			continue
		}
		if state.LastSyncedAt == nil || task.LastSyncedAt.After(*state.LastSyncedAt) {
			at := *task.LastSyncedAt
			state.LastSyncedAt = &at
		}
	}
	return state, nil
}
