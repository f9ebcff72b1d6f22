package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/workweave/workweave/internal/jira"
	"github.com/workweave/workweave/internal/storage"
	"github.com/workweave/workweave/internal/types"
)

// Sync re-fetches an externally linked project and reconciles local
// statuses and tasks against the tracker: existing rows are updated in
// place, new external issues become new tasks. Credentials come from the
// stored integration of the project's workspace.
func (e *Engine) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	project, err := e.Store.GetProject(ctx, opts.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", opts.ProjectID, err)
	}
	if !project.IsExternallyLinked() {
		return nil, ErrProjectNotLinked
	}
	space, err := e.Store.GetSpace(ctx, project.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("load space %s: %w", project.SpaceID, err)
	}

	integration, err := e.Store.GetIntegration(ctx, space.WorkspaceID, types.ProviderJira)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrMissingCredentials
		}
		return nil, fmt.Errorf("load integration: %w", err)
	}
	creds := Credentials{Domain: integration.Domain, Email: integration.Email, APIToken: integration.APIToken}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	client := e.client(creds)
	reg := NewRegistry(e.Store, integration.ID)

	// A project linked by an older export may predate mapping rows;
	// recreate the mapping from the project's own metadata.
	mapping, err := reg.LookupProject(ctx, *project.ExternalID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		if _, err := reg.RegisterProject(ctx, &types.ExternalProjectMapping{
			ExternalProjectID: *project.ExternalID,
			SpaceID:           project.SpaceID,
			ProjectID:         &project.ID,
			Meta:              project.ExternalData,
		}); err != nil {
			return nil, fmt.Errorf("restore project mapping: %w", err)
		}
	}

	key := externalKey(project)
	if key == "" {
		return nil, ErrProjectNotLinked
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	statuses, err := client.GetProjectStatuses(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch statuses for %s: %w", key, err)
	}
	issues, err := client.GetProjectIssues(ctx, key, maxResults)
	if err != nil {
		return nil, fmt.Errorf("fetch issues for %s: %w", key, err)
	}

	result := &SyncResult{}
	statusIDs, err := e.reconcileStatuses(ctx, reg, statuses, project.SpaceID, result)
	if err != nil {
		return nil, err
	}
	if err := e.reconcileTasks(ctx, reg, issues, project, statusIDs, result); err != nil {
		return nil, err
	}

	if err := e.Store.TouchProject(ctx, project.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("touch project %s: %w", project.ID, err)
	}

	record(ctx, "sync", result.TasksCreated, result.TasksUpdated, 0)
	summary := fmt.Sprintf("synced %s: %d tasks updated, %d created", key, result.TasksUpdated, result.TasksCreated)
	e.msg("%s", summary)
	result.Events = append(result.Events, SyncEvent{
		Type:        EventSyncCompleted,
		WorkspaceID: space.WorkspaceID,
		SpaceID:     project.SpaceID,
		ProjectID:   project.ID,
		Summary:     summary,
		At:          time.Now().UTC(),
	})
	return result, nil
}

// reconcileStatuses updates the locally mapped statuses in place and
// creates the ones the tracker grew since the last run. Returns external
// id -> local id covering both.
func (e *Engine) reconcileStatuses(ctx context.Context, reg *Registry, fetched []jira.StatusField, spaceID string, result *SyncResult) (map[string]string, error) {
	ids := make(map[string]string, len(fetched))
	var updates, inserts []*types.Status
	for i := range fetched {
		st := &fetched[i]
		local, err := reg.LookupStatus(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		if local != nil {
			applyStatus(local, st)
			updates = append(updates, local)
			ids[st.ID] = local.ID
			continue
		}
		inserts = append(inserts, statusFromJira(st, spaceID))
	}

	if len(updates) > 0 {
		if err := e.Store.UpdateStatuses(ctx, updates); err != nil {
			return nil, fmt.Errorf("update statuses: %w", err)
		}
		result.StatusesUpdated += len(updates)
	}
	created, err := e.insertStatuses(ctx, inserts)
	if err != nil {
		return nil, fmt.Errorf("create statuses: %w", err)
	}
	result.StatusesCreated += created
	for _, st := range inserts {
		if st.ExternalID != nil && st.ID != "" {
			ids[*st.ExternalID] = st.ID
		}
	}
	return ids, nil
}

// reconcileTasks refreshes mapped tasks from their issues and inserts the
// unmapped ones in dependency order. Issues whose status cannot be
// resolved are skipped with a warning.
func (e *Engine) reconcileTasks(ctx context.Context, reg *Registry, issues []jira.Issue, project *types.Project, statusIDs map[string]string, result *SyncResult) error {
	var updates []*types.Task
	var fresh []jira.Issue
	for i := range issues {
		issue := &issues[i]
		local, err := reg.LookupTask(ctx, issue.ID)
		if err != nil {
			return err
		}
		if local == nil {
			fresh = append(fresh, *issue)
			continue
		}
		statusID, ok := e.resolveStatus(issue, statusIDs, &result.Warnings)
		if !ok {
			continue
		}
		applyIssue(local, issue, statusID)
		updates = append(updates, local)
	}

	if len(updates) > 0 {
		if err := e.Store.UpdateTasks(ctx, updates); err != nil {
			return fmt.Errorf("update tasks: %w", err)
		}
		result.TasksUpdated += len(updates)
	}

	convert := func(issue *jira.Issue, parentID *string) (*types.Task, bool) {
		statusID, ok := e.resolveStatus(issue, statusIDs, &result.Warnings)
		if !ok {
			return nil, false
		}
		return taskFromIssue(issue, project.ID, project.SpaceID, statusID, parentID), true
	}
	created, _, warnings, err := e.insertTaskBatch(ctx, reg, fresh, convert)
	result.TasksCreated += created
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return fmt.Errorf("create tasks: %w", err)
	}
	return nil
}

// externalKey returns the tracker-side project key, falling back to the
// denormalized metadata when the column is empty.
func externalKey(project *types.Project) string {
	if project.ExternalKey != nil && *project.ExternalKey != "" {
		return *project.ExternalKey
	}
	if project.ExternalData != nil {
		return project.ExternalData.Key
	}
	return ""
}
