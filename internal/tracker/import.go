package tracker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/workweave/workweave/internal/jira"
	"github.com/workweave/workweave/internal/types"
)

const defaultMaxResults = 100

// fetchConcurrency bounds parallel project fetches during import.
const fetchConcurrency = 4

// projectFetch is one project's fetched state. err marks the whole
// project as failed; the other projects still import.
type projectFetch struct {
	key      string
	issues   []jira.Issue
	statuses []jira.StatusField
	err      error
}

// Import pulls the selected external projects into the workspace: one
// local project per external project, space-scoped statuses, and tasks
// with parent links resolved. Re-running an import is a no-op for
// everything already mapped; only new issues are created.
func (e *Engine) Import(ctx context.Context, creds Credentials, opts ImportOptions) (*ImportResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if len(opts.ProjectKeys) == 0 {
		return nil, ErrNoProjectsSelected
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	client := e.client(creds)
	if _, err := client.GetCurrentUser(ctx); err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if _, err := e.Store.GetSpace(ctx, opts.SpaceID); err != nil {
		return nil, fmt.Errorf("load space %s: %w", opts.SpaceID, err)
	}
	integration, err := e.upsertIntegration(ctx, opts.WorkspaceID, creds)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry(e.Store, integration.ID)

	remote, err := client.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list external projects: %w", err)
	}
	byKey := make(map[string]*jira.Project, len(remote))
	for i := range remote {
		byKey[remote[i].Key] = &remote[i]
	}

	// Fetch issues and statuses for every selected project up front.
	// Failures stay in their slot so one bad project cannot sink the rest.
	fetches := make([]projectFetch, len(opts.ProjectKeys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, key := range opts.ProjectKeys {
		i, key := i, key
		fetches[i].key = key
		if _, ok := byKey[key]; !ok {
			fetches[i].err = fmt.Errorf("project %s not found in tracker", key)
			continue
		}
		g.Go(func() error {
			pg, pctx := errgroup.WithContext(gctx)
			pg.Go(func() error {
				issues, err := client.GetProjectIssues(pctx, key, maxResults)
				if err != nil {
					return fmt.Errorf("fetch issues for %s: %w", key, err)
				}
				fetches[i].issues = issues
				return nil
			})
			pg.Go(func() error {
				statuses, err := client.GetProjectStatuses(pctx, key)
				if err != nil {
					return fmt.Errorf("fetch statuses for %s: %w", key, err)
				}
				fetches[i].statuses = statuses
				return nil
			})
			fetches[i].err = pg.Wait()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i := range fetches {
		fetch := &fetches[i]
		if fetch.err != nil {
			e.warn(&result.Warnings, "skipping project %s: %v", fetch.key, fetch.err)
			continue
		}
		if err := e.importProject(ctx, reg, byKey[fetch.key], fetch, opts, result); err != nil {
			return nil, err
		}
	}

	record(ctx, "import", result.TasksCreated, 0, result.TasksSkipped)
	summary := fmt.Sprintf("imported %d tasks and %d statuses across %d projects",
		result.TasksCreated, result.StatusesCreated, len(opts.ProjectKeys))
	e.msg("%s", summary)
	result.Events = append(result.Events, SyncEvent{
		Type:        EventImportCompleted,
		WorkspaceID: opts.WorkspaceID,
		SpaceID:     opts.SpaceID,
		Summary:     summary,
		At:          time.Now().UTC(),
	})
	return result, nil
}

// importProject imports one fetched project: local project row, statuses,
// then tasks in dependency order. Storage write failures abort the run.
func (e *Engine) importProject(ctx context.Context, reg *Registry, remote *jira.Project, fetch *projectFetch, opts ImportOptions, result *ImportResult) error {
	localProjectID, created, err := e.ensureLocalProject(ctx, reg, remote, opts.SpaceID)
	if err != nil {
		return fmt.Errorf("project %s: %w", remote.Key, err)
	}
	if created {
		result.ProjectsCreated++
	}

	statusIDs, n, err := e.ensureStatuses(ctx, reg, fetch.statuses, opts.SpaceID)
	if err != nil {
		return fmt.Errorf("project %s statuses: %w", remote.Key, err)
	}
	result.StatusesCreated += n

	convert := func(issue *jira.Issue, parentID *string) (*types.Task, bool) {
		statusID, ok := e.resolveStatus(issue, statusIDs, &result.Warnings)
		if !ok {
			return nil, false
		}
		return taskFromIssue(issue, localProjectID, opts.SpaceID, statusID, parentID), true
	}
	created2, skipped, warnings, err := e.insertTaskBatch(ctx, reg, fetch.issues, convert)
	result.TasksCreated += created2
	result.TasksSkipped += skipped
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return fmt.Errorf("project %s tasks: %w", remote.Key, err)
	}

	e.msg("project %s: %d tasks imported, %d skipped", remote.Key, created2, skipped)
	return nil
}

// ensureLocalProject returns the local project id mapped to the external
// project, creating the project and its mapping on first import.
func (e *Engine) ensureLocalProject(ctx context.Context, reg *Registry, remote *jira.Project, spaceID string) (string, bool, error) {
	mapping, err := reg.LookupProject(ctx, remote.ID)
	if err != nil {
		return "", false, err
	}
	if mapping != nil && mapping.ProjectID != nil {
		return *mapping.ProjectID, false, nil
	}

	extID := remote.ID
	extKey := remote.Key
	project := &types.Project{
		SpaceID:      spaceID,
		Name:         remote.Name,
		Description:  remote.Description,
		ExternalID:   &extID,
		ExternalKey:  &extKey,
		ExternalData: projectMeta(remote),
	}
	if err := e.Store.CreateProject(ctx, project); err != nil {
		return "", false, err
	}
	if _, err := reg.RegisterProject(ctx, &types.ExternalProjectMapping{
		ExternalProjectID: remote.ID,
		SpaceID:           spaceID,
		ProjectID:         &project.ID,
		Meta:              projectMeta(remote),
	}); err != nil {
		return "", false, err
	}
	return project.ID, true, nil
}

// ensureStatuses maps every fetched status to a local space status,
// creating the missing ones. Returns external id -> local id and the
// number created.
func (e *Engine) ensureStatuses(ctx context.Context, reg *Registry, fetched []jira.StatusField, spaceID string) (map[string]string, int, error) {
	ids := make(map[string]string, len(fetched))
	var missing []*types.Status
	for i := range fetched {
		st := &fetched[i]
		local, err := reg.LookupStatus(ctx, st.ID)
		if err != nil {
			return nil, 0, err
		}
		if local != nil {
			ids[st.ID] = local.ID
			continue
		}
		missing = append(missing, statusFromJira(st, spaceID))
	}

	created, err := e.insertStatuses(ctx, missing)
	if err != nil {
		return nil, created, err
	}
	for _, st := range missing {
		if st.ExternalID != nil && st.ID != "" {
			ids[*st.ExternalID] = st.ID
		}
	}
	return ids, created, nil
}

// resolveStatus picks the local status for an issue, warning when the
// issue's status is missing or unmapped.
func (e *Engine) resolveStatus(issue *jira.Issue, statusIDs map[string]string, warnings *[]string) (string, bool) {
	if issue.Fields.Status == nil {
		e.warn(warnings, "skipping %s: issue has no status", issue.Key)
		return "", false
	}
	id, ok := statusIDs[issue.Fields.Status.ID]
	if !ok {
		e.warn(warnings, "skipping %s: status %q is not mapped locally", issue.Key, issue.Fields.Status.Name)
		return "", false
	}
	return id, true
}
