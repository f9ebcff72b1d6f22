package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/workweave/workweave/internal/jira"
	"github.com/workweave/workweave/internal/types"
)

// Export pushes local tasks that have no external link yet into an
// external project, creating the project first when asked. Individual
// issue failures are counted and reported; they never abort the run.
func (e *Engine) Export(ctx context.Context, creds Credentials, opts ExportOptions) (*ExportResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	client := e.client(creds)
	user, err := client.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	tasks, err := e.loadExportable(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasksToExport
	}

	integration, err := e.upsertIntegration(ctx, opts.WorkspaceID, creds)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry(e.Store, integration.ID)

	result := &ExportResult{TotalCount: len(tasks), ProjectKey: opts.ProjectKey}

	remote, err := e.resolveTarget(ctx, client, user, opts)
	if err != nil {
		return nil, err
	}
	if err := e.linkProject(ctx, reg, remote, opts); err != nil {
		return nil, err
	}

	issueType := e.pickIssueType(ctx, client, remote.Key, &result.Warnings)
	priorities, priorityFallback := e.loadPriorities(ctx, client, &result.Warnings)
	statusNames := e.statusTargets(ctx, client, remote.Key, opts, tasks, &result.Warnings)

	for _, task := range tasks {
		exported, err := e.exportTask(ctx, client, task, remote.Key, issueType, priorities, priorityFallback, statusNames, &result.Warnings)
		if err != nil {
			result.FailedCount++
			e.warn(&result.Warnings, "export %q: %v", task.Name, err)
			continue
		}
		result.ExportedCount++
		result.ExportedTasks = append(result.ExportedTasks, *exported)
	}

	record(ctx, "export", result.ExportedCount, 0, result.FailedCount)
	summary := fmt.Sprintf("exported %d of %d tasks to %s", result.ExportedCount, result.TotalCount, remote.Key)
	e.msg("%s", summary)
	result.Events = append(result.Events, SyncEvent{
		Type:        EventExportCompleted,
		WorkspaceID: opts.WorkspaceID,
		SpaceID:     opts.SpaceID,
		ProjectID:   opts.ProjectID,
		Summary:     summary,
		At:          time.Now().UTC(),
	})
	return result, nil
}

// loadExportable loads the candidate tasks and keeps only the ones not
// already linked to an external issue.
func (e *Engine) loadExportable(ctx context.Context, opts ExportOptions) ([]*types.Task, error) {
	var (
		tasks []*types.Task
		err   error
	)
	if opts.ProjectID != "" {
		tasks, err = e.Store.ListTasksByProject(ctx, opts.ProjectID)
	} else {
		tasks, err = e.Store.ListTasksBySpace(ctx, opts.SpaceID)
	}
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	unlinked := tasks[:0]
	for _, t := range tasks {
		if t.ExternalID == nil || *t.ExternalID == "" {
			unlinked = append(unlinked, t)
		}
	}
	return unlinked, nil
}

// resolveTarget fetches or creates the external project the tasks land
// in. Creation failures are translated to the engine's sentinel errors so
// callers can react without parsing vendor messages.
func (e *Engine) resolveTarget(ctx context.Context, client Client, user *jira.UserField, opts ExportOptions) (*jira.Project, error) {
	if opts.CreateNewProject {
		spec := jira.ProjectSpec{
			Key:           opts.ProjectKey,
			Name:          opts.ProjectName,
			LeadAccountID: user.AccountID,
		}
		if spec.Name == "" {
			spec.Name = opts.ProjectKey
		}
		if _, err := client.CreateProject(ctx, spec); err != nil {
			switch jira.CodeOf(err) {
			case jira.CodeInvalidLead:
				return nil, fmt.Errorf("%w: %v", ErrInvalidProjectLead, err)
			case jira.CodeKeyConflict:
				return nil, fmt.Errorf("%w: %v", ErrProjectKeyConflict, err)
			case jira.CodePermissionDenied:
				return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
			}
			return nil, fmt.Errorf("create project %s: %w", opts.ProjectKey, err)
		}
	}
	remote, err := client.GetProject(ctx, opts.ProjectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch project %s: %w", opts.ProjectKey, err)
	}
	return remote, nil
}

// linkProject binds the local project (when the export targets one) to
// the external project and records the identity mapping.
func (e *Engine) linkProject(ctx context.Context, reg *Registry, remote *jira.Project, opts ExportOptions) error {
	var projectID *string
	if opts.ProjectID != "" {
		local, err := e.Store.GetProject(ctx, opts.ProjectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", opts.ProjectID, err)
		}
		extID := remote.ID
		extKey := remote.Key
		local.ExternalID = &extID
		local.ExternalKey = &extKey
		local.ExternalData = projectMeta(remote)
		if err := e.Store.UpdateProject(ctx, local); err != nil {
			return fmt.Errorf("link project %s: %w", opts.ProjectID, err)
		}
		projectID = &local.ID
	}
	_, err := reg.RegisterProject(ctx, &types.ExternalProjectMapping{
		ExternalProjectID: remote.ID,
		SpaceID:           opts.SpaceID,
		ProjectID:         projectID,
		Meta:              projectMeta(remote),
	})
	return err
}

// pickIssueType selects the first non-subtask issue type of the target
// project, falling back to "Task" when the fetch fails.
func (e *Engine) pickIssueType(ctx context.Context, client Client, projectKey string, warnings *[]string) string {
	issueTypes, err := client.GetProjectIssueTypes(ctx, projectKey)
	if err != nil {
		e.warn(warnings, "could not fetch issue types for %s, using Task: %v", projectKey, err)
		return "Task"
	}
	for _, it := range issueTypes {
		if !it.Subtask {
			return it.Name
		}
	}
	return "Task"
}

// loadPriorities returns the set of priority names the tracker accepts
// plus the name to substitute when a task's priority is not in the set.
// Medium and Normal are preferred substitutes; when the tracker has
// neither, the first fetched priority wins. A failed fetch yields a nil
// set and Medium.
func (e *Engine) loadPriorities(ctx context.Context, client Client, warnings *[]string) (map[string]bool, string) {
	fetched, err := client.GetPriorities(ctx)
	if err != nil {
		e.warn(warnings, "could not fetch priorities, using Medium: %v", err)
		return nil, "Medium"
	}
	names := make(map[string]bool, len(fetched))
	for _, p := range fetched {
		names[p.Name] = true
	}
	fallback := "Medium"
	switch {
	case names["Medium"]:
	case names["Normal"]:
		fallback = "Normal"
	case len(fetched) > 0:
		fallback = fetched[0].Name
	}
	return names, fallback
}

// statusTargets resolves each local status id to the external status name
// a created issue should transition into. Unmapped statuses fall back to
// the project's first available status, with a warning per status.
func (e *Engine) statusTargets(ctx context.Context, client Client, projectKey string, opts ExportOptions, tasks []*types.Task, warnings *[]string) map[string]string {
	available, err := client.GetProjectStatuses(ctx, projectKey)
	if err != nil || len(available) == 0 {
		if err != nil {
			e.warn(warnings, "could not fetch statuses for %s, leaving issues in their default status: %v", projectKey, err)
		}
		return nil
	}
	valid := make(map[string]bool, len(available))
	for _, st := range available {
		valid[st.Name] = true
	}
	fallback := available[0].Name

	targets := make(map[string]string, len(opts.StatusMapping))
	for statusID, name := range opts.StatusMapping {
		if valid[name] {
			targets[statusID] = name
			continue
		}
		e.warn(warnings, "status mapping %q is not available in %s, using %q", name, projectKey, fallback)
		targets[statusID] = fallback
	}
	// Statuses the tasks use but the mapping never mentions get the same
	// fallback, warned once per status.
	unmapped := make(map[string]bool)
	for _, task := range tasks {
		if _, ok := targets[task.StatusID]; ok || unmapped[task.StatusID] {
			continue
		}
		unmapped[task.StatusID] = true
		e.warn(warnings, "no status mapping for local status %s, using %q", task.StatusID, fallback)
	}
	targets[""] = fallback
	return targets
}

// exportTask creates one issue, links the local task to it, and applies
// the mapped status transition. Transition failures only warn; the issue
// exists either way.
func (e *Engine) exportTask(ctx context.Context, client Client, task *types.Task, projectKey, issueType string, priorities map[string]bool, priorityFallback string, statusNames map[string]string, warnings *[]string) (*ExportedTask, error) {
	priority := jira.PriorityToJira(task.Priority)
	if !priorities[priority] {
		priority = priorityFallback
	}

	created, err := client.CreateIssue(ctx, projectKey, exportFields(task, issueType, priority))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	extID := created.ID
	task.ExternalID = &extID
	task.ExternalData = &types.TaskExternalMeta{
		Source:    types.ProviderJira,
		Key:       created.Key,
		URL:       selfToBrowseURL(created.Self, created.Key),
		IssueType: issueType,
		Project:   projectKey,
	}
	task.SyncStatus = types.SyncStatusSynced
	task.LastSyncedAt = &now
	if err := e.Store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("link task: %w", err)
	}

	e.applyStatusTransition(ctx, client, created.Key, statusNames[task.StatusID], statusNames[""], warnings)

	return &ExportedTask{
		TaskID:      task.ID,
		ExternalID:  created.ID,
		ExternalKey: created.Key,
		URL:         task.ExternalData.URL,
	}, nil
}

// applyStatusTransition moves a freshly created issue into the wanted
// status. Best effort: the issue stays in its default status on failure.
func (e *Engine) applyStatusTransition(ctx context.Context, client Client, issueKey, want, fallback string, warnings *[]string) {
	if want == "" {
		want = fallback
	}
	if want == "" {
		return
	}
	transitions, err := client.GetIssueTransitions(ctx, issueKey)
	if err != nil {
		e.warn(warnings, "could not fetch transitions for %s: %v", issueKey, err)
		return
	}
	for _, tr := range transitions {
		if tr.To != nil && tr.To.Name == want {
			if err := client.ApplyTransition(ctx, issueKey, tr.ID); err != nil {
				e.warn(warnings, "could not move %s to %q: %v", issueKey, want, err)
			}
			return
		}
	}
	e.warn(warnings, "no transition to %q available for %s", want, issueKey)
}

// selfToBrowseURL derives the human-readable issue URL from the API self
// link.
func selfToBrowseURL(self, key string) string {
	if self == "" || key == "" {
		return ""
	}
	if idx := strings.Index(self, "/rest/api/"); idx > 0 {
		return self[:idx] + "/browse/" + key
	}
	return ""
}
