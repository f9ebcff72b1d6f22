package tracker

import (
	"time"

	"github.com/workweave/workweave/internal/jira"
	"github.com/workweave/workweave/internal/types"
)

// statusFromJira converts a fetched tracker status into a local
// space-scoped status, translating the vendor color through the fixed
// palette mapping.
func statusFromJira(st *jira.StatusField, spaceID string) *types.Status {
	color := types.ColorGray
	category := ""
	vendorColor := ""
	if st.StatusCategory != nil {
		vendorColor = st.StatusCategory.ColorName
		category = st.StatusCategory.Key
		color = jira.TranslateStatusColor(vendorColor)
	}
	extID := st.ID
	return &types.Status{
		Name:       st.Name,
		Color:      color,
		Scope:      types.ScopeSpace,
		SpaceID:    &spaceID,
		ExternalID: &extID,
		ExternalData: &types.StatusExternalMeta{
			Source:   types.ProviderJira,
			Name:     st.Name,
			Category: category,
			Color:    vendorColor,
		},
	}
}

// applyStatus refreshes a local status in place from its fetched
// counterpart. Identity fields are left alone.
func applyStatus(local *types.Status, st *jira.StatusField) {
	local.Name = st.Name
	if st.StatusCategory != nil {
		local.Color = jira.TranslateStatusColor(st.StatusCategory.ColorName)
		if local.ExternalData == nil {
			local.ExternalData = &types.StatusExternalMeta{Source: types.ProviderJira}
		}
		local.ExternalData.Name = st.Name
		local.ExternalData.Category = st.StatusCategory.Key
		local.ExternalData.Color = st.StatusCategory.ColorName
	}
}

// taskFromIssue converts a fetched issue into a new externally-linked
// task. statusID must already be resolved; parentID may be nil.
func taskFromIssue(issue *jira.Issue, projectID, spaceID, statusID string, parentID *string) *types.Task {
	now := time.Now().UTC()
	extID := issue.ID
	priority := types.PriorityMedium
	if issue.Fields.Priority != nil {
		priority = jira.TranslatePriority(issue.Fields.Priority.Name)
	}
	return &types.Task{
		Name:         issue.Fields.Summary,
		Description:  jira.DocumentToMarkup(issue.Fields.Description),
		StatusID:     statusID,
		Priority:     priority,
		ParentTaskID: parentID,
		ProjectID:    projectID,
		SpaceID:      spaceID,
		ExternalID:   &extID,
		ExternalData: taskMeta(issue),
		SyncStatus:   types.SyncStatusSynced,
		LastSyncedAt: &now,
	}
}

// applyIssue refreshes a local task in place from its fetched
// counterpart. The parent link is left alone; sync reconciles flat.
func applyIssue(local *types.Task, issue *jira.Issue, statusID string) {
	now := time.Now().UTC()
	local.Name = issue.Fields.Summary
	local.Description = jira.DocumentToMarkup(issue.Fields.Description)
	local.StatusID = statusID
	if issue.Fields.Priority != nil {
		local.Priority = jira.TranslatePriority(issue.Fields.Priority.Name)
	}
	local.ExternalData = taskMeta(issue)
	local.SyncStatus = types.SyncStatusSynced
	local.LastSyncedAt = &now
}

func taskMeta(issue *jira.Issue) *types.TaskExternalMeta {
	meta := &types.TaskExternalMeta{
		Source: types.ProviderJira,
		Key:    issue.Key,
		URL:    browseURL(issue),
	}
	if issue.Fields.IssueType != nil {
		meta.IssueType = issue.Fields.IssueType.Name
	}
	if issue.Fields.Project != nil {
		meta.Project = issue.Fields.Project.Key
	}
	return meta
}

// browseURL derives the human-readable issue URL from the API self link:
// ".../rest/api/3/issue/10001" becomes ".../browse/PROJ-1".
func browseURL(issue *jira.Issue) string {
	return selfToBrowseURL(issue.Self, issue.Key)
}

// projectMeta captures the denormalized vendor metadata for a project.
func projectMeta(p *jira.Project) *types.ProjectExternalMeta {
	meta := &types.ProjectExternalMeta{
		Source:      types.ProviderJira,
		Key:         p.Key,
		Name:        p.Name,
		Description: p.Description,
		URL:         p.Self,
	}
	if p.Lead != nil {
		meta.Lead = p.Lead.DisplayName
	}
	return meta
}

// exportFields builds the issue creation payload for a local task.
func exportFields(task *types.Task, issueTypeName, priorityName string) map[string]interface{} {
	fields := map[string]interface{}{
		"summary":   task.Name,
		"issuetype": map[string]string{"name": issueTypeName},
		"priority":  map[string]string{"name": priorityName},
	}
	if task.Description != "" {
		fields["description"] = jira.MarkupToADF(task.Description)
	}
	return fields
}
