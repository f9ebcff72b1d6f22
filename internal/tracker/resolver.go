package tracker

import (
	"context"

	"github.com/workweave/workweave/internal/jira"
	"github.com/workweave/workweave/internal/types"
)

// convertFunc turns an external issue into a task ready for insert. The
// second return is false when the issue must be skipped (unresolved
// status, unmapped project). parentID is nil for root issues.
type convertFunc func(issue *jira.Issue, parentID *string) (*types.Task, bool)

// insertTaskBatch inserts a batch of external issues as tasks in two
// passes ordered by dependency: issues without a parent reference first,
// then children with parent_task_id resolved through the fresh inserts
// merged with pre-existing registry mappings from earlier runs. A child
// whose parent is absent from both is skipped, never inserted with a
// dangling reference. Only one level of nesting is handled.
func (e *Engine) insertTaskBatch(ctx context.Context, reg *Registry, issues []jira.Issue, convert convertFunc) (created, skipped int, warnings []string, err error) {
	var roots, children []jira.Issue
	for _, issue := range issues {
		if issue.ParentID() == "" {
			roots = append(roots, issue)
		} else {
			children = append(children, issue)
		}
	}

	// external issue id -> local task id, seeded as roots insert
	idMap := make(map[string]string)

	rootTasks := make([]*types.Task, 0, len(roots))
	rootIDs := make([]string, 0, len(roots))
	for i := range roots {
		issue := &roots[i]
		existing, lookupErr := reg.LookupTask(ctx, issue.ID)
		if lookupErr != nil {
			return created, skipped, warnings, lookupErr
		}
		if existing != nil {
			// Already imported in a prior run; keep it resolvable as a parent.
			idMap[issue.ID] = existing.ID
			skipped++
			continue
		}
		task, ok := convert(issue, nil)
		if !ok {
			skipped++
			continue
		}
		rootTasks = append(rootTasks, task)
		rootIDs = append(rootIDs, issue.ID)
	}

	n, err := e.insertTasks(ctx, rootTasks)
	if err != nil {
		return created, skipped, warnings, err
	}
	created += n
	for i, task := range rootTasks {
		idMap[rootIDs[i]] = task.ID
	}

	childTasks := make([]*types.Task, 0, len(children))
	for i := range children {
		issue := &children[i]
		existing, lookupErr := reg.LookupTask(ctx, issue.ID)
		if lookupErr != nil {
			return created, skipped, warnings, lookupErr
		}
		if existing != nil {
			skipped++
			continue
		}

		parentLocal, ok := idMap[issue.ParentID()]
		if !ok {
			parent, lookupErr := reg.LookupTask(ctx, issue.ParentID())
			if lookupErr != nil {
				return created, skipped, warnings, lookupErr
			}
			if parent == nil {
				e.warn(&warnings, "skipping %s: parent issue %s not found in batch or registry", issue.Key, issue.ParentID())
				skipped++
				continue
			}
			parentLocal = parent.ID
		}

		task, convOK := convert(issue, &parentLocal)
		if !convOK {
			skipped++
			continue
		}
		childTasks = append(childTasks, task)
	}

	n, err = e.insertTasks(ctx, childTasks)
	if err != nil {
		return created, skipped, warnings, err
	}
	created += n

	return created, skipped, warnings, nil
}
