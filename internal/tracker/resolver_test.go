package tracker

import (
	"context"
	"testing"

	"github.com/workweave/workweave/internal/jira"
)

func TestImportResolvesChildListedBeforeParent(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "PROJ")
	// Newest-first fetch order puts the child ahead of its parent.
	fake.issues["PROJ"] = []jira.Issue{
		makeIssue("10002", "PROJ-2", "Child", "ext-p1-st-1", &jira.ParentField{ID: "10001"}),
		makeIssue("10001", "PROJ-1", "Parent", "ext-p1-st-1", nil),
	}
	e, store := newTestEngine(t, fake)

	result, err := e.Import(ctx, testCreds, ImportOptions{
		WorkspaceID: "ws-1", SpaceID: "space-1", ProjectKeys: []string{"PROJ"},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.TasksCreated != 2 || result.TasksSkipped != 0 {
		t.Fatalf("created %d, skipped %d; want 2 and 0", result.TasksCreated, result.TasksSkipped)
	}

	parent, err := store.GetTaskByExternalID(ctx, "10001")
	if err != nil {
		t.Fatal(err)
	}
	child, err := store.GetTaskByExternalID(ctx, "10002")
	if err != nil {
		t.Fatal(err)
	}
	if child.ParentTaskID == nil || *child.ParentTaskID != parent.ID {
		t.Errorf("child parent = %v, want %q", child.ParentTaskID, parent.ID)
	}
}

func TestImportResolvesParentFromEarlierRun(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "PROJ")
	fake.issues["PROJ"] = []jira.Issue{
		makeIssue("10001", "PROJ-1", "Parent", "ext-p1-st-1", nil),
	}
	e, store := newTestEngine(t, fake)

	opts := ImportOptions{WorkspaceID: "ws-1", SpaceID: "space-1", ProjectKeys: []string{"PROJ"}}
	if _, err := e.Import(ctx, testCreds, opts); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}

	// The child shows up in the tracker after the first run.
	fake.issues["PROJ"] = append(fake.issues["PROJ"],
		makeIssue("10002", "PROJ-2", "Late child", "ext-p1-st-1", &jira.ParentField{ID: "10001"}))

	result, err := e.Import(ctx, testCreds, opts)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if result.TasksCreated != 1 {
		t.Fatalf("second run TasksCreated = %d, want 1", result.TasksCreated)
	}

	parent, err := store.GetTaskByExternalID(ctx, "10001")
	if err != nil {
		t.Fatal(err)
	}
	child, err := store.GetTaskByExternalID(ctx, "10002")
	if err != nil {
		t.Fatal(err)
	}
	if child.ParentTaskID == nil || *child.ParentTaskID != parent.ID {
		t.Errorf("child parent = %v, want %q (resolved through registry)", child.ParentTaskID, parent.ID)
	}
}
