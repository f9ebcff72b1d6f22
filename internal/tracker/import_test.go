package tracker

import (
	"context"
	"strings"
	"testing"

	"github.com/workweave/workweave/internal/jira"
)

func TestImportCreatesProjectStatusesAndTasks(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "PROJ")
	fake.issues["PROJ"] = []jira.Issue{
		makeIssue("10001", "PROJ-1", "Build the frame", "ext-p1-st-1", nil),
		makeIssue("10002", "PROJ-2", "Paint it", "ext-p1-st-2", &jira.ParentField{ID: "10001", Key: "PROJ-1"}),
	}
	e, store := newTestEngine(t, fake)

	result, err := e.Import(ctx, testCreds, ImportOptions{
		WorkspaceID: "ws-1",
		SpaceID:     "space-1",
		ProjectKeys: []string{"PROJ"},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.ProjectsCreated != 1 {
		t.Errorf("ProjectsCreated = %d, want 1", result.ProjectsCreated)
	}
	if result.StatusesCreated != 2 {
		t.Errorf("StatusesCreated = %d, want 2", result.StatusesCreated)
	}
	if result.TasksCreated != 2 {
		t.Errorf("TasksCreated = %d, want 2", result.TasksCreated)
	}
	if result.TasksSkipped != 0 {
		t.Errorf("TasksSkipped = %d, want 0", result.TasksSkipped)
	}

	root, err := store.GetTaskByExternalID(ctx, "10001")
	if err != nil {
		t.Fatalf("root task not stored: %v", err)
	}
	child, err := store.GetTaskByExternalID(ctx, "10002")
	if err != nil {
		t.Fatalf("child task not stored: %v", err)
	}
	if child.ParentTaskID == nil || *child.ParentTaskID != root.ID {
		t.Errorf("child parent = %v, want %q", child.ParentTaskID, root.ID)
	}
	if root.ParentTaskID != nil {
		t.Errorf("root parent = %v, want nil", *root.ParentTaskID)
	}
	if root.Description != "Build the frame details" {
		t.Errorf("root description = %q", root.Description)
	}
	if root.ExternalData == nil || root.ExternalData.Key != "PROJ-1" {
		t.Errorf("root external data = %+v, want key PROJ-1", root.ExternalData)
	}

	project, err := store.GetProject(ctx, root.ProjectID)
	if err != nil {
		t.Fatalf("project not stored: %v", err)
	}
	if !project.IsExternallyLinked() {
		t.Error("imported project is not externally linked")
	}
	if project.ExternalKey == nil || *project.ExternalKey != "PROJ" {
		t.Errorf("project external key = %v, want PROJ", project.ExternalKey)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "PROJ")
	fake.issues["PROJ"] = []jira.Issue{
		makeIssue("10001", "PROJ-1", "Build the frame", "ext-p1-st-1", nil),
		makeIssue("10002", "PROJ-2", "Paint it", "ext-p1-st-2", &jira.ParentField{ID: "10001"}),
	}
	e, _ := newTestEngine(t, fake)

	opts := ImportOptions{WorkspaceID: "ws-1", SpaceID: "space-1", ProjectKeys: []string{"PROJ"}}
	if _, err := e.Import(ctx, testCreds, opts); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}

	second, err := e.Import(ctx, testCreds, opts)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if second.ProjectsCreated != 0 || second.StatusesCreated != 0 || second.TasksCreated != 0 {
		t.Errorf("second run created %d projects, %d statuses, %d tasks; want all 0",
			second.ProjectsCreated, second.StatusesCreated, second.TasksCreated)
	}
	if second.TasksSkipped != 2 {
		t.Errorf("second run TasksSkipped = %d, want 2", second.TasksSkipped)
	}
}

func TestImportSkipsOrphanedChild(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "PROJ")
	fake.issues["PROJ"] = []jira.Issue{
		makeIssue("10001", "PROJ-1", "Root", "ext-p1-st-1", nil),
		makeIssue("10003", "PROJ-3", "Orphan", "ext-p1-st-1", &jira.ParentField{ID: "99999"}),
	}
	e, store := newTestEngine(t, fake)

	result, err := e.Import(ctx, testCreds, ImportOptions{
		WorkspaceID: "ws-1", SpaceID: "space-1", ProjectKeys: []string{"PROJ"},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.TasksCreated != 1 {
		t.Errorf("TasksCreated = %d, want 1", result.TasksCreated)
	}
	if result.TasksSkipped != 1 {
		t.Errorf("TasksSkipped = %d, want 1", result.TasksSkipped)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "PROJ-3") && strings.Contains(w, "parent") {
			found = true
		}
	}
	if !found {
		t.Errorf("no orphan warning in %v", result.Warnings)
	}
	if _, err := store.GetTaskByExternalID(ctx, "10003"); err == nil {
		t.Error("orphaned child was stored; want skipped")
	}
}

func TestImportIsolatesFailedProjects(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "GOOD")
	seedProject(fake, "ext-p2", "BAD")
	fake.issues["GOOD"] = []jira.Issue{makeIssue("10001", "GOOD-1", "ok", "ext-p1-st-1", nil)}
	fake.issuesErr["BAD"] = &jira.APIError{StatusCode: 500, Body: "boom", Code: jira.CodeGeneric}
	e, _ := newTestEngine(t, fake)

	result, err := e.Import(ctx, testCreds, ImportOptions{
		WorkspaceID: "ws-1", SpaceID: "space-1", ProjectKeys: []string{"GOOD", "BAD"},
	})
	if err != nil {
		t.Fatalf("Import() error = %v, want nil with warning", err)
	}
	if result.TasksCreated != 1 {
		t.Errorf("TasksCreated = %d, want 1", result.TasksCreated)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "BAD") {
			found = true
		}
	}
	if !found {
		t.Errorf("no warning for failed project in %v", result.Warnings)
	}
}

func TestImportUnknownProjectKeyWarns(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "PROJ")
	e, _ := newTestEngine(t, fake)

	result, err := e.Import(ctx, testCreds, ImportOptions{
		WorkspaceID: "ws-1", SpaceID: "space-1", ProjectKeys: []string{"PROJ", "NOPE"},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "NOPE") {
		t.Errorf("Warnings = %v, want one naming NOPE", result.Warnings)
	}
}

func TestImportValidation(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, newFakeClient())

	if _, err := e.Import(ctx, Credentials{}, ImportOptions{ProjectKeys: []string{"X"}}); err != ErrMissingCredentials {
		t.Errorf("Import(no creds) error = %v, want ErrMissingCredentials", err)
	}
	if _, err := e.Import(ctx, testCreds, ImportOptions{WorkspaceID: "ws-1", SpaceID: "space-1"}); err != ErrNoProjectsSelected {
		t.Errorf("Import(no keys) error = %v, want ErrNoProjectsSelected", err)
	}
}

func TestImportEmitsCompletionEvent(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "PROJ")
	fake.issues["PROJ"] = []jira.Issue{makeIssue("10001", "PROJ-1", "x", "ext-p1-st-1", nil)}
	e, _ := newTestEngine(t, fake)

	result, err := e.Import(ctx, testCreds, ImportOptions{
		WorkspaceID: "ws-1", SpaceID: "space-1", ProjectKeys: []string{"PROJ"},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(result.Events) != 1 {
		t.Fatalf("len(Events) = %d, want 1", len(result.Events))
	}
	ev := result.Events[0]
	if ev.Type != EventImportCompleted {
		t.Errorf("event type = %q, want %q", ev.Type, EventImportCompleted)
	}
	if ev.WorkspaceID != "ws-1" || ev.SpaceID != "space-1" {
		t.Errorf("event scope = %s/%s, want ws-1/space-1", ev.WorkspaceID, ev.SpaceID)
	}
	if ev.At.IsZero() || ev.Summary == "" {
		t.Error("event is missing timestamp or summary")
	}
}
