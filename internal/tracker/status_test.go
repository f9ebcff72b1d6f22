package tracker

import (
	"context"
	"testing"
)

func TestStatusReportsIntegrationAndProjects(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	e, _, projectID := importFixture(t, fake)

	result, err := e.Status(ctx, StatusOptions{SpaceID: "space-1"})
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if result.Integration == nil {
		t.Fatal("no integration reported after import")
	}
	if result.Integration.Domain != testCreds.Domain || !result.Integration.Active {
		t.Errorf("integration = %+v, want active %s", result.Integration, testCreds.Domain)
	}
	if result.LocalStatuses != 2 || result.LinkedStatuses != 2 {
		t.Errorf("statuses = %d local, %d linked; want 2 and 2", result.LocalStatuses, result.LinkedStatuses)
	}
	if len(result.Projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(result.Projects))
	}
	p := result.Projects[0]
	if p.ProjectID != projectID {
		t.Errorf("project id = %q, want %q", p.ProjectID, projectID)
	}
	if p.ExternalKey != "PROJ" || p.ExternalID != "ext-p1" {
		t.Errorf("external identity = %s/%s, want PROJ/ext-p1", p.ExternalKey, p.ExternalID)
	}
	if p.LinkedTasks != 1 {
		t.Errorf("linked tasks = %d, want 1", p.LinkedTasks)
	}
}

func TestStatusWithoutIntegration(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, newFakeClient())

	result, err := e.Status(ctx, StatusOptions{SpaceID: "space-1"})
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if result.Integration != nil {
		t.Errorf("integration = %+v, want none", result.Integration)
	}
	if len(result.Projects) != 0 {
		t.Errorf("projects = %d, want 0", len(result.Projects))
	}
}

func TestStatusTracksExportedTasks(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	seedProject(fake, "ext-p1", "PROJ")
	e, store := newTestEngine(t, fake)
	project, _ := seedLocalProject(t, store, "pushed")

	if _, err := e.Export(ctx, testCreds, ExportOptions{
		WorkspaceID: "ws-1", SpaceID: "space-1", ProjectID: project.ID, ProjectKey: "PROJ",
	}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	result, err := e.Status(ctx, StatusOptions{SpaceID: "space-1"})
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(result.Projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(result.Projects))
	}
	p := result.Projects[0]
	if p.LinkedTasks != 1 {
		t.Errorf("linked tasks = %d, want 1", p.LinkedTasks)
	}
	if p.LastSyncedAt == nil {
		t.Error("no last sync time for an exported task")
	}
}
