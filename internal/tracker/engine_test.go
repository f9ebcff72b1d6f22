package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/workweave/workweave/internal/jira"
	"github.com/workweave/workweave/internal/storage/memory"
	"github.com/workweave/workweave/internal/types"
)

// fakeClient is an in-memory tracker double. Zero-value fields mean "no
// data"; error fields inject failures per method.
type fakeClient struct {
	user       *jira.UserField
	projects   []jira.Project
	issues     map[string][]jira.Issue       // by project key
	statuses   map[string][]jira.StatusField // by project key
	priorities []jira.PriorityField

	transitions map[string][]jira.Transition // by issue key
	applied     map[string]string            // issue key -> transition id

	nextIssue        int
	createdIssues    []map[string]interface{}
	createdProjects  []jira.ProjectSpec
	createProjectErr error
	createIssueErr   func(fields map[string]interface{}) error
	issuesErr        map[string]error
	prioritiesErr    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		user:        &jira.UserField{AccountID: "acc-1", DisplayName: "Dev"},
		issues:      make(map[string][]jira.Issue),
		statuses:    make(map[string][]jira.StatusField),
		transitions: make(map[string][]jira.Transition),
		applied:     make(map[string]string),
		issuesErr:   make(map[string]error),
		priorities: []jira.PriorityField{
			{ID: "1", Name: "Highest"}, {ID: "2", Name: "High"},
			{ID: "3", Name: "Medium"}, {ID: "4", Name: "Low"},
		},
		nextIssue: 20000,
	}
}

func (f *fakeClient) GetCurrentUser(context.Context) (*jira.UserField, error) {
	return f.user, nil
}

func (f *fakeClient) GetProjects(context.Context) ([]jira.Project, error) {
	return f.projects, nil
}

func (f *fakeClient) GetProject(_ context.Context, key string) (*jira.Project, error) {
	for i := range f.projects {
		if f.projects[i].Key == key {
			return &f.projects[i], nil
		}
	}
	return nil, &jira.APIError{StatusCode: 404, Code: jira.CodeNotFound}
}

func (f *fakeClient) GetProjectIssues(_ context.Context, key string, _ int) ([]jira.Issue, error) {
	if err := f.issuesErr[key]; err != nil {
		return nil, err
	}
	return f.issues[key], nil
}

func (f *fakeClient) GetProjectStatuses(_ context.Context, key string) ([]jira.StatusField, error) {
	return f.statuses[key], nil
}

func (f *fakeClient) GetProjectIssueTypes(_ context.Context, _ string) ([]jira.IssueTypeField, error) {
	return []jira.IssueTypeField{
		{ID: "1", Name: "Task"},
		{ID: "2", Name: "Subtask", Subtask: true},
	}, nil
}

func (f *fakeClient) GetPriorities(context.Context) ([]jira.PriorityField, error) {
	if f.prioritiesErr != nil {
		return nil, f.prioritiesErr
	}
	return f.priorities, nil
}

func (f *fakeClient) CreateProject(_ context.Context, spec jira.ProjectSpec) (*jira.CreatedProject, error) {
	if f.createProjectErr != nil {
		return nil, f.createProjectErr
	}
	f.createdProjects = append(f.createdProjects, spec)
	f.projects = append(f.projects, jira.Project{
		ID:   fmt.Sprintf("%d", 10000+len(f.projects)),
		Key:  spec.Key,
		Name: spec.Name,
		Self: "https://acme.example.com/rest/api/3/project/" + spec.Key,
	})
	return &jira.CreatedProject{ID: json.Number("10000"), Key: spec.Key}, nil
}

func (f *fakeClient) CreateIssue(_ context.Context, projectKey string, fields map[string]interface{}) (*jira.CreatedIssue, error) {
	if f.createIssueErr != nil {
		if err := f.createIssueErr(fields); err != nil {
			return nil, err
		}
	}
	f.createdIssues = append(f.createdIssues, fields)
	f.nextIssue++
	key := fmt.Sprintf("%s-%d", projectKey, f.nextIssue)
	return &jira.CreatedIssue{
		ID:   fmt.Sprintf("%d", f.nextIssue),
		Key:  key,
		Self: "https://acme.example.com/rest/api/3/issue/" + key,
	}, nil
}

func (f *fakeClient) UpdateIssue(_ context.Context, _ string, _ map[string]interface{}) error {
	return nil
}

func (f *fakeClient) GetIssueTransitions(_ context.Context, key string) ([]jira.Transition, error) {
	return f.transitions[key], nil
}

func (f *fakeClient) ApplyTransition(_ context.Context, key, transitionID string) error {
	f.applied[key] = transitionID
	return nil
}

var testCreds = Credentials{Domain: "acme.atlassian.net", Email: "dev@example.com", APIToken: "tok"}

// newTestEngine wires an engine to a memory store and the fake client,
// with a seeded space.
func newTestEngine(t *testing.T, fake *fakeClient) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	if err := store.CreateSpace(context.Background(), &types.Space{ID: "space-1", WorkspaceID: "ws-1", Name: "Main"}); err != nil {
		t.Fatalf("seed space: %v", err)
	}
	e := NewEngine(store)
	e.NewClient = func(Credentials) Client { return fake }
	return e, store
}

// seedProject adds a remote project with two statuses to the fake.
func seedProject(fake *fakeClient, id, key string) {
	fake.projects = append(fake.projects, jira.Project{
		ID:   id,
		Key:  key,
		Name: key + " Project",
		Self: "https://acme.example.com/rest/api/3/project/" + id,
	})
	fake.statuses[key] = []jira.StatusField{
		{ID: id + "-st-1", Name: "To Do", StatusCategory: &jira.StatusCategory{Key: "new", ColorName: "blue-gray"}},
		{ID: id + "-st-2", Name: "Done", StatusCategory: &jira.StatusCategory{Key: "done", ColorName: "green"}},
	}
}

// makeIssue builds a remote issue in statusID with an optional parent.
func makeIssue(id, key, summary, statusID string, parent *jira.ParentField) jira.Issue {
	issue := jira.Issue{
		ID:   id,
		Key:  key,
		Self: "https://acme.example.com/rest/api/3/issue/" + id,
	}
	issue.Fields.Summary = summary
	issue.Fields.Description = json.RawMessage(`"` + summary + ` details"`)
	issue.Fields.Status = &jira.StatusField{ID: statusID, Name: "To Do"}
	issue.Fields.Priority = &jira.PriorityField{Name: "High"}
	issue.Fields.IssueType = &jira.IssueTypeField{Name: "Task"}
	issue.Fields.Parent = parent
	return issue
}

func TestCredentialsValidate(t *testing.T) {
	if err := testCreds.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	missing := []Credentials{
		{},
		{Domain: "d", Email: "e"},
		{Domain: "d", APIToken: "t"},
		{Email: "e", APIToken: "t"},
	}
	for _, c := range missing {
		if err := c.Validate(); err != ErrMissingCredentials {
			t.Errorf("Validate(%+v) = %v, want ErrMissingCredentials", c, err)
		}
	}
}

func TestRegistryDuplicateRegistrationIsBenign(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	reg := NewRegistry(store, "int-1")

	m := &types.ExternalProjectMapping{ExternalProjectID: "ext-1", SpaceID: "space-1"}
	created, err := reg.RegisterProject(ctx, m)
	if err != nil || !created {
		t.Fatalf("first RegisterProject = (%v, %v), want (true, nil)", created, err)
	}

	created, err = reg.RegisterProject(ctx, &types.ExternalProjectMapping{ExternalProjectID: "ext-1", SpaceID: "space-1"})
	if err != nil {
		t.Fatalf("second RegisterProject error = %v, want nil", err)
	}
	if created {
		t.Error("second RegisterProject reported created = true, want false")
	}

	got, err := reg.LookupProject(ctx, "ext-1")
	if err != nil || got == nil {
		t.Fatalf("LookupProject = (%v, %v), want existing mapping", got, err)
	}
	if missing, err := reg.LookupProject(ctx, "ext-2"); err != nil || missing != nil {
		t.Errorf("LookupProject(unmapped) = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestInsertStatusesCountsNewRowsAfterConflict(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, newFakeClient())

	spaceID := "space-1"
	dupExt := "ext-2"
	seeded := &types.Status{Name: "Done", Color: types.ColorGreen, Scope: types.ScopeSpace,
		SpaceID: &spaceID, ExternalID: &dupExt}
	if err := store.CreateStatuses(ctx, []*types.Status{seeded}); err != nil {
		t.Fatalf("seed status: %v", err)
	}

	freshExt := "ext-1"
	racedExt := "ext-2"
	fresh := &types.Status{Name: "To Do", Color: types.ColorGray, Scope: types.ScopeSpace,
		SpaceID: &spaceID, ExternalID: &freshExt}
	raced := &types.Status{Name: "Done", Color: types.ColorGreen, Scope: types.ScopeSpace,
		SpaceID: &spaceID, ExternalID: &racedExt}

	created, err := e.insertStatuses(ctx, []*types.Status{fresh, raced})
	if err != nil {
		t.Fatalf("insertStatuses() error = %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
	if raced.ID != seeded.ID {
		t.Errorf("raced status id = %q, want existing %q", raced.ID, seeded.ID)
	}
	if _, err := store.GetStatusByExternalID(ctx, "ext-1"); err != nil {
		t.Errorf("fresh status not stored: %v", err)
	}
}

func TestInsertTasksCountsNewRowsAfterConflict(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, newFakeClient())

	dupExt := "10002"
	seeded := &types.Task{Name: "kept", StatusID: "st-1", Priority: types.PriorityMedium,
		ProjectID: "p-1", SpaceID: "space-1", ExternalID: &dupExt}
	if err := store.CreateTasks(ctx, []*types.Task{seeded}); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	freshExt := "10001"
	racedExt := "10002"
	fresh := &types.Task{Name: "fresh", StatusID: "st-1", Priority: types.PriorityMedium,
		ProjectID: "p-1", SpaceID: "space-1", ExternalID: &freshExt}
	raced := &types.Task{Name: "raced", StatusID: "st-1", Priority: types.PriorityMedium,
		ProjectID: "p-1", SpaceID: "space-1", ExternalID: &racedExt}

	created, err := e.insertTasks(ctx, []*types.Task{fresh, raced})
	if err != nil {
		t.Fatalf("insertTasks() error = %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
	if raced.ID != seeded.ID {
		t.Errorf("raced task id = %q, want existing %q", raced.ID, seeded.ID)
	}
	if _, err := store.GetTaskByExternalID(ctx, "10001"); err != nil {
		t.Errorf("fresh task not stored: %v", err)
	}
}
