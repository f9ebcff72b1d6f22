// Package memory implements the storage interface with in-process maps.
// It backs the engine tests and mirrors the constraint behavior of the
// sqlite backend, including ErrConflict on duplicate external ids.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workweave/workweave/internal/storage"
	"github.com/workweave/workweave/internal/types"
)

// Store is an in-memory storage backend.
type Store struct {
	mu sync.Mutex

	integrations map[string]*types.IntegrationConfig    // keyed workspace|provider
	mappings     map[string]*types.ExternalProjectMapping // keyed integration|externalProjectID
	spaces       map[string]*types.Space
	projects     map[string]*types.Project
	statuses     map[string]*types.Status
	tasks        map[string]*types.Task
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		integrations: make(map[string]*types.IntegrationConfig),
		mappings:     make(map[string]*types.ExternalProjectMapping),
		spaces:       make(map[string]*types.Space),
		projects:     make(map[string]*types.Project),
		statuses:     make(map[string]*types.Status),
		tasks:        make(map[string]*types.Task),
	}
}

func (s *Store) Close() error { return nil }

func intKey(workspaceID, provider string) string { return workspaceID + "|" + provider }

func (s *Store) UpsertIntegration(_ context.Context, cfg *types.IntegrationConfig) (*types.IntegrationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := intKey(cfg.WorkspaceID, cfg.Provider)
	if existing, ok := s.integrations[key]; ok {
		existing.Domain = cfg.Domain
		existing.Email = cfg.Email
		existing.APIToken = cfg.APIToken
		existing.Active = cfg.Active
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}

	stored := *cfg
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.integrations[key] = &stored
	cp := stored
	return &cp, nil
}

func (s *Store) GetIntegration(_ context.Context, workspaceID, provider string) (*types.IntegrationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.integrations[intKey(workspaceID, provider)]; ok {
		cp := *cfg
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func mapKey(integrationID, externalProjectID string) string {
	return integrationID + "|" + externalProjectID
}

func (s *Store) CreateProjectMapping(_ context.Context, m *types.ExternalProjectMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mapKey(m.IntegrationID, m.ExternalProjectID)
	if _, ok := s.mappings[key]; ok {
		return fmt.Errorf("mapping %s: %w", m.ExternalProjectID, storage.ErrConflict)
	}
	stored := *m
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC()
	s.mappings[key] = &stored
	return nil
}

func (s *Store) GetProjectMapping(_ context.Context, integrationID, externalProjectID string) (*types.ExternalProjectMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.mappings[mapKey(integrationID, externalProjectID)]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListProjectMappings(_ context.Context, integrationID string) ([]*types.ExternalProjectMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*types.ExternalProjectMapping
	for _, m := range s.mappings {
		if m.IntegrationID == integrationID {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExternalProjectID < result[j].ExternalProjectID })
	return result, nil
}

func (s *Store) GetSpace(_ context.Context, id string) (*types.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sp, ok := s.spaces[id]; ok {
		cp := *sp
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Store) CreateSpace(_ context.Context, sp *types.Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sp
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.spaces[stored.ID] = &stored
	sp.ID = stored.ID
	return nil
}

func (s *Store) GetProject(_ context.Context, id string) (*types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Store) CreateProject(_ context.Context, p *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *p
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.projects[stored.ID] = &stored
	p.ID = stored.ID
	return nil
}

func (s *Store) UpdateProject(_ context.Context, p *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.projects[p.ID]
	if !ok {
		return fmt.Errorf("project %s: %w", p.ID, storage.ErrNotFound)
	}
	updated := *p
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.projects[p.ID] = &updated
	return nil
}

func (s *Store) TouchProject(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return fmt.Errorf("project %s: %w", id, storage.ErrNotFound)
	}
	p.UpdatedAt = at
	return nil
}

func (s *Store) CreateStatuses(_ context.Context, statuses []*types.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Validate the whole batch before touching the map so a conflict
	// leaves no partial insert behind, matching the sqlite transaction.
	seen := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		if st.ExternalID == nil || *st.ExternalID == "" {
			continue
		}
		if seen[*st.ExternalID] || s.findStatusByExternalID(*st.ExternalID) != nil {
			return fmt.Errorf("status %s: %w", *st.ExternalID, storage.ErrConflict)
		}
		seen[*st.ExternalID] = true
	}
	now := time.Now().UTC()
	for _, st := range statuses {
		stored := *st
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		stored.CreatedAt = now
		stored.UpdatedAt = now
		s.statuses[stored.ID] = &stored
		st.ID = stored.ID
	}
	return nil
}

func (s *Store) UpdateStatuses(_ context.Context, statuses []*types.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, st := range statuses {
		existing, ok := s.statuses[st.ID]
		if !ok {
			return fmt.Errorf("status %s: %w", st.ID, storage.ErrNotFound)
		}
		updated := *st
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		s.statuses[st.ID] = &updated
	}
	return nil
}

func (s *Store) findStatusByExternalID(externalID string) *types.Status {
	for _, st := range s.statuses {
		if st.ExternalID != nil && *st.ExternalID == externalID {
			return st
		}
	}
	return nil
}

func (s *Store) GetStatusByExternalID(_ context.Context, externalID string) (*types.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.findStatusByExternalID(externalID); st != nil {
		cp := *st
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListStatusesBySpace(_ context.Context, spaceID string) ([]*types.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*types.Status
	for _, st := range s.statuses {
		if st.SpaceID != nil && *st.SpaceID == spaceID {
			cp := *st
			result = append(result, &cp)
		}
	}
	sortStatuses(result)
	return result, nil
}

func (s *Store) ListExternalStatuses(_ context.Context, spaceID string) ([]*types.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*types.Status
	for _, st := range s.statuses {
		if st.SpaceID != nil && *st.SpaceID == spaceID && st.ExternalID != nil && *st.ExternalID != "" {
			cp := *st
			result = append(result, &cp)
		}
	}
	sortStatuses(result)
	return result, nil
}

func sortStatuses(statuses []*types.Status) {
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Position != statuses[j].Position {
			return statuses[i].Position < statuses[j].Position
		}
		return statuses[i].Name < statuses[j].Name
	})
}

func (s *Store) CreateTasks(_ context.Context, tasks []*types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ExternalID == nil || *t.ExternalID == "" {
			continue
		}
		if seen[*t.ExternalID] || s.findTaskByExternalID(*t.ExternalID) != nil {
			return fmt.Errorf("task %s: %w", *t.ExternalID, storage.ErrConflict)
		}
		seen[*t.ExternalID] = true
	}
	now := time.Now().UTC()
	for _, t := range tasks {
		stored := *t
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		stored.CreatedAt = now
		stored.UpdatedAt = now
		s.tasks[stored.ID] = &stored
		t.ID = stored.ID
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, t *types.Task) error {
	return s.UpdateTasks(ctx, []*types.Task{t})
}

func (s *Store) UpdateTasks(_ context.Context, tasks []*types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range tasks {
		existing, ok := s.tasks[t.ID]
		if !ok {
			return fmt.Errorf("task %s: %w", t.ID, storage.ErrNotFound)
		}
		updated := *t
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		s.tasks[t.ID] = &updated
	}
	return nil
}

func (s *Store) findTaskByExternalID(externalID string) *types.Task {
	for _, t := range s.tasks {
		if t.ExternalID != nil && *t.ExternalID == externalID {
			return t
		}
	}
	return nil
}

func (s *Store) GetTaskByExternalID(_ context.Context, externalID string) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.findTaskByExternalID(externalID); t != nil {
		cp := *t
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListTasksByProject(_ context.Context, projectID string) ([]*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*types.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			cp := *t
			result = append(result, &cp)
		}
	}
	sortTasks(result)
	return result, nil
}

func (s *Store) ListTasksBySpace(_ context.Context, spaceID string) ([]*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*types.Task
	for _, t := range s.tasks {
		if t.SpaceID == spaceID {
			cp := *t
			result = append(result, &cp)
		}
	}
	sortTasks(result)
	return result, nil
}

func (s *Store) ListExternalTasks(_ context.Context, projectID string) ([]*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*types.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID && t.ExternalID != nil && *t.ExternalID != "" {
			cp := *t
			result = append(result, &cp)
		}
	}
	sortTasks(result)
	return result, nil
}

func sortTasks(tasks []*types.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

var _ storage.Storage = (*Store)(nil)
