package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/workweave/workweave/internal/types"
)

// CreateProjectMapping inserts a new external project mapping. Returns
// storage.ErrConflict when the (integration, external project) pair is
// already mapped; the existing mapping wins.
func (s *Store) CreateProjectMapping(ctx context.Context, m *types.ExternalProjectMapping) error {
	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO external_project_mappings (id, integration_id, external_project_id, space_id, project_id, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, m.IntegrationID, m.ExternalProjectID, m.SpaceID, nullStr(m.ProjectID), metaJSON(m.Meta), formatTime(time.Now().UTC()))
	if err != nil {
		return wrapDBError("create project mapping", err)
	}
	m.ID = id
	return nil
}

// GetProjectMapping fetches the mapping for (integration, external project).
func (s *Store) GetProjectMapping(ctx context.Context, integrationID, externalProjectID string) (*types.ExternalProjectMapping, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, integration_id, external_project_id, space_id, project_id, meta, created_at
		FROM external_project_mappings
		WHERE integration_id = ? AND external_project_id = ?
	`, integrationID, externalProjectID)

	m, err := scanMapping(row.Scan)
	if err != nil {
		return nil, wrapDBError("get project mapping", err)
	}
	return m, nil
}

// ListProjectMappings lists all mappings for an integration.
func (s *Store) ListProjectMappings(ctx context.Context, integrationID string) ([]*types.ExternalProjectMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, integration_id, external_project_id, space_id, project_id, meta, created_at
		FROM external_project_mappings
		WHERE integration_id = ?
		ORDER BY external_project_id
	`, integrationID)
	if err != nil {
		return nil, wrapDBError("list project mappings", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*types.ExternalProjectMapping
	for rows.Next() {
		m, err := scanMapping(rows.Scan)
		if err != nil {
			return nil, wrapDBError("scan project mapping", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func scanMapping(scan func(...interface{}) error) (*types.ExternalProjectMapping, error) {
	var m types.ExternalProjectMapping
	var projectID, meta sql.NullString
	var createdAt string
	if err := scan(&m.ID, &m.IntegrationID, &m.ExternalProjectID, &m.SpaceID, &projectID, &meta, &createdAt); err != nil {
		return nil, err
	}
	m.ProjectID = strPtr(projectID)
	if meta.Valid && meta.String != "" {
		var pm types.ProjectExternalMeta
		if types.UnmarshalMeta(meta.String, &pm) {
			m.Meta = &pm
		}
	}
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

// metaJSON serializes external metadata, writing "" for nil pointers so
// typed-nil values do not end up as the literal string "null".
func metaJSON(v interface{}) string {
	switch m := v.(type) {
	case *types.ProjectExternalMeta:
		if m == nil {
			return ""
		}
	case *types.TaskExternalMeta:
		if m == nil {
			return ""
		}
	case *types.StatusExternalMeta:
		if m == nil {
			return ""
		}
	case nil:
		return ""
	}
	return types.MarshalMeta(v)
}
