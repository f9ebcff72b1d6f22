package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/workweave/workweave/internal/types"
)

// GetSpace fetches a space by id.
func (s *Store) GetSpace(ctx context.Context, id string) (*types.Space, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, name, created_at, updated_at FROM spaces WHERE id = ?
	`, id)
	var sp types.Space
	var createdAt, updatedAt string
	if err := row.Scan(&sp.ID, &sp.WorkspaceID, &sp.Name, &createdAt, &updatedAt); err != nil {
		return nil, wrapDBError("get space", err)
	}
	sp.CreatedAt = parseTime(createdAt)
	sp.UpdatedAt = parseTime(updatedAt)
	return &sp, nil
}

// CreateSpace inserts a new space.
func (s *Store) CreateSpace(ctx context.Context, sp *types.Space) error {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	now := formatTime(time.Now().UTC())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spaces (id, workspace_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`, sp.ID, sp.WorkspaceID, sp.Name, now, now)
	return wrapDBError("create space", err)
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, space_id, name, description, external_id, external_key, external_data, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)

	var p types.Project
	var externalID, externalKey, externalData sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.SpaceID, &p.Name, &p.Description, &externalID, &externalKey, &externalData, &createdAt, &updatedAt)
	if err != nil {
		return nil, wrapDBError("get project", err)
	}
	p.ExternalID = strPtr(externalID)
	p.ExternalKey = strPtr(externalKey)
	if externalData.Valid && externalData.String != "" {
		var meta types.ProjectExternalMeta
		if types.UnmarshalMeta(externalData.String, &meta) {
			p.ExternalData = &meta
		}
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// CreateProject inserts a new project.
func (s *Store) CreateProject(ctx context.Context, p *types.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := formatTime(time.Now().UTC())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, space_id, name, description, external_id, external_key, external_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.SpaceID, p.Name, p.Description, nullStr(p.ExternalID), nullStr(p.ExternalKey), metaJSON(p.ExternalData), now, now)
	return wrapDBError("create project", err)
}

// UpdateProject rewrites the mutable fields of a project.
func (s *Store) UpdateProject(ctx context.Context, p *types.Project) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET
			name = ?, description = ?, external_id = ?, external_key = ?, external_data = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Description, nullStr(p.ExternalID), nullStr(p.ExternalKey), metaJSON(p.ExternalData), formatTime(time.Now().UTC()), p.ID)
	if err != nil {
		return wrapDBError("update project", err)
	}
	return requireRow(res, "update project")
}

// TouchProject bumps a project's updated_at.
func (s *Store) TouchProject(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return wrapDBError("touch project", err)
	}
	return requireRow(res, "touch project")
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(op, err)
	}
	if n == 0 {
		return wrapDBError(op, sql.ErrNoRows)
	}
	return nil
}
