package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/workweave/workweave/internal/types"
)

const statusColumns = `id, name, color, scope, space_id, project_id, position, external_id, external_data, created_at, updated_at`

// CreateStatuses bulk-inserts statuses in order inside one transaction.
// A duplicate external id rolls the batch back with storage.ErrConflict.
func (s *Store) CreateStatuses(ctx context.Context, statuses []*types.Status) error {
	if len(statuses) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("create statuses", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now().UTC())
	for _, st := range statuses {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO statuses (`+statusColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, st.ID, st.Name, string(st.Color), string(st.Scope), nullStr(st.SpaceID), nullStr(st.ProjectID),
			st.Position, nullStr(st.ExternalID), metaJSON(st.ExternalData), now, now)
		if err != nil {
			return wrapDBError("create status", err)
		}
	}
	return wrapDBError("create statuses", tx.Commit())
}

// UpdateStatuses bulk-updates statuses in order inside one transaction.
func (s *Store) UpdateStatuses(ctx context.Context, statuses []*types.Status) error {
	if len(statuses) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("update statuses", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now().UTC())
	for _, st := range statuses {
		res, err := tx.ExecContext(ctx, `
			UPDATE statuses SET name = ?, color = ?, scope = ?, position = ?, external_data = ?, updated_at = ?
			WHERE id = ?
		`, st.Name, string(st.Color), string(st.Scope), st.Position, metaJSON(st.ExternalData), now, st.ID)
		if err != nil {
			return wrapDBError("update status", err)
		}
		if err := requireRow(res, "update status"); err != nil {
			return err
		}
	}
	return wrapDBError("update statuses", tx.Commit())
}

// GetStatusByExternalID fetches the status mapped to an external id.
func (s *Store) GetStatusByExternalID(ctx context.Context, externalID string) (*types.Status, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+statusColumns+` FROM statuses WHERE external_id = ?`, externalID)
	st, err := scanStatus(row.Scan)
	if err != nil {
		return nil, wrapDBError("get status by external id", err)
	}
	return st, nil
}

// ListStatusesBySpace lists every status in a space.
func (s *Store) ListStatusesBySpace(ctx context.Context, spaceID string) ([]*types.Status, error) {
	return s.queryStatuses(ctx, `SELECT `+statusColumns+` FROM statuses WHERE space_id = ? ORDER BY position, name`, spaceID)
}

// ListExternalStatuses lists the vendor-origin statuses in a space.
func (s *Store) ListExternalStatuses(ctx context.Context, spaceID string) ([]*types.Status, error) {
	return s.queryStatuses(ctx, `
		SELECT `+statusColumns+` FROM statuses
		WHERE space_id = ? AND external_id IS NOT NULL
		ORDER BY position, name
	`, spaceID)
}

func (s *Store) queryStatuses(ctx context.Context, query string, args ...interface{}) ([]*types.Status, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list statuses", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*types.Status
	for rows.Next() {
		st, err := scanStatus(rows.Scan)
		if err != nil {
			return nil, wrapDBError("scan status", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func scanStatus(scan func(...interface{}) error) (*types.Status, error) {
	var st types.Status
	var color, scope string
	var spaceID, projectID, externalID, externalData sql.NullString
	var createdAt, updatedAt string
	err := scan(&st.ID, &st.Name, &color, &scope, &spaceID, &projectID, &st.Position, &externalID, &externalData, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	st.Color = types.StatusColor(color)
	st.Scope = types.StatusScope(scope)
	st.SpaceID = strPtr(spaceID)
	st.ProjectID = strPtr(projectID)
	st.ExternalID = strPtr(externalID)
	if externalData.Valid && externalData.String != "" {
		var meta types.StatusExternalMeta
		if types.UnmarshalMeta(externalData.String, &meta) {
			st.ExternalData = &meta
		}
	}
	st.CreatedAt = parseTime(createdAt)
	st.UpdatedAt = parseTime(updatedAt)
	return &st, nil
}
