package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/workweave/workweave/internal/types"
)

const taskColumns = `id, name, description, status_id, priority, parent_task_id, project_id, space_id,
	external_id, external_data, sync_status, last_synced_at, created_at, updated_at`

// CreateTasks bulk-inserts tasks in order inside one transaction, so a
// parent inserted earlier in the batch is visible to its children's
// foreign key. A duplicate external id rolls the batch back with
// storage.ErrConflict.
func (s *Store) CreateTasks(ctx context.Context, tasks []*types.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("create tasks", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now().UTC())
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		var lastSynced interface{}
		if t.LastSyncedAt != nil {
			lastSynced = formatTime(*t.LastSyncedAt)
		}
		syncStatus := t.SyncStatus
		if syncStatus == "" {
			syncStatus = types.SyncStatusUnsynced
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Name, t.Description, t.StatusID, string(t.Priority), nullStr(t.ParentTaskID),
			t.ProjectID, t.SpaceID, nullStr(t.ExternalID), metaJSON(t.ExternalData),
			string(syncStatus), lastSynced, now, now)
		if err != nil {
			return wrapDBError("create task", err)
		}
	}
	return wrapDBError("create tasks", tx.Commit())
}

// UpdateTask rewrites the mutable fields of a single task.
func (s *Store) UpdateTask(ctx context.Context, t *types.Task) error {
	return s.UpdateTasks(ctx, []*types.Task{t})
}

// UpdateTasks bulk-updates tasks in order inside one transaction.
func (s *Store) UpdateTasks(ctx context.Context, tasks []*types.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("update tasks", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now().UTC())
	for _, t := range tasks {
		var lastSynced interface{}
		if t.LastSyncedAt != nil {
			lastSynced = formatTime(*t.LastSyncedAt)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks SET
				name = ?, description = ?, status_id = ?, priority = ?, parent_task_id = ?,
				external_id = ?, external_data = ?, sync_status = ?, last_synced_at = ?, updated_at = ?
			WHERE id = ?
		`, t.Name, t.Description, t.StatusID, string(t.Priority), nullStr(t.ParentTaskID),
			nullStr(t.ExternalID), metaJSON(t.ExternalData), string(t.SyncStatus), lastSynced, now, t.ID)
		if err != nil {
			return wrapDBError("update task", err)
		}
		if err := requireRow(res, "update task"); err != nil {
			return err
		}
	}
	return wrapDBError("update tasks", tx.Commit())
}

// GetTaskByExternalID fetches the task mapped to an external issue id.
func (s *Store) GetTaskByExternalID(ctx context.Context, externalID string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE external_id = ?`, externalID)
	t, err := scanTask(row.Scan)
	if err != nil {
		return nil, wrapDBError("get task by external id", err)
	}
	return t, nil
}

// ListTasksByProject lists every task in a project, oldest first.
func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]*types.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at, id`, projectID)
}

// ListTasksBySpace lists every task in a space, oldest first.
func (s *Store) ListTasksBySpace(ctx context.Context, spaceID string) ([]*types.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE space_id = ? ORDER BY created_at, id`, spaceID)
}

// ListExternalTasks lists the externally-linked tasks in a project.
func (s *Store) ListExternalTasks(ctx context.Context, projectID string) ([]*types.Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id = ? AND external_id IS NOT NULL
		ORDER BY created_at, id
	`, projectID)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list tasks", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*types.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, wrapDBError("scan task", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func scanTask(scan func(...interface{}) error) (*types.Task, error) {
	var t types.Task
	var priority, syncStatus string
	var parentID, externalID, externalData, lastSynced sql.NullString
	var createdAt, updatedAt string
	err := scan(&t.ID, &t.Name, &t.Description, &t.StatusID, &priority, &parentID, &t.ProjectID, &t.SpaceID,
		&externalID, &externalData, &syncStatus, &lastSynced, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Priority = types.Priority(priority)
	t.SyncStatus = types.SyncStatus(syncStatus)
	t.ParentTaskID = strPtr(parentID)
	t.ExternalID = strPtr(externalID)
	if externalData.Valid && externalData.String != "" {
		var meta types.TaskExternalMeta
		if types.UnmarshalMeta(externalData.String, &meta) {
			t.ExternalData = &meta
		}
	}
	t.LastSyncedAt = parseTimePtr(lastSynced)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}
