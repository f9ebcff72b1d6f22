package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/workweave/workweave/internal/types"
)

// UpsertIntegration creates or refreshes the integration row for
// (workspace, provider). Last writer wins.
func (s *Store) UpsertIntegration(ctx context.Context, cfg *types.IntegrationConfig) (*types.IntegrationConfig, error) {
	now := time.Now().UTC()
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	active := 0
	if cfg.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO integrations (id, workspace_id, provider, domain, email, api_token, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (workspace_id, provider) DO UPDATE SET
			domain = excluded.domain,
			email = excluded.email,
			api_token = excluded.api_token,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, id, cfg.WorkspaceID, cfg.Provider, cfg.Domain, cfg.Email, cfg.APIToken, active, formatTime(now), formatTime(now))
	if err != nil {
		return nil, wrapDBError("upsert integration", err)
	}
	return s.GetIntegration(ctx, cfg.WorkspaceID, cfg.Provider)
}

// GetIntegration fetches the integration row for (workspace, provider).
func (s *Store) GetIntegration(ctx context.Context, workspaceID, provider string) (*types.IntegrationConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, provider, domain, email, api_token, active, created_at, updated_at
		FROM integrations WHERE workspace_id = ? AND provider = ?
	`, workspaceID, provider)
	return scanIntegration(row)
}

func scanIntegration(row *sql.Row) (*types.IntegrationConfig, error) {
	var cfg types.IntegrationConfig
	var active int
	var createdAt, updatedAt string
	err := row.Scan(&cfg.ID, &cfg.WorkspaceID, &cfg.Provider, &cfg.Domain, &cfg.Email, &cfg.APIToken, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, wrapDBError("get integration", err)
	}
	cfg.Active = active != 0
	cfg.CreatedAt = parseTime(createdAt)
	cfg.UpdatedAt = parseTime(updatedAt)
	return &cfg, nil
}
