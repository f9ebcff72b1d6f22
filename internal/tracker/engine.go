package tracker

import (
	"context"
	"fmt"

	"github.com/workweave/workweave/internal/jira"
	"github.com/workweave/workweave/internal/storage"
	"github.com/workweave/workweave/internal/telemetry"
	"github.com/workweave/workweave/internal/types"
)

// Engine orchestrates Import, Export and Sync against one workspace store.
// Storage is injected explicitly; the engine never reaches for ambient
// global state.
type Engine struct {
	Store storage.Storage

	// NewClient builds the tracker client for a set of credentials.
	// Defaults to jira.NewClient; tests substitute a fake.
	NewClient func(creds Credentials) Client

	// Callbacks for UI feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)
}

// NewEngine creates a sync engine over the given store.
func NewEngine(store storage.Storage) *Engine {
	return &Engine{Store: store}
}

func (e *Engine) client(creds Credentials) Client {
	if e.NewClient != nil {
		return e.NewClient(creds)
	}
	return jira.NewClient(creds.Domain, creds.Email, creds.APIToken)
}

func (e *Engine) msg(format string, args ...interface{}) {
	if e.OnMessage != nil {
		e.OnMessage(fmt.Sprintf(format, args...))
	}
}

// warn emits a warning through the callback and appends it to the
// result's warning list.
func (e *Engine) warn(warnings *[]string, format string, args ...interface{}) {
	w := fmt.Sprintf(format, args...)
	if e.OnWarning != nil {
		e.OnWarning(w)
	}
	if warnings != nil {
		*warnings = append(*warnings, w)
	}
}

// upsertIntegration refreshes the single integration row for the
// workspace from the supplied credentials.
func (e *Engine) upsertIntegration(ctx context.Context, workspaceID string, creds Credentials) (*types.IntegrationConfig, error) {
	cfg, err := e.Store.UpsertIntegration(ctx, &types.IntegrationConfig{
		WorkspaceID: workspaceID,
		Provider:    types.ProviderJira,
		Domain:      creds.Domain,
		Email:       creds.Email,
		APIToken:    creds.APIToken,
		Active:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert integration: %w", err)
	}
	return cfg, nil
}

// insertStatuses bulk-inserts statuses, falling back to per-item inserts
// when the batch hits a duplicate external id so a racing writer's row
// wins benignly. Returns the number actually created.
func (e *Engine) insertStatuses(ctx context.Context, statuses []*types.Status) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	err := e.Store.CreateStatuses(ctx, statuses)
	if err == nil {
		return len(statuses), nil
	}
	if !storage.IsConflict(err) {
		return 0, err
	}

	created := 0
	for _, st := range statuses {
		err := e.Store.CreateStatuses(ctx, []*types.Status{st})
		switch {
		case err == nil:
			created++
		case storage.IsConflict(err):
			// Existing row wins; pick up its id for the caller's map.
			if st.ExternalID != nil {
				if existing, lookupErr := e.Store.GetStatusByExternalID(ctx, *st.ExternalID); lookupErr == nil {
					st.ID = existing.ID
				}
			}
		default:
			return created, err
		}
	}
	return created, nil
}

// insertTasks mirrors insertStatuses for task batches.
func (e *Engine) insertTasks(ctx context.Context, tasks []*types.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	err := e.Store.CreateTasks(ctx, tasks)
	if err == nil {
		return len(tasks), nil
	}
	if !storage.IsConflict(err) {
		return 0, err
	}

	created := 0
	for _, t := range tasks {
		err := e.Store.CreateTasks(ctx, []*types.Task{t})
		switch {
		case err == nil:
			created++
		case storage.IsConflict(err):
			if t.ExternalID != nil {
				if existing, lookupErr := e.Store.GetTaskByExternalID(ctx, *t.ExternalID); lookupErr == nil {
					t.ID = existing.ID
				}
			}
		default:
			return created, err
		}
	}
	return created, nil
}

// record emits operation counters when telemetry is enabled.
func record(ctx context.Context, op string, created, updated, failed int) {
	telemetry.RecordSync(ctx, op, int64(created), int64(updated), int64(failed))
}
