package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/workweave/workweave/internal/storage"
	"github.com/workweave/workweave/internal/types"
)

// outputJSON marshals v to stdout with indentation.
func outputJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}

// resolveWorkspace picks the workspace id from the flag or config.
func resolveWorkspace(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Workspace != "" {
		return cfg.Workspace, nil
	}
	return "", fmt.Errorf("no workspace configured (set --workspace or the workspace config key)")
}

// ensureSpace resolves the space id from the flag or config, creating the
// space row on first use.
func ensureSpace(ctx context.Context, flag, workspaceID string) (string, error) {
	id := flag
	if id == "" {
		id = cfg.Space
	}
	if id == "" {
		return "", fmt.Errorf("no space configured (set --space or the space config key)")
	}
	_, err := store.GetSpace(ctx, id)
	if err == nil {
		return id, nil
	}
	if !storage.IsNotFound(err) {
		return "", err
	}
	sp := &types.Space{ID: id, WorkspaceID: workspaceID, Name: id}
	if err := store.CreateSpace(ctx, sp); err != nil {
		return "", fmt.Errorf("create space %s: %w", id, err)
	}
	return sp.ID, nil
}
