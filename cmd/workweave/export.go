package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/workweave/workweave/internal/tracker"
)

var (
	exportWorkspace  string
	exportSpace      string
	exportProject    string
	exportKey        string
	exportName       string
	exportCreate     bool
	exportStatusFile string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Push unlinked local tasks to an external project",
	Long: `Export pushes every task without an external link to the tracker,
creating the target project first with --create. Individual task failures
are reported and counted; the rest of the batch still goes out.

The optional --status-map file maps local status ids to external status
names:

    <local status id>: In Progress
    <local status id>: Done`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		workspaceID, err := resolveWorkspace(exportWorkspace)
		if err != nil {
			return err
		}
		spaceID, err := ensureSpace(ctx, exportSpace, workspaceID)
		if err != nil {
			return err
		}
		statusMapping, err := loadStatusMap(exportStatusFile)
		if err != nil {
			return err
		}

		result, err := engine.Export(ctx, cfg.Credentials(), tracker.ExportOptions{
			WorkspaceID:      workspaceID,
			SpaceID:          spaceID,
			ProjectID:        exportProject,
			ProjectKey:       exportKey,
			ProjectName:      exportName,
			CreateNewProject: exportCreate,
			StatusMapping:    statusMapping,
		})
		if err != nil {
			return err
		}
		notify(ctx, result.Events)

		if jsonOutput {
			outputJSON(result)
			return nil
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %d of %d tasks exported to %s", green("✓"), result.ExportedCount, result.TotalCount, result.ProjectKey)
		if result.FailedCount > 0 {
			fmt.Printf(" (%s)", color.RedString("%d failed", result.FailedCount))
		}
		fmt.Println()
		for _, t := range result.ExportedTasks {
			fmt.Printf("  %s", t.ExternalKey)
			if t.URL != "" {
				fmt.Printf("  %s", t.URL)
			}
			fmt.Println()
		}
		return nil
	},
}

// loadStatusMap reads a local-status-id to external-status-name YAML map.
func loadStatusMap(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 - path supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("read status map: %w", err)
	}
	var mapping map[string]string
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parse status map: %w", err)
	}
	return mapping, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportWorkspace, "workspace", "", "workspace id (defaults to config)")
	exportCmd.Flags().StringVar(&exportSpace, "space", "", "space id (defaults to config)")
	exportCmd.Flags().StringVar(&exportProject, "project", "", "local project id to export (default: whole space)")
	exportCmd.Flags().StringVar(&exportKey, "key", "", "external project key (required)")
	exportCmd.Flags().StringVar(&exportName, "name", "", "external project name when creating")
	exportCmd.Flags().BoolVar(&exportCreate, "create", false, "create the external project first")
	exportCmd.Flags().StringVar(&exportStatusFile, "status-map", "", "YAML file mapping local status ids to external status names")
	_ = exportCmd.MarkFlagRequired("key")
	jiraCmd.AddCommand(exportCmd)
}
