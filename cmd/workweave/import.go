package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/workweave/workweave/internal/tracker"
)

var (
	importWorkspace  string
	importSpace      string
	importProjects   []string
	importMaxResults int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import external projects into the workspace",
	Long: `Import pulls the selected tracker projects into the local workspace:
one local project per external project, their statuses, and their issues
as tasks with parent links preserved. Re-running an import only picks up
issues that are new since the last run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		workspaceID, err := resolveWorkspace(importWorkspace)
		if err != nil {
			return err
		}
		spaceID, err := ensureSpace(ctx, importSpace, workspaceID)
		if err != nil {
			return err
		}

		result, err := engine.Import(ctx, cfg.Credentials(), tracker.ImportOptions{
			WorkspaceID: workspaceID,
			SpaceID:     spaceID,
			ProjectKeys: importProjects,
			MaxResults:  importMaxResults,
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
		fmt.Printf("%s %d projects, %d statuses, %d tasks imported (%d skipped)\n",
			green("✓"), result.ProjectsCreated, result.StatusesCreated, result.TasksCreated, result.TasksSkipped)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importWorkspace, "workspace", "", "workspace id (defaults to config)")
	importCmd.Flags().StringVar(&importSpace, "space", "", "space id (defaults to config)")
	importCmd.Flags().StringSliceVar(&importProjects, "projects", nil, "external project keys to import (required)")
	importCmd.Flags().IntVar(&importMaxResults, "max-results", 0, "max issues fetched per project (default 100)")
	_ = importCmd.MarkFlagRequired("projects")
	jiraCmd.AddCommand(importCmd)
}
