package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/workweave/workweave/internal/tracker"
)

var (
	syncProject    string
	syncMaxResults int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a linked project with its external tracker",
	Long: `Sync re-fetches the external project a local project is linked to and
reconciles statuses and tasks: existing rows are refreshed in place, new
external issues become new tasks. Credentials come from the integration
stored by a previous import or export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		result, err := engine.Sync(ctx, tracker.SyncOptions{
			ProjectID:  syncProject,
			MaxResults: syncMaxResults,
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
		fmt.Printf("%s %d tasks updated, %d created; %d statuses updated, %d created\n",
			green("✓"), result.TasksUpdated, result.TasksCreated, result.StatusesUpdated, result.StatusesCreated)
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncProject, "project", "", "local project id to sync (required)")
	syncCmd.Flags().IntVar(&syncMaxResults, "max-results", 0, "max issues fetched (default 100)")
	_ = syncCmd.MarkFlagRequired("project")
	jiraCmd.AddCommand(syncCmd)
}
