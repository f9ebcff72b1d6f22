package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/workweave/workweave/internal/tracker"
)

var statusSpace string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored integration and per-project sync state",
	Long: `Status inspects the local store only: the saved tracker connection,
which projects are linked to external ones, how many tasks each has
pushed or pulled, and when they last synced. No tracker calls are made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spaceID := statusSpace
		if spaceID == "" {
			spaceID = cfg.Space
		}
		if spaceID == "" {
			return fmt.Errorf("no space selected: pass --space or set it in the config")
		}

		result, err := engine.Status(cmd.Context(), tracker.StatusOptions{SpaceID: spaceID})
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(result)
			return nil
		}

		if result.Integration == nil {
			fmt.Println("no tracker integration configured")
		} else {
			state := color.GreenString("active")
			if !result.Integration.Active {
				state = color.YellowString("inactive")
			}
			fmt.Printf("jira %s (%s) %s\n", result.Integration.Domain, result.Integration.Email, state)
		}
		fmt.Printf("statuses: %d local, %d linked\n", result.LocalStatuses, result.LinkedStatuses)

		if len(result.Projects) == 0 {
			fmt.Println("no linked projects")
			return nil
		}
		for _, p := range result.Projects {
			name := p.Name
			if name == "" {
				name = "(no local project)"
			}
			line := fmt.Sprintf("  %s -> %s: %d linked tasks", name, p.ExternalKey, p.LinkedTasks)
			if p.LastSyncedAt != nil {
				line += fmt.Sprintf(", last synced %s", p.LastSyncedAt.Format("2006-01-02 15:04"))
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusSpace, "space", "", "space id (defaults to config)")
	jiraCmd.AddCommand(statusCmd)
}
