package main

import "github.com/spf13/cobra"

// jiraCmd groups every tracker operation under one namespace so other
// providers can hang their own subtree off the root later.
var jiraCmd = &cobra.Command{
	Use:   "jira",
	Short: "Import, export, and sync with a Jira-compatible tracker",
}

func init() {
	rootCmd.AddCommand(jiraCmd)
}
