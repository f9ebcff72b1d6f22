// workweave syncs a local workspace with an external Jira-compatible
// issue tracker: import projects, export tasks, and keep linked projects
// reconciled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/workweave/workweave/internal/config"
	"github.com/workweave/workweave/internal/notification"
	"github.com/workweave/workweave/internal/storage"
	"github.com/workweave/workweave/internal/storage/sqlite"
	"github.com/workweave/workweave/internal/telemetry"
	"github.com/workweave/workweave/internal/tracker"
)

var version = "dev"

var (
	configPath string
	dbPath     string
	jsonOutput bool

	cfg    *config.Config
	store  storage.Storage
	engine *tracker.Engine

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "workweave",
	Short:         "Sync a local workspace with an external issue tracker",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}

		if err := telemetry.Init(cmd.Context(), "workweave", version); err != nil {
			return err
		}

		store, err = sqlite.New(cmd.Context(), cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
		}

		engine = tracker.NewEngine(store)
		engine.OnMessage = func(msg string) {
			if !jsonOutput {
				fmt.Println(msg)
			}
		}
		engine.OnWarning = func(msg string) {
			if !jsonOutput {
				fmt.Fprintln(os.Stderr, color.YellowString("warning: %s", msg))
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to workweave.yaml")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the workspace database (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON")
}

// notify delivers the engine's completion events best effort. Delivery
// failures are reported but never change the exit code.
func notify(ctx context.Context, events []tracker.SyncEvent) {
	if len(events) == 0 {
		return
	}
	dispatcher := notification.NewDispatcher(cfg.NotificationConfig())
	for _, result := range dispatcher.DispatchAll(ctx, events) {
		if !result.Success && !jsonOutput {
			fmt.Fprintln(os.Stderr, color.YellowString("notify %s: %s", result.Channel, result.Error))
		}
	}
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
