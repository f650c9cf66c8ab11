package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/devlaunch"
	"github.com/loykin/devlaunch/internal/toolcheck"
	"github.com/spf13/cobra"
)

// GlobalFlags holds persistent flags shared by all subcommands
type GlobalFlags struct {
	ConfigPath string
}

// UpFlags holds flags for the up command
type UpFlags struct {
	NoBrowser    bool
	StatusListen string
}

// HistoryFlags holds flags for the history command
type HistoryFlags struct {
	Limit int
	RunID int64
}

// buildRoot creates the root command with all subcommands attached
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	upFlags := &UpFlags{}
	historyFlags := &HistoryFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createUpCommand(globalFlags, upFlags),
		createDoctorCommand(globalFlags),
		createHistoryCommand(globalFlags, historyFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "devlaunch",
		Short: "Local development environment launcher",
		Long: `Devlaunch starts a full local development environment: it checks required
tools, clears stale processes, starts the backend and frontend, waits for
each to become ready, and keeps watching them until interrupted.

Examples:
  devlaunch up                       # Start with built-in defaults
  devlaunch up --config=dev.toml     # Start with a config file
  devlaunch doctor                   # Verify required tools only
  devlaunch history --limit=10       # Show recent runs`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

// createUpCommand creates the up subcommand
func createUpCommand(globalFlags *GlobalFlags, upFlags *UpFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the development environment",
		Long: `Start the backend and frontend, wait for both to become ready, and block
until Ctrl+C. On interrupt every started process is stopped in reverse
order.

Examples:
  devlaunch up
  devlaunch up --no-browser
  devlaunch up --status-listen=127.0.0.1:9999   # Expose the local status API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(globalFlags, upFlags)
		},
	}

	cmd.Flags().BoolVar(&upFlags.NoBrowser, "no-browser", false, "do not open the browser when ready")
	cmd.Flags().StringVar(&upFlags.StatusListen, "status-listen", "", "address for the local status API (overrides config)")

	return cmd
}

func runUp(globalFlags *GlobalFlags, upFlags *UpFlags) error {
	cfg, err := devlaunch.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}
	if upFlags.NoBrowser {
		cfg.OpenBrowser = false
	}
	if upFlags.StatusListen != "" {
		if cfg.Server == nil {
			cfg.Server = &devlaunch.ServerConfig{}
		}
		cfg.Server.Listen = upFlags.StatusListen
	}

	slog.SetDefault(devlaunch.NewLogger(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return devlaunch.New(cfg).Run(ctx)
}

// createDoctorCommand creates the doctor subcommand
func createDoctorCommand(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify required development tools",
		Long: `Check that every required tool (node, npm, ...) responds to its version
probe, without starting anything.

Examples:
  devlaunch doctor
  devlaunch doctor --config=dev.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, globalFlags)
		},
	}
	return cmd
}

func runDoctor(cmd *cobra.Command, globalFlags *GlobalFlags) error {
	cfg, err := devlaunch.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	results, err := toolcheck.Verify(ctx, cfg.Tools)
	for _, r := range results {
		cmd.Printf("%s %s\n", r.Name, r.Version)
	}
	if err != nil {
		return err
	}
	cmd.Println("all required tools are available")
	return nil
}

// createHistoryCommand creates the history subcommand
func createHistoryCommand(globalFlags *GlobalFlags, historyFlags *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent launcher runs",
		Long: `Show recent launcher runs recorded in the history database, or the
service events of one run.

Examples:
  devlaunch history --limit=10
  devlaunch history --run=3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, globalFlags, historyFlags)
		},
	}

	cmd.Flags().IntVar(&historyFlags.Limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().Int64Var(&historyFlags.RunID, "run", 0, "show events for a specific run")

	return cmd
}

func runHistory(cmd *cobra.Command, globalFlags *GlobalFlags, historyFlags *HistoryFlags) error {
	cfg, err := devlaunch.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.History == nil || cfg.History.Path == "" {
		return fmt.Errorf("history is not configured; set [history] path in the config file")
	}
	if _, err := os.Stat(cfg.History.Path); err != nil {
		return fmt.Errorf("no history database at %s", cfg.History.Path)
	}

	ctx := cmd.Context()
	store, err := devlaunch.OpenHistory(ctx, cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if historyFlags.RunID > 0 {
		events, err := store.EventsForRun(ctx, historyFlags.RunID)
		if err != nil {
			return err
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %-8s %-10s pid=%d", e.At.Format(time.RFC3339), e.Kind, e.Service, e.PID)
			if e.ExitCode.Valid {
				line += fmt.Sprintf(" exit=%d", e.ExitCode.Int64)
			}
			cmd.Println(line)
		}
		return nil
	}

	runs, err := store.RecentRuns(ctx, historyFlags.Limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		ended := "running"
		if r.EndedAt.Valid {
			ended = r.EndedAt.Time.Format(time.RFC3339)
		}
		cmd.Printf("run %-4d started=%s ended=%s events=%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339), ended, r.Events)
	}
	return nil
}
