package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/daybook/internal/platform"
	"github.com/aretw0/daybook/pkg/core"
)

var (
	verbose    bool
	jsonOutput bool
	dataDir    string
	adapter    string
	readOnly   bool
	configPath string

	cfg    = platform.DefaultConfig()
	logger = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "A local-first store for todos, notes, goals, a journal and a pomodoro timer",
	Long: `daybook keeps your todos, notes, goals, daily journal and pomodoro timer
in a single JSON document in your user data directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := platform.LoadConfig(configPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("data-dir") {
			c.DataDir = dataDir
		}
		if flags.Changed("adapter") {
			c.Adapter = adapter
		}
		if flags.Changed("read-only") {
			c.ReadOnly = readOnly
		}
		if verbose {
			c.LogLevel = "debug"
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		level, _ := platform.ParseLevel(c.LogLevel)
		logger = newLogger(cmd.ErrOrStderr(), c.LogFormat, level)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", core.Message(err))
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	flags.StringVar(&dataDir, "data-dir", "", "Data directory (default: per-user data directory)")
	flags.StringVar(&adapter, "adapter", platform.AdapterFS, "Storage adapter (fs, sqlite)")
	flags.BoolVar(&readOnly, "read-only", false, "Open the data without allowing changes")
	flags.StringVar(&configPath, "config", "", "Config file (default: <user config dir>/daybook/config.toml)")
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// withService opens the configured store, runs fn and closes the store.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *core.Service) error) error {
	opts := append(cfg.Options(), platform.WithLogger(logger))
	svc, err := platform.New(cfg.DataDir, opts...)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	runErr := fn(ctx, svc)
	if err := svc.Close(ctx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// emit prints v as JSON with --json, otherwise calls text.
func emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}
	text(w)
	return nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
