// Package main provides the CLI entrypoint for simonsays.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/simonsays/internal/config"
	"github.com/verte-zerg/simonsays/internal/history"
)

const (
	defaultDelay     = 0.1
	defaultSettle    = 0.2
	defaultTrigger   = "mouse3"
	defaultCountdown = 3.0
	defaultLast      = 20
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "simonsays",
		Short:         "Replay mouse and keyboard scripts against named screen locations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newRemapCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newLocateCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newRecordingsCmd())
	rootCmd.AddCommand(newLocationsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// settings is the merged environment and file configuration.
type settings struct {
	env   config.EnvConfig
	file  config.FileConfig
	paths config.Paths
}

func loadSettings() (settings, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return settings{}, fmt.Errorf("failed to read environment: %w", err)
	}
	fileCfg, err := config.LoadConfig(env.ResolveConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	return settings{
		env:   env,
		file:  fileCfg,
		paths: config.ResolvePaths(env, fileCfg.Paths),
	}, nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openHistory opens the run database. Failures are logged and yield nil.
func openHistory(path string) *history.Store {
	st, err := history.Open(path)
	if err != nil {
		logErrf("history disabled: failed to open db: %v\n", err)
		return nil
	}
	return st
}

func closeHistory(st *history.Store) {
	if st == nil {
		return
	}
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	env, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	path := env.ResolveConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# simonsays configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# delay = %.1f               # Seconds between actions
# settle = %.1f              # Seconds between moving the pointer and pressing a button
# trigger = %q         # mouse3, f1 or countdown
# countdown = %.0f             # Seconds to wait with the countdown trigger
# restore-clipboard = true    # Put the previous clipboard back after each paste
# paste-modifier = "cmd"      # Modifier for the paste keystroke (cmd or ctrl)
# smooth = true               # Animate pointer moves

[remap]
# tui = true                  # Use the full-screen remap interface on a terminal

[paths]
# recordings = "~/simonsays/recordings"
# database = %q
# locations = "locations.json"
`,
		defaultDelay,
		defaultSettle,
		defaultTrigger,
		defaultCountdown,
		config.DefaultDBPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
