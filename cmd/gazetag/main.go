// Package main provides the CLI entrypoint for gazetag.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/gazetag/internal/config"
	"github.com/verte-zerg/gazetag/internal/interest"
	"github.com/verte-zerg/gazetag/internal/predicate"
)

const (
	defaultFixationPrefix = "fix"
	defaultSaccadePrefix  = "sacc"
	defaultConflicts      = "ask"
	defaultLogFormat      = "console"
	defaultConflictRows   = 10
)

var (
	logFormat string
	verbose   bool
	dbPath    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gazetag",
		Short:         "Classify eye-tracking events with CCRRFF category codes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", defaultLogFormat, "log format (console or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "pass history database (default: $XDG_DATA_HOME/gazetag/gazetag.db)")

	rootCmd.AddCommand(newFilterCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newLabelCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
	return fileCfg, nil
}

func resolveDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return config.DefaultDBPath()
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
	path := config.DefaultConfigPath()
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

// overrideString replaces target with value when the config sets it.
func overrideString(target *string, value *string) {
	if value != nil && *value != "" {
		*target = *value
	}
}

func defaultConfigTemplate() string {
	layout := interest.DefaultLayout()
	return fmt.Sprintf(`# gazetag configuration
# Uncomment a value to enable it. CLI flags override config values.

[filter]
# fixation-prefix = %q     # Event label prefix of fixations (case-insensitive)
# saccade-prefix = %q     # Event label prefix of saccades (case-insensitive)
# noise-threshold = %.1f    # Horizontal saccade movement ignored as noise (pixels)
# conflicts = %q           # ask, new or existing
# regions-file = ""         # Region order, one name per line

[columns]
# type = "type"
# region = "region"
# previous-region = "previous_region"
# first-pass = "first_pass"
# region-pass = "region_pass"
# fix-count-region = "fix_count_region"
# fix-count-word = "fix_count_word"
# condition = "condition"
# item = "item"
# sacc-start-x = "sacc_start_x"
# sacc-end-x = "sacc_end_x"
# category = "category"

[layout]
# offset = %.1f             # X position of the first character (pixels)
# ppc = %.1f                 # Pixels per character

[log]
# format = %q         # console or json
`,
		defaultFixationPrefix,
		defaultSaccadePrefix,
		predicate.DefaultNoiseThreshold,
		defaultConflicts,
		layout.Offset,
		layout.PixelsPerChar,
		defaultLogFormat,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
