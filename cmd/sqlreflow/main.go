package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sqlreflow/internal/prof"
	"sqlreflow/internal/version"
)

var rootCmd = &cobra.Command{
	Use:               "sqlreflow",
	Short:             "SQL layout linter and fixer",
	Long:              `sqlreflow checks and repairs whitespace, line breaks and indentation in SQL files`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: startProfiling,
}

// profiling is stopped by main so profiles are written on every exit path.
var profiling *prof.Session

// exitError carries a process exit code out of a command. Commands use it
// to report findings without printing an error.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

const (
	exitFindings = 1
	exitFailure  = 2
)

// main registers subcommands and persistent flags, then executes the root
// command. Findings exit with 1, failures with 2.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Int("max-diagnostics", 1000, "maximum number of diagnostics per file")
	flags.String("config", "", "configuration file (default: nearest .sqlreflow.toml)")
	flags.StringSlice("rules", nil, "only report these rule codes, e.g. LT01,LT02")
	flags.StringSlice("exclude", nil, "skip walked paths matching these globs, e.g. 'vendor/**'")
	flags.IntP("jobs", "j", 0, "files processed in parallel (0 = GOMAXPROCS)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|line)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "events kept for crash dumps")
	flags.String("ui", "auto", "progress display for multi-file runs (auto|on|off)")
	flags.Bool("timings", false, "print per-phase timings to stderr")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file")
	flags.String("runtime-trace", "", "write a runtime trace to this file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if stopErr := profiling.Stop(); stopErr != nil {
		fmt.Fprintln(os.Stderr, "sqlreflow: profiling:", stopErr)
	}
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "sqlreflow:", err)
		os.Exit(exitFailure)
	}
}

func startProfiling(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return err
	}
	if cfg.Mem, err = flags.GetString("mem-profile"); err != nil {
		return err
	}
	if cfg.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return err
	}
	if cfg == (prof.Config{}) {
		return nil
	}
	profiling, err = prof.Start(cfg)
	if err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	return nil
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
