package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/diagfmt"
	"sqlreflow/internal/driver"
	"sqlreflow/internal/segment"
)

var lintCmd = &cobra.Command{
	Use:   "lint [flags] <file.sql|directory>...",
	Short: "Report layout problems",
	Long:  "Parse SQL files and report spacing, indentation and line-break problems. Directories are searched for *.sql files.",
	Args: func(cmd *cobra.Command, args []string) error {
		tree, _ := cmd.Flags().GetString("tree")
		if tree == "" && len(args) == 0 {
			return fmt.Errorf("requires at least 1 path or --tree")
		}
		return nil
	},
	RunE: runLint,
}

func init() {
	lintCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	lintCmd.Flags().Bool("show-fixes", false, "print the lines each fix would produce")
	lintCmd.Flags().Bool("no-cache", false, "do not read or write the lint cache")
	lintCmd.Flags().Bool("clear-cache", false, "drop the lint cache before running")
	lintCmd.Flags().String("tree", "", "lint a segment tree dump written by 'tokenize --tree'")
	lintCmd.Flags().Bool("watch", false, "keep running and re-lint files as they change")
}

func runLint(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	showFixes, err := cmd.Flags().GetBool("show-fixes")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return err
	}
	treePath, err := cmd.Flags().GetString("tree")
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	if watch && len(args) == 0 {
		return fmt.Errorf("--watch requires at least 1 path")
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.cleanup()

	var results []driver.FileResult
	if treePath != "" {
		res, err := lintTree(s, treePath)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	if len(args) > 0 {
		if !noCache {
			cache, err := driver.OpenDiskCache("sqlreflow")
			if err != nil && !s.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: lint cache disabled: %v\n", err)
			}
			if clearCache && cache != nil {
				if err := cache.DropAll(); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
			}
			s.run.Cache = cache
		}
		files, err := driver.ListSQLFiles(args, s.exclude...)
		if err != nil {
			return err
		}
		var fileResults []driver.FileResult
		if format != "json" && shouldUseTUI(s.ui, len(files)) {
			fileResults, err = withProgress("lint", files, func(sink driver.ProgressSink) ([]driver.FileResult, error) {
				run := s.run
				run.Progress = sink
				return driver.LintPaths(cmd.Context(), s.fileSet, files, run)
			})
		} else {
			fileResults, err = driver.LintPaths(cmd.Context(), s.fileSet, files, s.run)
		}
		if err != nil {
			return err
		}
		results = append(results, fileResults...)
	}

	bags, err := printLintResults(cmd, s, results, format, showFixes)
	if err != nil {
		return err
	}
	s.printTimings(cmd.ErrOrStderr())
	s.dumpOnInvariant(cmd.ErrOrStderr(), bags...)

	if watch {
		return watchLint(cmd, s, args, format, showFixes)
	}
	return exitFor(bags...)
}

// printLintResults writes results in format and returns their bags.
func printLintResults(cmd *cobra.Command, s *session, results []driver.FileResult, format string, showFixes bool) ([]*diag.Bag, error) {
	bags := make([]*diag.Bag, 0, len(results))
	var all []diag.Diagnostic
	for _, r := range results {
		bags = append(bags, r.Bag)
		all = append(all, r.Bag.Items()...)
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		if err := diagfmt.JSON(out, all, s.fileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeFixes:     true,
			IncludePreviews:  showFixes,
		}); err != nil {
			return nil, err
		}
	case "short":
		if text := diag.FormatShortDiagnostics(all, s.fileSet, false); text != "" {
			fmt.Fprintln(out, text)
		}
	default:
		for _, bag := range bags {
			if err := diagfmt.Pretty(out, bag, s.fileSet, diagfmt.PrettyOpts{
				Color:     s.color,
				Context:   1,
				ShowFixes: showFixes,
			}); err != nil {
				return nil, err
			}
		}
	}
	if !s.quiet && format != "json" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d file(s), %d problem(s)\n", len(results), len(all))
	}
	return bags, nil
}

// watchLint re-lints changed files until the command context is cancelled.
// The cache stays in use, so unchanged content is not linted twice.
func watchLint(cmd *cobra.Command, s *session, args []string, format string, showFixes bool) error {
	if !s.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes (Ctrl-C to stop)")
	}
	return driver.Watch(cmd.Context(), args, driver.WatchOptions{
		Exclude: s.exclude,
		OnError: func(err error) { fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err) },
	}, func(files []string) {
		results, err := driver.LintPaths(cmd.Context(), s.fileSet, files, s.run)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "lint: %v\n", err)
			return
		}
		if _, err := printLintResults(cmd, s, results, format, showFixes); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "lint: %v\n", err)
		}
	})
}

func lintTree(s *session, path string) (driver.FileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return driver.FileResult{}, err
	}
	defer f.Close()
	root, err := segment.Decode(f)
	if err != nil {
		return driver.FileResult{}, fmt.Errorf("%s: %w", path, err)
	}
	return driver.LintTree(s.fileSet, path, root, s.run.Options)
}
