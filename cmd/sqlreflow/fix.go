package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/diagfmt"
	"sqlreflow/internal/driver"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file.sql|directory>...",
	Short: "Rewrite files with corrected layout",
	Long:  "Lint, apply every non-conflicting fix and repeat until the layout settles. Files are rewritten in place unless --diff or --check is given.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("diff", false, "print a unified diff instead of writing files")
	fixCmd.Flags().Bool("check", false, "exit with 1 if any file would change; write nothing")
}

func runFix(cmd *cobra.Command, args []string) error {
	showDiff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.cleanup()

	files, err := driver.ListSQLFiles(args, s.exclude...)
	if err != nil {
		return err
	}
	write := !showDiff && !check
	var results []driver.FixResult
	if !showDiff && shouldUseTUI(s.ui, len(files)) {
		results, err = withProgress("fix", files, func(sink driver.ProgressSink) ([]driver.FixResult, error) {
			run := s.run
			run.Progress = sink
			return driver.FixPaths(cmd.Context(), s.fileSet, files, run, write)
		})
	} else {
		results, err = driver.FixPaths(cmd.Context(), s.fileSet, files, s.run, write)
	}
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var (
		changed int
		bags    []*diag.Bag
	)
	for _, r := range results {
		bags = append(bags, r.Remaining)
		if !r.Changed {
			continue
		}
		changed++
		switch {
		case showDiff:
			before := s.fileSet.Get(r.Original).Content
			after := s.fileSet.Get(r.Final).Content
			if err := diagfmt.UnifiedDiff(out, r.Path, before, after, s.color); err != nil {
				return err
			}
		case check:
			fmt.Fprintf(out, "would reformat %s\n", r.Path)
		case !s.quiet:
			fmt.Fprintf(out, "fixed %s (%d fix(es), %d loop(s))\n", r.Path, r.Applied, r.Loops)
		}
	}

	// Whatever the loop could not repair is reported like lint does.
	for _, bag := range bags {
		if bag == nil {
			continue
		}
		if err := diagfmt.Pretty(errOut, bag, s.fileSet, diagfmt.PrettyOpts{Color: s.color}); err != nil {
			return err
		}
	}
	s.printTimings(cmd.ErrOrStderr())
	s.dumpOnInvariant(errOut, bags...)

	if !s.quiet {
		verb := "changed"
		if check || showDiff {
			verb = "would change"
		}
		fmt.Fprintf(errOut, "%d file(s), %d %s\n", len(results), changed, verb)
	}

	for _, bag := range bags {
		if bag != nil && bag.HasErrors() {
			return &exitError{code: exitFailure}
		}
	}
	if check && changed > 0 {
		return &exitError{code: exitFindings}
	}
	return nil
}
