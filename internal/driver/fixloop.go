package driver

import (
	"errors"
	"fmt"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/fix"
	"sqlreflow/internal/source"
	"sqlreflow/internal/trace"
)

// maxFixLoops bounds the lint/apply cycle for one file.
const maxFixLoops = 10

// FixResult describes the repair of one file. Every intermediate version
// is registered in the FileSet; Final is the last one.
type FixResult struct {
	Path      string
	Original  source.FileID
	Final     source.FileID
	Loops     int
	Applied   int
	Skipped   int
	Changed   bool
	Remaining *diag.Bag // diagnostics of the final version
}

// FixFile lints the file, applies every non-conflicting fix in memory and
// repeats on the patched text until nothing is left to apply. Files with
// parse errors are left alone. Nothing is written to disk; see Write.
func FixFile(fs *source.FileSet, id source.FileID, opts Options) (FixResult, error) {
	span := trace.Begin(opts.tracer(), trace.ScopeFile, "fix:"+fs.DisplayPath(id), opts.Parent)
	defer span.End("")
	opts.Parent = span.ID()

	out := FixResult{Path: fs.DisplayPath(id), Original: id, Final: id}
	for out.Loops < maxFixLoops {
		res, err := LintFile(fs, out.Final, opts)
		if err != nil {
			return out, err
		}
		out.Remaining = res.Bag
		if res.Bag.HasErrors() {
			return out, nil
		}

		applied, err := fix.Apply(fs, res.Bag.Items(), fix.ApplyOptions{Mode: fix.ApplyModeAll})
		if errors.Is(err, fix.ErrNoFixes) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%s: %w", out.Path, err)
		}
		out.Loops++
		out.Applied += len(applied.Applied)
		out.Skipped += len(applied.Skipped)
		if len(applied.FileChanges) == 0 {
			return out, nil
		}
		file := fs.Get(out.Final)
		out.Final = fs.Add(file.Path, applied.FileChanges[0].Content, file.Flags)
		out.Changed = true
		trace.Point(opts.tracer(), trace.ScopePass, span.ID(), "fix.loop",
			fmt.Sprintf("loop=%d applied=%d skipped=%d", out.Loops, len(applied.Applied), len(applied.Skipped)))
	}

	// Out of loops: report what is still there plus the fact that it did
	// not settle.
	res, err := LintFile(fs, out.Final, opts)
	if err != nil {
		return out, err
	}
	out.Remaining = res.Bag
	if res.Bag.Len() > 0 {
		res.Bag.Add(diag.NewWarning(diag.InternalUnconverged, source.At(out.Final, 0),
			fmt.Sprintf("layout did not settle after %d fix loops", maxFixLoops)))
	}
	return out, nil
}

// Write stores the final version of a fixed file over the original path.
// Virtual files and unchanged files are skipped.
func Write(fs *source.FileSet, res FixResult) (bool, error) {
	if !res.Changed {
		return false, nil
	}
	file := fs.Get(res.Final)
	if file == nil || file.Flags&source.FileVirtual != 0 {
		return false, nil
	}
	if err := fix.WriteFile(file, file.Content); err != nil {
		return false, err
	}
	return true, nil
}
