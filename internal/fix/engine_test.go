package fix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func warning(code diag.Code, primary source.Span, fixes ...diag.Fix) diag.Diagnostic {
	d := diag.NewWarning(code, primary, "test")
	d.Fixes = fixes
	return d
}

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.sql", []byte(""))
	at := span(fileID, 0, 0)

	diagnostics := []diag.Diagnostic{warning(diag.LayoutSpacing, at,
		diag.Fix{ID: "fix-duplicate", Title: "insert space", Edits: []diag.TextEdit{{Span: at, NewText: " "}}},
		diag.Fix{ID: "fix-duplicate", Title: "insert space again", Edits: []diag.TextEdit{{Span: at, NewText: " "}}},
	)}

	candidates, skips := gatherCandidates(diagnostics)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(skips) != 1 || skips[0].Reason != "duplicate fix id" {
		t.Fatalf("expected duplicate fix skip, got %+v", skips)
	}
}

func TestApplyKeepsFixesOfDiagnosticsSharingASpan(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("stdin", []byte("select  a"))
	at := span(fileID, 0, 0)

	diagnostics := []diag.Diagnostic{
		warning(diag.LayoutSpacing, at, InsertText("head", source.At(fileID, 0), "A")),
		warning(diag.LayoutSpacing, at, InsertText("tail", source.At(fileID, 9), "B")),
	}
	candidates, skips := gatherCandidates(diagnostics)
	if len(candidates) != 2 || len(skips) != 0 {
		t.Fatalf("candidates %d, skips %+v", len(candidates), skips)
	}
	if candidates[0].fix.ID == candidates[1].fix.ID {
		t.Fatalf("synthesized ids collide: %q", candidates[0].fix.ID)
	}

	res, err := Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
	if got := string(res.FileChanges[0].Content); got != "Aselect  aB" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyAllInMemory(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("stdin", []byte("select  a ,b"))

	diagnostics := []diag.Diagnostic{
		warning(diag.LayoutSpacing, span(fileID, 6, 8), ReplaceSpan("single", span(fileID, 6, 8), " ", "  ")),
		warning(diag.LayoutSpacing, span(fileID, 9, 10), DeleteSpan("touch", span(fileID, 9, 10), " ")),
		warning(diag.LayoutSpacing, span(fileID, 11, 11), InsertText("space", source.At(fileID, 11), " ")),
	}

	res, err := Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeAll, Write: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 3 || len(res.FileChanges) != 1 {
		t.Fatalf("applied %d, changes %d", len(res.Applied), len(res.FileChanges))
	}
	change := res.FileChanges[0]
	if got := string(change.Content); got != "select a, b" {
		t.Fatalf("got %q", got)
	}
	if change.Written {
		t.Fatalf("virtual files are never written")
	}
	if change.EditCount != 3 {
		t.Fatalf("expected 3 edits, got %d", change.EditCount)
	}
}

func TestApplyEditsAtSharedBoundary(t *testing.T) {
	cases := []struct {
		name  string
		diags func(source.FileID) []diag.Diagnostic
		want  string
	}{
		{
			name: "insert then delete after",
			diags: func(f source.FileID) []diag.Diagnostic {
				return []diag.Diagnostic{
					warning(diag.LayoutSpacing, span(f, 6, 6), InsertText("x", source.At(f, 6), "X")),
					warning(diag.LayoutSpacing, span(f, 6, 8), DeleteSpan("del", span(f, 6, 8), "  ")),
				}
			},
			want: "selectXa",
		},
		{
			name: "delete then insert at end",
			diags: func(f source.FileID) []diag.Diagnostic {
				return []diag.Diagnostic{
					warning(diag.LayoutSpacing, span(f, 6, 8), DeleteSpan("del", span(f, 6, 8), "  ")),
					warning(diag.LayoutSpacing, span(f, 8, 8), InsertText("y", source.At(f, 8), "Y")),
				}
			},
			want: "selectYa",
		},
		{
			name: "insert at end then delete before",
			diags: func(f source.FileID) []diag.Diagnostic {
				return []diag.Diagnostic{
					warning(diag.LayoutSpacing, span(f, 0, 0), InsertText("y", source.At(f, 8), "Y")),
					warning(diag.LayoutSpacing, span(f, 6, 8), DeleteSpan("del", span(f, 6, 8), "  ")),
				}
			},
			want: "selectYa",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := source.NewFileSet()
			fileID := fs.AddVirtual("stdin", []byte("select  a"))
			res, err := Apply(fs, tc.diags(fileID), ApplyOptions{Mode: ApplyModeAll})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if len(res.Skipped) != 0 {
				t.Fatalf("unexpected skips: %+v", res.Skipped)
			}
			if got := string(res.FileChanges[0].Content); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestApplySkipsConflictsAndStaleText(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("stdin", []byte("select  a"))

	diagnostics := []diag.Diagnostic{
		warning(diag.LayoutSpacing, span(fileID, 6, 8), ReplaceSpan("single", span(fileID, 6, 8), " ", "  ")),
		warning(diag.LayoutSpacing, span(fileID, 7, 8), DeleteSpan("overlap", span(fileID, 7, 8), " ")),
		warning(diag.LayoutIndent, span(fileID, 8, 9), ReplaceSpan("stale", span(fileID, 8, 9), "b", "z")),
	}
	res, err := Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 2 {
		t.Fatalf("applied %d skipped %d", len(res.Applied), len(res.Skipped))
	}
	if !strings.HasPrefix(res.Skipped[0].Reason, "conflicts with previously applied edits") {
		t.Fatalf("unexpected reason %q", res.Skipped[0].Reason)
	}
	if res.Skipped[1].Reason != "existing text does not match expected content" {
		t.Fatalf("unexpected reason %q", res.Skipped[1].Reason)
	}
	if got := string(res.FileChanges[0].Content); got != "select a" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyModes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("stdin", []byte("a  b  c"))
	diagnostics := []diag.Diagnostic{
		warning(diag.LayoutSpacing, span(fileID, 1, 3), ReplaceSpan("one", span(fileID, 1, 3), " ", "  ")),
		warning(diag.LayoutIndent, span(fileID, 4, 6), ReplaceSpan("two", span(fileID, 4, 6), " ", "  ")),
	}

	res, err := Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeOnce})
	if err != nil {
		t.Fatalf("once: %v", err)
	}
	if got := string(res.FileChanges[0].Content); got != "a b  c" {
		t.Fatalf("once: got %q", got)
	}

	res, err = Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeCode, Code: diag.LayoutIndent})
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if got := string(res.FileChanges[0].Content); got != "a  b c" {
		t.Fatalf("code: got %q", got)
	}

	_, err = Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeCode, Code: diag.LayoutCommas})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}

func TestApplyWritesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.sql")
	if err := os.WriteFile(path, []byte("select  a\r\nfrom t\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	diagnostics := []diag.Diagnostic{
		warning(diag.LayoutSpacing, span(fileID, 6, 8), ReplaceSpan("single", span(fileID, 6, 8), " ", "  ")),
	}
	res, err := Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeAll, Write: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.FileChanges[0].Written {
		t.Fatalf("expected file to be written")
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "select a\r\nfrom t\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestSpansConflict(t *testing.T) {
	cases := []struct {
		a, b source.Span
		want bool
	}{
		{span(0, 1, 3), span(0, 2, 4), true},
		{span(0, 1, 3), span(0, 3, 5), false},
		{span(0, 1, 3), span(0, 1, 3), true},
		{span(0, 2, 2), span(0, 1, 3), true},
		{span(0, 1, 1), span(0, 1, 3), false},
		{span(0, 3, 3), span(0, 1, 3), false},
		{span(0, 2, 2), span(0, 2, 2), false},
		{span(0, 1, 3), span(1, 1, 3), false},
	}
	for i, tc := range cases {
		got := spansConflict(diag.TextEdit{Span: tc.a}, diag.TextEdit{Span: tc.b})
		if got != tc.want {
			t.Fatalf("case %d: got %v, want %v", i, got, tc.want)
		}
	}
}
