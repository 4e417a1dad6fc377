package fix

import (
	"errors"
	"testing"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/reflow"
	"sqlreflow/internal/segment"
	"sqlreflow/internal/source"
)

func positioned(t *testing.T, fileID source.FileID, children ...*segment.Segment) *segment.Segment {
	t.Helper()
	root := segment.NewNode("file", append(children, segment.NewEndOfFile())...)
	if err := segment.Position(root, fileID); err != nil {
		t.Fatalf("position: %v", err)
	}
	return root
}

func TestFromReflowRespace(t *testing.T) {
	const text = "select  a ,b\n"
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("stdin", []byte(text))
	root := positioned(t, fileID,
		segment.NewCode("keyword", "select"),
		segment.NewWhitespace("  "),
		segment.NewCode("column_reference", "a"),
		segment.NewWhitespace(" "),
		segment.NewCode("comma", ","),
		segment.NewCode("column_reference", "b"),
		segment.NewNewline(),
	)
	seq, err := reflow.FromRoot(root, reflow.DefaultConfig())
	if err != nil {
		t.Fatalf("FromRoot: %v", err)
	}
	seq, err = seq.Respace(false, reflow.FilterAll)
	if err != nil {
		t.Fatalf("Respace: %v", err)
	}
	edits, err := FromReflow(seq.Fixes())
	if err != nil {
		t.Fatalf("FromReflow: %v", err)
	}
	d := diag.NewWarning(diag.LayoutSpacing, source.At(fileID, 0), "spacing")
	d.Fixes = []diag.Fix{FromEdits("respace", edits)}
	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := string(res.FileChanges[0].Content); got != seq.Raw() {
		t.Fatalf("text edits disagree with sequence: %q vs %q", got, seq.Raw())
	}
	if seq.Raw() != "select a, b\n" {
		t.Fatalf("unexpected respace result %q", seq.Raw())
	}
}

func TestFromReflowFoldsCreatedAnchors(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("stdin", []byte("select a"))
	kw := segment.NewCode("keyword", "select")
	a := segment.NewCode("column_reference", "a")
	positioned(t, fileID, kw, segment.NewWhitespace(" "), a)

	distinct := segment.NewCode("keyword", "distinct")
	space := segment.NewWhitespace(" ")
	fixes := []reflow.Fix{
		{Type: reflow.EditCreateAfter, Anchor: kw, Edit: []*segment.Segment{distinct}},
		{Type: reflow.EditCreateBefore, Anchor: distinct, Edit: []*segment.Segment{space}},
		{Type: reflow.EditReplace, Anchor: a, Edit: []*segment.Segment{segment.NewCode("column_reference", "b")}},
	}
	edits, err := FromReflow(fixes)
	if err != nil {
		t.Fatalf("FromReflow: %v", err)
	}
	if edits[1] != nil {
		t.Fatalf("folded fix should have no edit")
	}
	if e := edits[0]; e.Span != source.At(fileID, 6) || e.NewText != " distinct" {
		t.Fatalf("unexpected folded edit %+v", e)
	}
	if e := edits[2]; e.Span != span(fileID, 7, 8) || e.NewText != "b" || e.OldText != "a" {
		t.Fatalf("unexpected replace edit %+v", e)
	}
	if len(fixes[0].Edit) != 1 {
		t.Fatalf("input fixes must not be modified")
	}
}

func TestFromReflowUnanchored(t *testing.T) {
	orphan := segment.NewCode("keyword", "select")
	_, err := FromReflow([]reflow.Fix{{Type: reflow.EditDelete, Anchor: orphan}})
	if !errors.Is(err, ErrUnanchored) {
		t.Fatalf("expected ErrUnanchored, got %v", err)
	}
}

func TestAnchorSpanOfNode(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("stdin", []byte("select a"))
	clause := segment.NewNode("select_clause",
		segment.NewCode("keyword", "select"),
		segment.NewWhitespace(" "),
		segment.NewCode("column_reference", "a"),
	)
	positioned(t, fileID, clause)
	got, ok := AnchorSpan(clause)
	if !ok || got != span(fileID, 0, 8) {
		t.Fatalf("got %v %v", got, ok)
	}
}
