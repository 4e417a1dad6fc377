package reflow

import (
	"testing"

	"sqlreflow/internal/segment"
)

func rebreak(t *testing.T, seq *Sequence) *Sequence {
	t.Helper()
	out, err := seq.Rebreak()
	if err != nil {
		t.Fatalf("Rebreak: %v", err)
	}
	assertAlternates(t, out)
	if len(out.Elements()) != len(seq.Elements()) {
		t.Fatalf("element count changed from %d to %d", len(seq.Elements()), len(out.Elements()))
	}
	return out
}

func plus() *segment.Segment { return segment.NewCode("binary_operator", "+") }

func TestRebreakOperatorToLeading(t *testing.T) {
	root := file(t, kw("select"), ws(" "), ident("a"), ws(" "), plus(), nl(), ws("    "), ident("b"), nl())
	out := rebreak(t, fromRoot(t, root, nil))
	if out.Raw() != "select a\n    + b\n" {
		t.Fatalf("unexpected raw %q", out.Raw())
	}
	fixes := out.Fixes()
	if len(fixes) != 3 {
		t.Fatalf("expected 3 fixes, got %v", fixes)
	}
	for _, f := range fixes {
		if f.Reason != ReasonLinePosition {
			t.Fatalf("unexpected reason %s", f.Reason)
		}
	}
	if fixes[1].Type != EditCreateBefore || fixes[1].EditRaw() != "+ " {
		t.Fatalf("unexpected creation %v", fixes[1])
	}
}

func TestRebreakCommaToTrailing(t *testing.T) {
	root := file(t, kw("select"), ws(" "), ident("a"), nl(), ws("    "), comma(), ws(" "), ident("b"), nl())
	out := rebreak(t, fromRoot(t, root, nil))
	if out.Raw() != "select a,\n    b\n" {
		t.Fatalf("unexpected raw %q", out.Raw())
	}
	fixes := out.Fixes()
	if len(fixes) != 3 || fixes[1].Type != EditCreateAfter || fixes[1].EditRaw() != "," {
		t.Fatalf("unexpected fixes %v", fixes)
	}
}

func TestRebreakLeavesCorrectLayout(t *testing.T) {
	tests := []struct {
		name     string
		children []*segment.Segment
	}{
		{"leading operator", []*segment.Segment{kw("select"), ws(" "), ident("a"), nl(), ws("    "), plus(), ws(" "), ident("b"), nl()}},
		{"trailing comma", []*segment.Segment{kw("select"), ws(" "), ident("a"), comma(), nl(), ws("    "), ident("b"), nl()}},
		{"single line", []*segment.Segment{kw("select"), ws(" "), ident("a"), ws(" "), plus(), ws(" "), ident("b"), nl()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := file(t, tt.children...)
			out := rebreak(t, fromRoot(t, root, nil))
			if len(out.Fixes()) != 0 || out.Raw() != root.Text() {
				t.Fatalf("expected no change, got %q %v", out.Raw(), out.Fixes())
			}
		})
	}
}

func TestRebreakSkipsComments(t *testing.T) {
	root := file(t,
		kw("select"), ws(" "), ident("a"), ws(" "), segment.NewComment("", "-- x"), nl(),
		ws("    "), comma(), ws(" "), ident("b"), nl(),
	)
	out := rebreak(t, fromRoot(t, root, nil))
	if out.Raw() != "select a, -- x\n    b\n" {
		t.Fatalf("unexpected raw %q", out.Raw())
	}
}
