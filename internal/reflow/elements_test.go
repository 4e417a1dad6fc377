package reflow

import (
	"errors"
	"testing"

	"sqlreflow/internal/segment"
)

func TestIndentImpulse(t *testing.T) {
	tests := []struct {
		name           string
		segs           []*segment.Segment
		impulse, trough int
	}{
		{"empty", nil, 0, 0},
		{"indent", []*segment.Segment{segment.NewIndent(), nl()}, 1, 0},
		{"dedent", []*segment.Segment{segment.NewDedent()}, -1, -1},
		{"dedent then indent", []*segment.Segment{segment.NewDedent(), nl(), segment.NewIndent()}, 0, -1},
		{"two dedents", []*segment.Segment{segment.NewDedent(), segment.NewDedent(), segment.NewIndent()}, -1, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impulse, trough := NewPoint(tt.segs...).IndentImpulse()
			if impulse != tt.impulse || trough != tt.trough {
				t.Fatalf("want (%d, %d), got (%d, %d)", tt.impulse, tt.trough, impulse, trough)
			}
		})
	}
}

func TestPointIndent(t *testing.T) {
	if _, ok := NewPoint(ws(" ")).Indent(); ok {
		t.Fatalf("a point without newline has no indent")
	}
	got, ok := NewPoint(ws("  "), nl(), ws("    ")).Indent()
	if !ok || got != "    " {
		t.Fatalf("unexpected indent %q (%v)", got, ok)
	}
	got, ok = NewPoint(nl(), ws("  "), nl()).Indent()
	if !ok || got != "" {
		t.Fatalf("indent belongs to the last line, got %q", got)
	}
}

func TestIndentTo(t *testing.T) {
	before := kw("from")
	after := kw("select")
	tests := []struct {
		name     string
		segs     []*segment.Segment
		desired  string
		wantRaw  string
		wantType EditType
		wantFix  bool
	}{
		{"already right", []*segment.Segment{nl(), ws("  ")}, "  ", "\n  ", 0, false},
		{"replace indent", []*segment.Segment{nl(), ws(" ")}, "    ", "\n    ", EditReplace, true},
		{"remove indent", []*segment.Segment{nl(), ws("  ")}, "", "\n", EditDelete, true},
		{"add indent", []*segment.Segment{nl()}, "  ", "\n  ", EditCreateAfter, true},
		{"no indent wanted", []*segment.Segment{nl()}, "", "\n", 0, false},
		{"break replaces space", []*segment.Segment{ws(" ")}, "  ", "\n  ", EditReplace, true},
		{"break into empty point", nil, "  ", "\n  ", EditCreateBefore, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixes, p, err := NewPoint(tt.segs...).IndentTo(tt.desired, after, before)
			if err != nil {
				t.Fatalf("IndentTo: %v", err)
			}
			if p.Raw() != tt.wantRaw {
				t.Fatalf("want raw %q, got %q", tt.wantRaw, p.Raw())
			}
			if !tt.wantFix {
				if len(fixes) != 0 {
					t.Fatalf("expected no fixes, got %v", fixes)
				}
				return
			}
			if len(fixes) != 1 || fixes[0].Type != tt.wantType {
				t.Fatalf("expected one %s fix, got %v", tt.wantType, fixes)
			}
		})
	}
}

func TestIndentToKeepsMarkers(t *testing.T) {
	p := NewPoint(segment.NewDedent(), ws(" "))
	_, out, err := p.IndentTo("", kw("a"), kw("b"))
	if err != nil {
		t.Fatalf("IndentTo: %v", err)
	}
	if impulse, _ := out.IndentImpulse(); impulse != -1 {
		t.Fatalf("markers lost, impulse %d", impulse)
	}
	if out.NumNewlines() != 1 {
		t.Fatalf("expected a line break, got %q", out.Raw())
	}
}

func TestIndentToErrors(t *testing.T) {
	if _, _, err := NewPoint().IndentTo("  ", nil, nil); !errors.Is(err, ErrNoAnchor) {
		t.Fatalf("expected ErrNoAnchor, got %v", err)
	}
	if _, _, err := NewPoint().IndentTo("\n", nil, kw("a")); err == nil {
		t.Fatalf("expected error for newline in indent")
	}
}

func TestBlockSpacingFromConfig(t *testing.T) {
	root := file(t, segment.NewNode("select_clause", kw("select"), ws(" "), ident("a"), comma()))
	seq := fromRoot(t, root, nil)
	var commaBlock *Block
	for _, el := range seq.Elements() {
		if b, ok := el.(*Block); ok && b.Is("comma") {
			commaBlock = b
		}
	}
	if commaBlock == nil {
		t.Fatalf("comma block not found")
	}
	if commaBlock.SpacingBefore != SpacingTouch || commaBlock.LinePosition != PositionTrailing {
		t.Fatalf("unexpected comma config %+v", commaBlock)
	}
	if commaBlock.Depth == nil || commaBlock.Depth.StackDepth != 2 {
		t.Fatalf("unexpected depth %+v", commaBlock.Depth)
	}
}
