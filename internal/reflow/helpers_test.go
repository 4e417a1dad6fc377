package reflow

import (
	"testing"

	"sqlreflow/internal/segment"
)

func kw(raw string) *segment.Segment    { return segment.NewCode("keyword", raw) }
func ident(raw string) *segment.Segment { return segment.NewCode("column_reference", raw) }
func ws(raw string) *segment.Segment    { return segment.NewWhitespace(raw) }
func nl() *segment.Segment              { return segment.NewNewline() }
func comma() *segment.Segment           { return segment.NewCode("comma", ",") }

// file wraps children in a positioned file node ending in end_of_file.
func file(t *testing.T, children ...*segment.Segment) *segment.Segment {
	t.Helper()
	root := segment.NewNode("file", append(children, segment.NewEndOfFile())...)
	if err := segment.Position(root, 0); err != nil {
		t.Fatalf("position: %v", err)
	}
	return root
}

func fromRoot(t *testing.T, root *segment.Segment, cfg *Config) *Sequence {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	seq, err := FromRoot(root, cfg)
	if err != nil {
		t.Fatalf("FromRoot: %v", err)
	}
	return seq
}

// reparse rebuilds a flat positioned tree from the current text of seq,
// keeping the indent markers, so a pass can be run again on its output.
func reparse(t *testing.T, seq *Sequence, cfg *Config) *Sequence {
	t.Helper()
	var raws []*segment.Segment
	for _, s := range seq.raws() {
		if s.Kind == segment.KindEndOfFile {
			continue
		}
		raws = append(raws, s.Clone())
	}
	return fromRoot(t, file(t, raws...), cfg)
}

func assertAlternates(t *testing.T, seq *Sequence) {
	t.Helper()
	if err := validateElements(seq.elements); err != nil {
		t.Fatalf("sequence does not alternate: %v", err)
	}
}
