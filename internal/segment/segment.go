package segment

import (
	"fmt"
	"strings"

	"sqlreflow/internal/source"
)

// Pos locates a raw segment in the original source.
type Pos struct {
	Span source.Span `msgpack:"s"`
	Line uint32      `msgpack:"l"`
	Col  uint32      `msgpack:"c"`
}

// Segment is one node of the token tree.
type Segment struct {
	Kind     Kind       `msgpack:"k"`
	Type     string     `msgpack:"t,omitempty"`
	Raw      string     `msgpack:"r,omitempty"`
	Pos      *Pos       `msgpack:"p,omitempty"`
	Children []*Segment `msgpack:"ch,omitempty"`

	// IndentVal is +1 for indent and -1 for dedent markers.
	IndentVal int `msgpack:"iv,omitempty"`
	// BlockID correlates the start/mid/end markers of one template block.
	BlockID string `msgpack:"bid,omitempty"`
	// BlockType is the template role: block_start, block_mid, block_end,
	// templated or literal.
	BlockType string `msgpack:"bt,omitempty"`
}

// Is reports whether the segment matches any of the given type names.
// Both the fine-grained Type and the Kind name are matched.
func (s *Segment) Is(types ...string) bool {
	if s == nil {
		return false
	}
	kind := s.Kind.String()
	for _, t := range types {
		if t == s.Type || t == kind {
			return true
		}
	}
	return false
}

// ClassTypes returns the names this segment answers to in Is.
func (s *Segment) ClassTypes() []string {
	kind := s.Kind.String()
	if s.Type == "" || s.Type == kind {
		return []string{kind}
	}
	return []string{s.Type, kind}
}

func (s *Segment) IsRaw() bool { return s.Kind != KindNode }

// IsCode reports whether the segment is meaningful program text. A node
// is code when any descendant is.
func (s *Segment) IsCode() bool {
	if s.Kind != KindNode {
		return s.Kind == KindCode
	}
	for _, c := range s.Children {
		if c.IsCode() {
			return true
		}
	}
	return false
}

// IsIndent reports whether the segment is an indent or dedent marker.
func (s *Segment) IsIndent() bool { return s.Kind == KindIndent || s.Kind == KindDedent }

// IsSpacing reports whether the segment belongs inside a reflow point.
func (s *Segment) IsSpacing() bool {
	switch s.Kind {
	case KindWhitespace, KindNewline, KindIndent, KindDedent:
		return true
	}
	return false
}

// Text renders the segment and all of its descendants.
func (s *Segment) Text() string {
	if s.IsRaw() {
		return s.Raw
	}
	var b strings.Builder
	s.writeText(&b)
	return b.String()
}

func (s *Segment) writeText(b *strings.Builder) {
	if s.IsRaw() {
		b.WriteString(s.Raw)
		return
	}
	for _, c := range s.Children {
		c.writeText(b)
	}
}

// RawSegments returns the leaves under s in source order. Markers are
// included.
func (s *Segment) RawSegments() []*Segment {
	out := make([]*Segment, 0, 16)
	return s.appendRaws(out)
}

func (s *Segment) appendRaws(out []*Segment) []*Segment {
	if s.IsRaw() {
		return append(out, s)
	}
	for _, c := range s.Children {
		out = c.appendRaws(out)
	}
	return out
}

// PathStep is one hop of a path from an ancestor down to a descendant.
type PathStep struct {
	Segment  *Segment
	Idx      int   // index of the next hop within Segment.Children
	Len      int   // len(Segment.Children)
	CodeIdxs []int // indexes of the children that contain code
}

// PathTo returns the steps from s down to (but excluding) target. It is
// empty when target is s or not a descendant of s.
func (s *Segment) PathTo(target *Segment) []PathStep {
	if s == target || s.IsRaw() {
		return nil
	}
	var path []PathStep
	if s.findPath(target, &path) {
		return path
	}
	return nil
}

func (s *Segment) findPath(target *Segment, path *[]PathStep) bool {
	var codeIdxs []int
	for i, c := range s.Children {
		if c.IsCode() {
			codeIdxs = append(codeIdxs, i)
		}
	}
	for i, c := range s.Children {
		*path = append(*path, PathStep{Segment: s, Idx: i, Len: len(s.Children), CodeIdxs: codeIdxs})
		if c == target || (!c.IsRaw() && c.findPath(target, path)) {
			return true
		}
		*path = (*path)[:len(*path)-1]
	}
	return false
}

// RawsWithAncestors returns every leaf under s paired with its path from s.
// It walks the tree once.
func (s *Segment) RawsWithAncestors() []RawWithPath {
	var out []RawWithPath
	s.collectWithPath(nil, &out)
	return out
}

// RawWithPath pairs a leaf with the steps leading to it.
type RawWithPath struct {
	Raw  *Segment
	Path []PathStep
}

func (s *Segment) collectWithPath(prefix []PathStep, out *[]RawWithPath) {
	if s.IsRaw() {
		*out = append(*out, RawWithPath{Raw: s, Path: prefix})
		return
	}
	var codeIdxs []int
	for i, c := range s.Children {
		if c.IsCode() {
			codeIdxs = append(codeIdxs, i)
		}
	}
	for i, c := range s.Children {
		step := PathStep{Segment: s, Idx: i, Len: len(s.Children), CodeIdxs: codeIdxs}
		next := make([]PathStep, len(prefix)+1)
		copy(next, prefix)
		next[len(prefix)] = step
		c.collectWithPath(next, out)
	}
}

// Walk visits s and its descendants depth-first. Returning false from fn
// prunes the subtree.
func (s *Segment) Walk(fn func(*Segment) bool) {
	if !fn(s) {
		return
	}
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

func (s *Segment) String() string {
	if s == nil {
		return "<nil>"
	}
	name := s.Type
	if name == "" {
		name = s.Kind.String()
	}
	if !s.IsRaw() {
		return fmt.Sprintf("%s(%d children)", name, len(s.Children))
	}
	if s.Pos == nil {
		return fmt.Sprintf("%s(%q)", name, s.Raw)
	}
	return fmt.Sprintf("%s(%q @%d:%d)", name, s.Raw, s.Pos.Line, s.Pos.Col)
}
