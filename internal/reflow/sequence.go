package reflow

import (
	"fmt"
	"slices"
	"strings"

	"sqlreflow/internal/segment"
	"sqlreflow/internal/trace"
)

// Sides limits FromAroundTarget to one side of the target.
type Sides uint8

const (
	SidesBoth Sides = iota
	SidesBefore
	SidesAfter
)

// Filter selects which points Respace may change.
type Filter uint8

const (
	FilterAll Filter = iota
	// FilterNewline only touches points holding a line break or preceding
	// the end of the file.
	FilterNewline
	// FilterInline is the complement of FilterNewline.
	FilterInline
)

// InsertPosition places an inserted block relative to its target.
type InsertPosition uint8

const (
	Before InsertPosition = iota
	After
)

// Sequence is an immutable alternating run of points and blocks plus the
// fixes that produced it from the original tree.
type Sequence struct {
	elements []Element
	root     *segment.Segment
	cfg      *Config
	depth    *DepthMap
	fixes    []Fix
	long     []LongLine

	tracer trace.Tracer
	span   uint64
}

func newSequence(elements []Element, root *segment.Segment, cfg *Config, depth *DepthMap, fixes []Fix) (*Sequence, error) {
	if err := validateElements(elements); err != nil {
		return nil, err
	}
	return &Sequence{
		elements: elements,
		root:     root,
		cfg:      cfg,
		depth:    depth,
		fixes:    fixes,
		tracer:   trace.Nop,
	}, nil
}

// derive builds a successor sharing root, config, depth map and tracer.
func (s *Sequence) derive(elements []Element, fixes []Fix) (*Sequence, error) {
	out, err := newSequence(elements, s.root, s.cfg, s.depth, fixes)
	if err != nil {
		return nil, err
	}
	out.tracer, out.span = s.tracer, s.span
	return out, nil
}

func validateElements(elements []Element) error {
	if len(elements) == 0 {
		return ErrEmptySequence
	}
	_, firstIsPoint := elements[0].(*Point)
	for i, el := range elements {
		_, isPoint := el.(*Point)
		if isPoint != (firstIsPoint == (i%2 == 0)) {
			return fmt.Errorf("%w: element %d is %s", ErrAlternation, i, el)
		}
	}
	return nil
}

func elementsFromRaws(raws []*segment.Segment, cfg *Config, depth *DepthMap) ([]Element, error) {
	var (
		elems []Element
		buf   []*segment.Segment
	)
	for _, seg := range raws {
		if seg.IsSpacing() {
			buf = append(buf, seg)
			continue
		}
		if len(elems) > 0 || len(buf) > 0 {
			elems = append(elems, NewPoint(buf...))
		}
		block, err := NewBlock([]*segment.Segment{seg}, cfg, depth.Get(seg))
		if err != nil {
			return nil, err
		}
		elems = append(elems, block)
		buf = nil
	}
	if len(buf) > 0 {
		elems = append(elems, NewPoint(buf...))
	}
	return elems, nil
}

// FromRawSegments builds a sequence from a run of raws. When depth is nil
// a depth map is computed from root, which is slower than FromRoot.
func FromRawSegments(raws []*segment.Segment, root *segment.Segment, cfg *Config, depth *DepthMap) (*Sequence, error) {
	if depth == nil {
		depth = NewDepthMapFromRaws(raws, root)
	}
	elems, err := elementsFromRaws(raws, cfg, depth)
	if err != nil {
		return nil, err
	}
	return newSequence(elems, root, cfg, depth, nil)
}

// FromRoot builds a sequence covering the whole tree.
func FromRoot(root *segment.Segment, cfg *Config) (*Sequence, error) {
	return FromRawSegments(root.RawSegments(), root, cfg, NewDepthMapFromParent(root))
}

// FromAroundTarget builds a sequence reaching from the nearest code raw
// before target to one raw past the nearest code raw after it, so the
// target has full spacing context. Comments in between are swallowed.
func FromAroundTarget(target, root *segment.Segment, cfg *Config, sides Sides) (*Sequence, error) {
	all := root.RawSegments()
	targetRaws := target.RawSegments()
	if len(targetRaws) == 0 {
		return nil, fmt.Errorf("%w: %s has no raws", ErrTargetNotFound, target)
	}
	pre := slices.Index(all, targetRaws[0])
	post := slices.Index(all, targetRaws[len(targetRaws)-1])
	if pre < 0 || post < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}
	post++
	if sides == SidesBoth || sides == SidesBefore {
		pre = max(pre-1, 0)
		for ; pre > 0; pre-- {
			if all[pre].IsCode() {
				break
			}
		}
	}
	if sides == SidesBoth || sides == SidesAfter {
		for post < len(all) && !all[post].IsCode() {
			post++
		}
		post = min(post+1, len(all))
	}
	return FromRawSegments(all[pre:post], root, cfg, nil)
}

// WithTracer returns a copy that reports its decisions to t under parent.
func (s *Sequence) WithTracer(t trace.Tracer, parent uint64) *Sequence {
	out := *s
	if t == nil {
		t = trace.Nop
	}
	out.tracer, out.span = t, parent
	return &out
}

// Elements returns a copy of the element slice.
func (s *Sequence) Elements() []Element { return slices.Clone(s.elements) }

// Fixes returns the accumulated fixes.
func (s *Sequence) Fixes() []Fix { return slices.Clone(s.fixes) }

// Root returns the tree the sequence was built from.
func (s *Sequence) Root() *segment.Segment { return s.root }

// Raw renders the current text of the sequence.
func (s *Sequence) Raw() string {
	var b strings.Builder
	for _, el := range s.elements {
		b.WriteString(el.Raw())
	}
	return b.String()
}

func (s *Sequence) raws() []*segment.Segment {
	var out []*segment.Segment
	for _, el := range s.elements {
		out = append(out, el.Segments()...)
	}
	return out
}

func (s *Sequence) findElementIdx(target *segment.Segment) (int, error) {
	for i, el := range s.elements {
		if slices.Contains(el.Segments(), target) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
}

// Without removes the block holding target, merging its neighbouring points.
func (s *Sequence) Without(target *segment.Segment) (*Sequence, error) {
	idx, err := s.findElementIdx(target)
	if err != nil {
		return nil, err
	}
	if idx == 0 || idx == len(s.elements)-1 {
		return nil, ErrBoundaryRemoval
	}
	if _, ok := s.elements[idx].(*Point); ok {
		return nil, ErrPointTarget
	}
	merged := NewPoint(slices.Concat(s.elements[idx-1].Segments(), s.elements[idx+1].Segments())...)
	elems := slices.Concat(s.elements[:idx-1], []Element{merged}, s.elements[idx+2:])
	fixes := append(s.Fixes(), deleteFix(target, ReasonEdit, fmt.Sprintf("Remove %s.", describe(target))))
	return s.derive(elems, fixes)
}

// Insert adds insertion as a new block before or after target's block,
// with an empty point between them. The new segment inherits target's
// depth info.
func (s *Sequence) Insert(insertion, target *segment.Segment, pos InsertPosition) (*Sequence, error) {
	if insertion.IsSpacing() {
		return nil, ErrSpacingInsert
	}
	idx, err := s.findElementIdx(target)
	if err != nil {
		return nil, err
	}
	if _, ok := s.elements[idx].(*Point); ok {
		return nil, ErrPointTarget
	}
	s.depth.CopyDepthInfo(target, insertion, 0)
	block, err := NewBlock([]*segment.Segment{insertion}, s.cfg, s.depth.Get(insertion))
	if err != nil {
		return nil, err
	}
	var (
		elems []Element
		fix   Fix
	)
	desc := fmt.Sprintf("Insert %s.", describe(insertion))
	switch pos {
	case After:
		elems = slices.Concat(s.elements[:idx+1], []Element{NewPoint(), block}, s.elements[idx+1:])
		fix = createAfter(target, []*segment.Segment{insertion}, ReasonEdit, desc)
	default:
		elems = slices.Concat(s.elements[:idx], []Element{block, NewPoint()}, s.elements[idx:])
		fix = createBefore(target, []*segment.Segment{insertion}, ReasonEdit, desc)
	}
	return s.derive(elems, append(s.Fixes(), fix))
}

// Replace substitutes target (a raw or a node) with edit. The raws of edit
// take the depth info of target's first raw, trimmed by the wrapper levels
// that disappear with target, and the elements are rebuilt from scratch.
func (s *Sequence) Replace(target *segment.Segment, edit []*segment.Segment) (*Sequence, error) {
	targetRaws := target.RawSegments()
	if len(targetRaws) == 0 {
		return nil, fmt.Errorf("%w: %s has no raws", ErrTargetNotFound, target)
	}
	var editRaws []*segment.Segment
	for _, e := range edit {
		editRaws = append(editRaws, e.RawSegments()...)
	}
	trim := len(target.PathTo(targetRaws[0]))
	for _, raw := range editRaws {
		s.depth.CopyDepthInfo(targetRaws[0], raw, trim)
	}

	current := s.raws()
	start := slices.Index(current, targetRaws[0])
	last := slices.Index(current, targetRaws[len(targetRaws)-1])
	if start < 0 || last < start {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}
	rebuilt := slices.Concat(current[:start], editRaws, current[last+1:])
	elems, err := elementsFromRaws(rebuilt, s.cfg, s.depth)
	if err != nil {
		return nil, err
	}
	fix := replaceFix(target, edit, ReasonEdit, fmt.Sprintf("Replace %s.", describe(target)))
	return s.derive(elems, append(s.Fixes(), fix))
}

// Respace re-evaluates the spacing of every point allowed by filter.
func (s *Sequence) Respace(stripNewlines bool, filter Filter) (*Sequence, error) {
	span := trace.Begin(s.tracer, trace.ScopePass, "respace", s.span)
	fixes := s.Fixes()
	out := make([]Element, 0, len(s.elements))
	for i, el := range s.elements {
		p, ok := el.(*Point)
		if !ok {
			out = append(out, el)
			continue
		}
		var prev, next *Block
		if i > 0 {
			prev = s.elements[i-1].(*Block)
		}
		if i < len(s.elements)-1 {
			next = s.elements[i+1].(*Block)
		}
		newFixes, newPoint := p.Respace(prev, next, fixes, stripNewlines)

		lineBreak := newPoint.NumNewlines() > 0 || (next != nil && next.Is("end_of_file"))
		reset := (filter == FilterInline && lineBreak) || (filter == FilterNewline && !lineBreak)
		if reset {
			newPoint = p
		} else {
			fixes = newFixes
		}
		out = append(out, newPoint)
	}
	span.WithExtra("fixes", fmt.Sprint(len(fixes)-len(s.fixes))).End("")
	return s.derive(out, fixes)
}

// Rebreak moves blocks with a configured line position across an adjacent
// line break. Indentation is left alone.
func (s *Sequence) Rebreak() (*Sequence, error) {
	if len(s.fixes) > 0 {
		return nil, ErrPendingFixes
	}
	span := trace.Begin(s.tracer, trace.ScopePass, "rebreak", s.span)
	elems, fixes := rebreakElements(s.elements, s.depth, s.tracer, span.ID())
	long := longLines(elems, s.cfg.MaxLineLength)
	span.WithExtra("fixes", fmt.Sprint(len(fixes))).WithExtra("long_lines", fmt.Sprint(len(long))).End("")
	out, err := s.derive(elems, fixes)
	if err != nil {
		return nil, err
	}
	out.long = long
	return out, nil
}

// LongLines reports the lines Reindent could not bring under
// Config.MaxLineLength. Other passes leave it empty.
func (s *Sequence) LongLines() []LongLine { return slices.Clone(s.long) }

// Reindent corrects indentation and inserts missing line breaks, then
// breaks over-long lines when a maximum line length is configured.
func (s *Sequence) Reindent() (*Sequence, error) {
	if len(s.fixes) > 0 {
		return nil, ErrPendingFixes
	}
	single, err := s.cfg.SingleIndent()
	if err != nil {
		return nil, err
	}
	span := trace.Begin(s.tracer, trace.ScopePass, "reindent", s.span)
	pass := &indentPass{
		single: single,
		skipIn: s.cfg.SkipIndentationIn,
		tracer: s.tracer,
		parent: span.ID(),
	}
	elems, fixes, err := lintLineLength(s.elements, pass, s.cfg.MaxLineLength)
	if err != nil {
		span.End(err.Error())
		return nil, err
	}
	span.WithExtra("fixes", fmt.Sprint(len(fixes))).End("")
	return s.derive(elems, fixes)
}

// PartitionFixes splits the fixes into those before target, those within
// it and those after it, by anchor position. Fixes whose anchor has no
// source position count as within.
func (s *Sequence) PartitionFixes(target *segment.Segment) (pre, mid, post []Fix) {
	raws := target.RawSegments()
	if len(raws) == 0 || raws[0].Pos == nil || raws[len(raws)-1].Pos == nil {
		return nil, s.Fixes(), nil
	}
	first := raws[0].Pos.Span.Start
	last := raws[len(raws)-1].Pos.Span.Start
	for _, f := range s.fixes {
		if f.Anchor.Pos == nil {
			mid = append(mid, f)
			continue
		}
		at := f.Anchor.Pos.Span.Start
		switch {
		case at < first || (f.Type == EditCreateBefore && at == first):
			pre = append(pre, f)
		case at > last || (f.Type == EditCreateAfter && at == last):
			post = append(post, f)
		default:
			mid = append(mid, f)
		}
	}
	return pre, mid, post
}

// Results turns the fixes into report entries. Insertions after a segment
// (and replacements that keep the anchor's text as a prefix) are reported
// at the next segment that exists in the source, which is where the
// change shows up for a reader.
func (s *Sequence) Results() []Result {
	var segs []*segment.Segment
	out := make([]Result, 0, len(s.fixes))
	for _, f := range s.fixes {
		anchor := f.Anchor
		if f.Type == EditCreateAfter || (f.Type == EditReplace && strings.HasPrefix(f.EditRaw(), f.Anchor.Text())) {
			if segs == nil {
				segs = s.raws()
			}
			target := f.Anchor
			if raws := f.Anchor.RawSegments(); !f.Anchor.IsRaw() && len(raws) > 0 {
				target = raws[len(raws)-1]
			}
			if idx := slices.Index(segs, target); idx >= 0 {
				for _, cand := range segs[idx+1:] {
					if cand.Pos != nil {
						anchor = cand
						break
					}
				}
			}
		}
		out = append(out, Result{Anchor: anchor, Fix: f, Description: f.Description})
	}
	return out
}
