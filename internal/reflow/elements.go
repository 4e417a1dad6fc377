package reflow

import (
	"fmt"
	"slices"
	"strings"

	"sqlreflow/internal/segment"
)

// Element is either a *Block or a *Point.
type Element interface {
	Segments() []*segment.Segment
	Raw() string
	fmt.Stringer
	element()
}

func rawOf(segs []*segment.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Raw)
	}
	return b.String()
}

// Block wraps exactly one non-spacing segment and its spacing policy.
type Block struct {
	seg           *segment.Segment
	SpacingBefore string
	SpacingAfter  string
	LinePosition  string
	Depth         *DepthInfo
	// policies inherited from ancestors, keyed by ancestor
	stackSpacingWithin map[*segment.Segment]string
	stackLinePosition  map[*segment.Segment]string
}

// NewBlock builds a block from exactly one segment.
func NewBlock(segs []*segment.Segment, cfg *Config, depth *DepthInfo) (*Block, error) {
	if len(segs) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBlockArity, len(segs))
	}
	seg := segs[0]
	bc := cfg.blockConfig(seg.ClassTypes(), depth)
	b := &Block{
		seg:           seg,
		SpacingBefore: bc.SpacingBefore,
		SpacingAfter:  bc.SpacingAfter,
		LinePosition:  bc.LinePosition,
		Depth:         depth,
	}
	if depth != nil {
		for i, anc := range depth.Stack {
			ac := cfg.blockConfig(depth.StackClassTypes[i], nil)
			if ac.SpacingWithin != "" {
				if b.stackSpacingWithin == nil {
					b.stackSpacingWithin = make(map[*segment.Segment]string)
				}
				b.stackSpacingWithin[anc] = ac.SpacingWithin
			}
			if ac.LinePosition != "" {
				if b.stackLinePosition == nil {
					b.stackLinePosition = make(map[*segment.Segment]string)
				}
				b.stackLinePosition[anc] = ac.LinePosition
			}
		}
	}
	return b, nil
}

func (b *Block) Segment() *segment.Segment     { return b.seg }
func (b *Block) Segments() []*segment.Segment { return []*segment.Segment{b.seg} }
func (b *Block) Raw() string                  { return b.seg.Raw }
func (b *Block) Is(types ...string) bool      { return b.seg.Is(types...) }
func (b *Block) String() string               { return fmt.Sprintf("Block(%s)", b.seg) }
func (*Block) element()                       {}

// Point is a possibly empty run of whitespace, newlines and indent markers
// between two blocks.
type Point struct {
	segs    []*segment.Segment
	impulse int
	trough  int
}

// NewPoint builds a point and precomputes its indent metrics.
func NewPoint(segs ...*segment.Segment) *Point {
	p := &Point{segs: segs}
	running := 0
	for _, s := range segs {
		if s.IsIndent() {
			running += s.IndentVal
			p.trough = min(p.trough, running)
		}
	}
	p.impulse = running
	return p
}

func (p *Point) Segments() []*segment.Segment { return p.segs }
func (p *Point) Raw() string                  { return rawOf(p.segs) }
func (*Point) element()                       {}

func (p *Point) String() string {
	return fmt.Sprintf("Point(%q, impulse=%d, trough=%d)", p.Raw(), p.impulse, p.trough)
}

// IndentImpulse returns the net marker delta of the run and the minimum
// running sum (starting at 0, including the final value).
func (p *Point) IndentImpulse() (impulse, trough int) {
	return p.impulse, p.trough
}

// NumNewlines counts newline segments.
func (p *Point) NumNewlines() int {
	n := 0
	for _, s := range p.segs {
		if s.Kind == segment.KindNewline {
			n++
		}
	}
	return n
}

// indentSegment returns the whitespace following the last newline, if any.
func (p *Point) indentSegment() *segment.Segment {
	var indent *segment.Segment
	for i := len(p.segs) - 1; i >= 0; i-- {
		switch p.segs[i].Kind {
		case segment.KindNewline:
			return indent
		case segment.KindWhitespace:
			indent = p.segs[i]
		}
	}
	return nil
}

// Indent returns the indent after the last newline. ok is false when the
// point holds no newline and so carries no indent at all.
func (p *Point) Indent() (indent string, ok bool) {
	if p.NumNewlines() == 0 {
		return "", false
	}
	if seg := p.indentSegment(); seg != nil {
		return seg.Raw, true
	}
	return "", true
}

func (p *Point) withSegments(segs []*segment.Segment) *Point {
	return NewPoint(segs...)
}

// IndentTo returns a copy of the point whose indent is desired, inserting a
// line break when the point has none. New breaks are anchored before
// `before` when given, otherwise after `after`.
func (p *Point) IndentTo(desired string, after, before *segment.Segment) ([]Fix, *Point, error) {
	if strings.Contains(desired, "\n") {
		return nil, nil, fmt.Errorf("reflow: desired indent %q contains a newline", desired)
	}
	indentSeg := p.indentSegment()

	if p.NumNewlines() > 0 {
		if indentSeg != nil {
			if indentSeg.Raw == desired {
				return nil, p, nil
			}
			idx := slices.Index(p.segs, indentSeg)
			if desired == "" {
				segs := slices.Delete(slices.Clone(p.segs), idx, idx+1)
				return []Fix{deleteFix(indentSeg, ReasonIndent,
					fmt.Sprintf("Expected %s, found %q.", describeIndent(desired), indentSeg.Raw))}, p.withSegments(segs), nil
			}
			newIndent := indentSeg.WithRaw(desired)
			segs := slices.Clone(p.segs)
			segs[idx] = newIndent
			return []Fix{replaceFix(indentSeg, []*segment.Segment{newIndent}, ReasonIndent,
				fmt.Sprintf("Expected %s, found %q.", describeIndent(desired), indentSeg.Raw))}, p.withSegments(segs), nil
		}
		if desired == "" {
			return nil, p, nil
		}
		idx := len(p.segs) - 1
		for ; idx >= 0; idx-- {
			if p.segs[idx].Kind == segment.KindNewline {
				break
			}
		}
		newIndent := segment.NewWhitespace(desired)
		segs := slices.Insert(slices.Clone(p.segs), idx+1, newIndent)
		return []Fix{createAfter(p.segs[idx], []*segment.Segment{newIndent}, ReasonIndent,
			fmt.Sprintf("Expected %s, found none.", describeIndent(desired)))}, p.withSegments(segs), nil
	}

	newSegs := []*segment.Segment{segment.NewNewline()}
	if desired != "" {
		newSegs = append(newSegs, segment.NewWhitespace(desired))
	}
	var ws *segment.Segment
	for _, s := range p.segs {
		if s.Kind == segment.KindWhitespace {
			ws = s
			break
		}
	}
	if ws == nil {
		var fix Fix
		switch {
		case before != nil:
			fix = createBefore(before, newSegs, ReasonLineBreak,
				fmt.Sprintf("Expected line break and %s before %s.", describeIndent(desired), describe(before)))
		case after != nil:
			fix = createAfter(after, newSegs, ReasonLineBreak,
				fmt.Sprintf("Expected line break and %s after %s.", describeIndent(desired), describe(after)))
		default:
			return nil, nil, ErrNoAnchor
		}
		segs := append(slices.Clone(p.segs), newSegs...)
		return []Fix{fix}, p.withSegments(segs), nil
	}
	if desired != "" {
		newSegs[1] = ws.WithRaw(desired)
	}
	idx := slices.Index(p.segs, ws)
	segs := slices.Replace(slices.Clone(p.segs), idx, idx+1, newSegs...)
	return []Fix{replaceFix(ws, newSegs, ReasonLineBreak,
		fmt.Sprintf("Expected line break and %s before %s.", describeIndent(desired), describe(before)))}, p.withSegments(segs), nil
}
