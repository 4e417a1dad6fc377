package reflow

import (
	"fmt"
	"slices"
	"strings"

	"sqlreflow/internal/segment"
	"sqlreflow/internal/trace"
)

// rebreakSpan is a run of blocks that must sit at one end of its line.
type rebreakSpan struct {
	first, last *segment.Segment
	start, end  int
	position    string
}

func findRebreakSpans(elems []Element) []rebreakSpan {
	var spans []rebreakSpan
	seen := make(map[*segment.Segment]bool)
	for idx, el := range elems {
		b, ok := el.(*Block)
		if !ok {
			continue
		}
		if b.LinePosition != "" {
			spans = append(spans, rebreakSpan{first: b.seg, last: b.seg, start: idx, end: idx, position: b.LinePosition})
		}
		for anc, pos := range b.stackLinePosition {
			if seen[anc] {
				continue
			}
			seen[anc] = true
			end := idx
			for j := idx + 2; j < len(elems); j += 2 {
				nb, ok := elems[j].(*Block)
				if !ok || nb.Depth == nil {
					break
				}
				if _, inside := nb.Depth.StackPositions[anc]; !inside {
					break
				}
				end = j
			}
			spans = append(spans, rebreakSpan{first: b.seg, last: elems[end].(*Block).seg, start: idx, end: end, position: pos})
		}
	}
	slices.SortStableFunc(spans, func(a, b rebreakSpan) int { return a.start - b.start })
	return spans
}

// rebreakElements moves every span whose line position is configured to
// the configured end of its line. Leading spans found at the end of a line
// move in front of the next code block; trailing spans found at the start
// of a line move behind the previous one. Element indexes outside a moved
// region stay stable.
func rebreakElements(elems []Element, depth *DepthMap, t trace.Tracer, parent uint64) ([]Element, []Fix) {
	buf := slices.Clone(elems)
	var fixes []Fix
	for _, sp := range findRebreakSpans(buf) {
		if sp.start < 2 || sp.end > len(buf)-3 {
			continue
		}
		first, ok1 := buf[sp.start].(*Block)
		last, ok2 := buf[sp.end].(*Block)
		if !ok1 || !ok2 || first.seg != sp.first || last.seg != sp.last {
			continue
		}
		if spanHasNewline(buf[sp.start : sp.end+1]) {
			continue
		}
		position, _, _ := strings.Cut(sp.position, ":")
		breakBefore := buf[sp.start-1].(*Point).NumNewlines() > 0
		breakAfter := buf[sp.end+1].(*Point).NumNewlines() > 0
		switch {
		case position == PositionTrailing && breakBefore && !breakAfter:
			var moved bool
			fixes, moved = moveToTrailing(buf, sp, depth, fixes)
			if moved {
				trace.Point(t, trace.ScopeLine, parent, "rebreak.trailing", sp.first.String())
			}
		case position == PositionLeading && breakAfter && !breakBefore:
			var moved bool
			fixes, moved = moveToLeading(buf, sp, depth, fixes)
			if moved {
				trace.Point(t, trace.ScopeLine, parent, "rebreak.leading", sp.first.String())
			}
		}
	}
	return buf, fixes
}

func spanHasNewline(elems []Element) bool {
	for _, el := range elems {
		if p, ok := el.(*Point); ok && p.NumNewlines() > 0 {
			return true
		}
	}
	return false
}

// cloneRun copies the elements of a span onto fresh positionless segments
// registered with the originals' depth info.
func cloneRun(elems []Element, depth *DepthMap) ([]Element, []*segment.Segment, []*segment.Segment) {
	var (
		out       []Element
		originals []*segment.Segment
		clones    []*segment.Segment
	)
	for _, el := range elems {
		var segs []*segment.Segment
		for _, s := range el.Segments() {
			c := s.Clone()
			depth.CopyDepthInfo(s, c, 0)
			originals = append(originals, s)
			clones = append(clones, c)
			segs = append(segs, c)
		}
		switch v := el.(type) {
		case *Block:
			nb := *v
			nb.seg = segs[0]
			out = append(out, &nb)
		case *Point:
			out = append(out, NewPoint(segs...))
		}
	}
	return out, originals, clones
}

func splitMetas(p *Point) (metas, spacing []*segment.Segment) {
	for _, s := range p.segs {
		if s.IsIndent() {
			metas = append(metas, s)
		} else {
			spacing = append(spacing, s)
		}
	}
	return metas, spacing
}

func moveToTrailing(buf []Element, sp rebreakSpan, depth *DepthMap, fixes []Fix) ([]Fix, bool) {
	a := -1
	for i := sp.start - 2; i >= 0; i-- {
		if b, ok := buf[i].(*Block); ok && b.seg.IsCode() {
			a = i
			break
		}
	}
	if a < 0 {
		return fixes, false
	}
	anchor := buf[a].(*Block)
	moved, originals, clones := cloneRun(buf[sp.start:sp.end+1], depth)
	nextMetas, nextSpacing := splitMetas(buf[sp.end+1].(*Point))
	merged := NewPoint(append(slices.Clone(buf[sp.start-1].Segments()), nextMetas...)...)

	desc := fmt.Sprintf("Found leading %s. Expected only trailing near line breaks.", describe(sp.first))
	for _, s := range originals {
		fixes = append(fixes, deleteFix(s, ReasonLinePosition, desc))
	}
	fixes = append(fixes, createAfter(anchor.seg, clones, ReasonLinePosition, desc))
	for _, s := range nextSpacing {
		fixes = append(fixes, deleteFix(s, ReasonLinePosition, desc))
	}
	fixes, gap := NewPoint().Respace(anchor, moved[0].(*Block), fixes, false)

	run := []Element{anchor, gap}
	run = append(run, moved...)
	run = append(run, buf[a+1:sp.start-1]...)
	run = append(run, merged)
	copy(buf[a:], run)
	return fixes, true
}

func moveToLeading(buf []Element, sp rebreakSpan, depth *DepthMap, fixes []Fix) ([]Fix, bool) {
	b := -1
	for i := sp.end + 2; i < len(buf); i++ {
		if blk, ok := buf[i].(*Block); ok && blk.seg.IsCode() {
			b = i
			break
		}
	}
	if b < 0 {
		return fixes, false
	}
	anchor := buf[b].(*Block)
	moved, originals, clones := cloneRun(buf[sp.start:sp.end+1], depth)
	prevMetas, prevSpacing := splitMetas(buf[sp.start-1].(*Point))
	merged := NewPoint(append(prevMetas, buf[sp.end+1].Segments()...)...)

	desc := fmt.Sprintf("Found trailing %s. Expected only leading near line breaks.", describe(sp.first))
	for _, s := range originals {
		fixes = append(fixes, deleteFix(s, ReasonLinePosition, desc))
	}
	fixes = append(fixes, createBefore(anchor.seg, clones, ReasonLinePosition, desc))
	for _, s := range prevSpacing {
		fixes = append(fixes, deleteFix(s, ReasonLinePosition, desc))
	}
	fixes, gap := NewPoint().Respace(moved[len(moved)-1].(*Block), anchor, fixes, false)

	run := []Element{merged}
	run = append(run, buf[sp.end+2:b]...)
	run = append(run, moved...)
	run = append(run, gap, anchor)
	copy(buf[sp.start-1:], run)
	return fixes, true
}
