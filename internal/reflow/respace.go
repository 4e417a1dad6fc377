package reflow

import (
	"fmt"
	"slices"
	"strings"

	"sqlreflow/internal/segment"
)

// determineConstraints resolves the spacing either side of a point. The
// deepest common ancestor's spacing_within overrides both sides.
func determineConstraints(prev, next *Block, stripNewlines bool) (pre, post string, strip bool) {
	pre, post, strip = SpacingSingle, SpacingSingle, stripNewlines
	if prev != nil {
		pre = prev.SpacingAfter
	}
	if next != nil {
		post = next.SpacingBefore
	}
	if prev == nil || next == nil {
		return pre, post, strip
	}
	common := prev.Depth.CommonWith(next.Depth)
	if len(common) == 0 {
		return pre, post, strip
	}
	within, ok := prev.stackSpacingWithin[common[len(common)-1]]
	if !ok {
		return pre, post, strip
	}
	spacing, modifier, _ := strings.Cut(within, ":")
	if modifier == "inline" {
		strip = true
	}
	switch spacing {
	case SpacingTouch:
		if pre != SpacingAny {
			pre = SpacingTouch
		}
		if post != SpacingAny {
			post = SpacingTouch
		}
	case SpacingAny:
		pre, post = SpacingAny, SpacingAny
	}
	return pre, post, strip
}

// processSpacing removes trailing whitespace before newlines (and the
// newlines themselves when stripping). It returns the surviving segments,
// the last whitespace still present and the deletions made.
func processSpacing(segs []*segment.Segment, strip bool) ([]*segment.Segment, *segment.Segment, []Fix) {
	var (
		removed []*segment.Segment
		fixes   []Fix
		lastWS  []*segment.Segment
	)
	for _, s := range segs {
		switch s.Kind {
		case segment.KindWhitespace:
			lastWS = append(lastWS, s)
		case segment.KindNewline:
			if strip {
				removed = append(removed, s)
				fixes = append(fixes, deleteFix(s, ReasonSpacing, "Unexpected line break."))
				continue
			}
			for _, ws := range lastWS {
				removed = append(removed, ws)
				fixes = append(fixes, deleteFix(ws, ReasonTrailingWhitespace, "Unnecessary trailing whitespace."))
			}
			lastWS = nil
		}
	}
	if len(lastWS) >= 2 {
		for _, ws := range lastWS[:len(lastWS)-1] {
			removed = append(removed, ws)
			fixes = append(fixes, deleteFix(ws, ReasonSpacing, "Unnecessary whitespace."))
		}
	}
	kept := make([]*segment.Segment, 0, len(segs))
	for _, s := range segs {
		if !slices.Contains(removed, s) {
			kept = append(kept, s)
		}
	}
	var last *segment.Segment
	if len(lastWS) > 0 {
		last = lastWS[len(lastWS)-1]
	}
	return kept, last, fixes
}

// Respace recomputes horizontal spacing between prev and next. fixes is the
// fix list accumulated so far; it is returned extended, and an existing
// creation fix may be amended when the neighbour is itself an insertion.
func (p *Point) Respace(prev, next *Block, fixes []Fix, stripNewlines bool) ([]Fix, *Point) {
	existing := slices.Clone(fixes)
	pre, post, strip := determineConstraints(prev, next, stripNewlines)
	buf, lastWS, newFixes := processSpacing(p.segs, strip)

	beforeEOF := next != nil && next.Is("end_of_file")
	if beforeEOF && lastWS != nil {
		newFixes = append(newFixes, deleteFix(lastWS, ReasonTrailingWhitespace,
			"Unnecessary trailing whitespace at end of file."))
		buf = slices.DeleteFunc(buf, func(s *segment.Segment) bool { return s == lastWS })
		lastWS = nil
	}

	hasNewline := slices.ContainsFunc(buf, func(s *segment.Segment) bool { return s.Kind == segment.KindNewline })
	if hasNewline || beforeEOF {
		// Whitespace that no longer touches its newline means something
		// between them was removed; drop it so the indent is recomputed.
		if lastWS != nil {
			if idx := slices.Index(p.segs, lastWS); idx > 0 {
				nl := p.segs[idx-1]
				if nl.Kind == segment.KindNewline && nl.Pos != nil && lastWS.Pos != nil && nl.Pos.Span.End != lastWS.Pos.Span.Start {
					buf = slices.DeleteFunc(buf, func(s *segment.Segment) bool { return s == lastWS })
					newFixes = append(newFixes, deleteFix(lastWS, ReasonSpacing, "Unexpected whitespace after removal."))
				}
			}
		}
		return append(existing, newFixes...), NewPoint(buf...)
	}

	if lastWS != nil {
		var f []Fix
		buf, f = respaceInlineWithSpace(pre, post, next, buf, lastWS)
		newFixes = append(newFixes, f...)
		return append(existing, newFixes...), NewPoint(buf...)
	}
	buf, all := respaceInlineWithoutSpace(pre, post, prev, next, buf, append(existing, newFixes...))
	return all, NewPoint(buf...)
}

func respaceInlineWithSpace(pre, post string, next *Block, buf []*segment.Segment, ws *segment.Segment) ([]*segment.Segment, []Fix) {
	idx := slices.Index(buf, ws)
	if pre == SpacingAny || post == SpacingAny {
		return buf, nil
	}
	if pre == SpacingTouch || post == SpacingTouch {
		desc := "Unexpected whitespace."
		if next != nil {
			desc = fmt.Sprintf("Unexpected whitespace before %s.", describe(next.seg))
		}
		return slices.Delete(slices.Clone(buf), idx, idx+1), []Fix{deleteFix(ws, ReasonSpacing, desc)}
	}
	if ws.Raw == " " {
		return buf, nil
	}
	single := ws.WithRaw(" ")
	out := slices.Clone(buf)
	out[idx] = single
	desc := fmt.Sprintf("Expected only single space. Found %q.", ws.Raw)
	if next != nil {
		desc = fmt.Sprintf("Expected only single space before %s. Found %q.", describe(next.seg), ws.Raw)
	}
	return out, []Fix{replaceFix(ws, []*segment.Segment{single}, ReasonSpacing, desc)}
}

func respaceInlineWithoutSpace(pre, post string, prev, next *Block, buf []*segment.Segment, fixes []Fix) ([]*segment.Segment, []Fix) {
	if pre != SpacingSingle || post != SpacingSingle {
		return buf, fixes
	}
	added := segment.NewWhitespace(" ")
	buf = append(slices.Clone(buf), added)

	// A neighbour without a position was created by an earlier fix; extend
	// that fix rather than anchoring on a segment the source never had.
	var insertion *segment.Segment
	afterInsertion := false
	switch {
	case prev != nil && prev.seg.Pos == nil:
		insertion, afterInsertion = prev.seg, true
	case next != nil && next.seg.Pos == nil:
		insertion = next.seg
	}
	if insertion != nil {
		for i, f := range fixes {
			j := slices.Index(f.Edit, insertion)
			if j < 0 {
				continue
			}
			amended := f.clone()
			if afterInsertion {
				j++
			}
			amended.Edit = slices.Insert(amended.Edit, j, added)
			out := slices.Clone(fixes)
			out[i] = amended
			return buf, out
		}
	}

	desc := "Expected single whitespace."
	if prev != nil && next != nil {
		desc = fmt.Sprintf("Expected single whitespace between %s and %s.", describe(prev.seg), describe(next.seg))
	}
	switch {
	case prev != nil:
		fixes = append(fixes, createAfter(prev.seg, []*segment.Segment{added}, ReasonSpacing, desc))
	case next != nil:
		fixes = append(fixes, createBefore(next.seg, []*segment.Segment{added}, ReasonSpacing, desc))
	}
	return buf, fixes
}
