package reflow

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"sqlreflow/internal/segment"
	"sqlreflow/internal/trace"
)

// lintLineLength runs the indent pass and, while some line is wider than
// maxLen, marks the shallowest breakable points of that line as virtual
// line breaks and runs the pass again from the original elements. With
// maxLen <= 0 it is a plain indent pass.
func lintLineLength(elems []Element, ps *indentPass, maxLen int) ([]Element, []Fix, error) {
	ps.virtual = make(map[int]bool)
	out, fixes, err := ps.lint(elems)
	if err != nil || maxLen <= 0 {
		return out, fixes, err
	}
	for range len(elems) {
		cands := lineLengthCandidates(out, ps.virtual, maxLen)
		if len(cands) == 0 {
			break
		}
		for _, idx := range cands {
			ps.virtual[idx] = true
		}
		trace.Point(ps.tracer, trace.ScopeLine, ps.parent, "line_length.break", fmt.Sprint(cands))
		out, fixes, err = ps.lint(elems)
		if err != nil {
			return nil, nil, err
		}
	}
	return out, fixes, nil
}

// LongLine is a rendered line still wider than Config.MaxLineLength after
// Reindent because it has no permitted break point. Anchor is its first
// token that has a source position.
type LongLine struct {
	Anchor *segment.Segment
	Width  int
}

// longLines lists the lines of elems wider than maxLen.
func longLines(elems []Element, maxLen int) []LongLine {
	if maxLen <= 0 {
		return nil
	}
	var out []LongLine
	for _, line := range splitLines(elems) {
		w := line.width(elems)
		if w <= maxLen {
			continue
		}
		for i := line.lo; i < line.hi; i++ {
			if b, ok := elems[i].(*Block); ok && b.seg.Pos != nil {
				out = append(out, LongLine{Anchor: b.seg, Width: w})
				break
			}
		}
	}
	return out
}

// lineSpan is a half-open element range holding one rendered line. Its
// first element may be the point carrying the line's indent.
type lineSpan struct {
	lo, hi int
}

func splitLines(elems []Element) []lineSpan {
	var (
		out []lineSpan
		lo  int
	)
	for i, el := range elems {
		if p, ok := el.(*Point); ok && p.NumNewlines() > 0 && i > 0 {
			out = append(out, lineSpan{lo: lo, hi: i})
			lo = i
		}
	}
	return append(out, lineSpan{lo: lo, hi: len(elems)})
}

// width renders the line and measures its widest display row.
func (l lineSpan) width(elems []Element) int {
	var b strings.Builder
	for i := l.lo; i < l.hi; i++ {
		if p, ok := elems[i].(*Point); ok && i == l.lo && p.NumNewlines() > 0 {
			indent, _ := p.Indent()
			b.WriteString(indent)
			continue
		}
		b.WriteString(elems[i].Raw())
	}
	widest := 0
	for _, row := range strings.Split(b.String(), "\n") {
		widest = max(widest, runewidth.StringWidth(row))
	}
	return widest
}

// lineLengthCandidates returns the points to break on every over-long
// line. A point is breakable where an indent opens or closes, or after a
// comma. Only the points at the line's lowest level are returned, so the
// outermost structure breaks first.
func lineLengthCandidates(elems []Element, virtual map[int]bool, maxLen int) []int {
	balances := make([]int, len(elems))
	balance := 0
	for i, el := range elems {
		balances[i] = balance
		if p, ok := el.(*Point); ok {
			balance += p.impulse
		}
	}

	var out []int
	for _, line := range splitLines(elems) {
		if line.width(elems) <= maxLen {
			continue
		}
		type cand struct{ idx, level int }
		var cands []cand
		for i := line.lo + 1; i < line.hi; i++ {
			p, ok := elems[i].(*Point)
			if !ok || virtual[i] || i == len(elems)-1 {
				continue
			}
			next, ok := elems[i+1].(*Block)
			if !ok || next.Is("end_of_file", "comment") {
				continue
			}
			pre := balances[i]
			switch {
			case p.impulse > 0:
				cands = append(cands, cand{i, pre})
			case p.impulse < 0:
				cands = append(cands, cand{i, pre + p.impulse})
			case elems[i-1].(*Block).Is("comma"):
				cands = append(cands, cand{i, pre - 1})
			}
		}
		if len(cands) == 0 {
			continue
		}
		lowest := cands[0].level
		for _, c := range cands[1:] {
			lowest = min(lowest, c.level)
		}
		for _, c := range cands {
			if c.level == lowest {
				out = append(out, c.idx)
			}
		}
	}
	return out
}
