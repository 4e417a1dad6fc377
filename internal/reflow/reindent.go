package reflow

import (
	"fmt"
	"slices"
	"strings"

	"sqlreflow/internal/segment"
	"sqlreflow/internal/trace"
)

// indentPoint is a point that matters for indentation: a line break, a
// point carrying indent markers, the first point or the one before the
// end of the file.
type indentPoint struct {
	idx     int
	impulse int
	trough  int
	// initial is the indent balance before the point.
	initial int
	// lastBreakIdx is the element index of the previous line break, or -1.
	lastBreakIdx int
	isLineBreak  bool
	// untaken holds the balances opened by an indent on a line that did
	// not break there, as of just before this point.
	untaken []int
}

func (ip indentPoint) closing() int { return ip.initial + ip.impulse }

// indentLine is the run of indent points between two line breaks.
type indentLine struct {
	initial int
	points  []indentPoint
}

func newIndentLine(points []indentPoint) indentLine {
	start := 0
	if points[len(points)-1].lastBreakIdx >= 0 {
		start = points[0].closing()
	}
	return indentLine{initial: start, points: points}
}

func (l *indentLine) blockSegments(elems []Element) []*segment.Segment {
	first, last := l.points[0], l.points[len(l.points)-1]
	lo := first.idx
	if last.lastBreakIdx < 0 {
		lo = 0
	}
	var out []*segment.Segment
	for _, el := range elems[lo:last.idx] {
		if b, ok := el.(*Block); ok {
			out = append(out, b.seg)
		}
	}
	return out
}

func (l *indentLine) isAll(elems []Element, types ...string) bool {
	segs := l.blockSegments(elems)
	if len(segs) == 0 {
		return false
	}
	for _, s := range segs {
		if !s.Is(types...) {
			return false
		}
	}
	return true
}

func (l *indentLine) isAllComments(elems []Element) bool {
	return l.isAll(elems, "comment")
}

func (l *indentLine) isAllTemplates(elems []Element) bool {
	return l.isAll(elems, "placeholder", "template_loop")
}

// desiredIndentUnits is the line's balance less the indents opened without
// a break, plus the breaks this pass has already forced. When the first
// point dips before climbing, only untaken indents at or below the dip
// still count.
func (l *indentLine) desiredIndentUnits(forced []int) int {
	first := l.points[0]
	relevant := first.untaken
	if first.trough != 0 {
		limit := l.initial - (first.impulse - first.trough)
		relevant = nil
		for _, u := range first.untaken {
			if u <= limit {
				relevant = append(relevant, u)
			}
		}
	}
	return l.initial - len(relevant) + len(forced)
}

func (l indentLine) String() string {
	idxs := make([]string, len(l.points))
	for i, p := range l.points {
		idxs[i] = fmt.Sprint(p.idx)
	}
	return fmt.Sprintf("line(balance=%d, points=[%s])", l.initial, strings.Join(idxs, " "))
}

// crawlIndentPoints walks the sequence once, tracking the indent balance
// and the untaken indents. Points listed in virtual are treated as line
// breaks even though they hold no newline yet.
func crawlIndentPoints(elems []Element, virtual map[int]bool) []indentPoint {
	var (
		out       []indentPoint
		untaken   []int
		balance   int
		lastBreak = -1
	)
	for idx, el := range elems {
		p, ok := el.(*Point)
		if !ok {
			continue
		}
		impulse, trough := p.IndentImpulse()
		ip := indentPoint{
			idx:          idx,
			impulse:      impulse,
			trough:       trough,
			initial:      balance,
			lastBreakIdx: lastBreak,
			untaken:      slices.Clone(untaken),
		}
		switch {
		case p.NumNewlines() > 0 || virtual[idx]:
			ip.isLineBreak = true
			out = append(out, ip)
			lastBreak = idx
		case impulse != 0 || trough != 0 || idx == 0:
			out = append(out, ip)
			for i := 0; i < impulse; i++ {
				untaken = append(untaken, balance+i+1)
			}
		case idx+1 < len(elems) && isEndOfFile(elems[idx+1]):
			// The final line ends here even without a newline.
			ip.isLineBreak = true
			out = append(out, ip)
		}
		balance += impulse
		untaken = slices.DeleteFunc(untaken, func(u int) bool { return u > balance })
	}
	return out
}

func isEndOfFile(el Element) bool {
	b, ok := el.(*Block)
	return ok && b.Is("end_of_file")
}

// mapLines splits the indent points into lines. Each line starts with the
// break that ended the previous one.
func mapLines(points []indentPoint) []indentLine {
	var (
		lines []indentLine
		buf   []indentPoint
	)
	for _, ip := range points {
		buf = append(buf, ip)
		if !ip.isLineBreak {
			continue
		}
		lines = append(lines, newIndentLine(buf))
		buf = []indentPoint{ip}
	}
	if len(buf) > 1 {
		lines = append(lines, newIndentLine(buf))
	}
	return lines
}

// templateBlockID returns the block id of a line made of one template
// marker, or "" when the line does not have that shape.
func templateBlockID(line *indentLine, elems []Element) string {
	n := len(line.points)
	first, last := line.points[0], line.points[n-1]
	if n > 2 || (last.idx-first.idx != 0 && last.idx-first.idx != 2) || last.idx == 0 {
		return ""
	}
	b, ok := elems[last.idx-1].(*Block)
	if !ok || !b.Is("placeholder", "template_loop") {
		return ""
	}
	return b.seg.BlockID
}

// reviseTemplatedLines aligns the lines holding the markers of one
// template block. Markers already level are left alone. Otherwise they
// move to the lowest balance every marker can reach by stepping over the
// indent markers around it, staying below the lines they enclose. When no
// such balance exists they all take the lowest of their balances and the
// enclosed lines drop one level.
func reviseTemplatedLines(lines []indentLine, elems []Element, t trace.Tracer, parent uint64) {
	var order []string
	grouped := make(map[string][]int)
	for i := range lines {
		if !lines[i].isAllTemplates(elems) {
			continue
		}
		id := templateBlockID(&lines[i], elems)
		if id == "" {
			continue
		}
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], i)
	}

	for _, id := range order {
		group := grouped[id]
		balances := make(map[int]bool)
		for _, i := range group {
			balances[lines[i].initial] = true
		}
		if len(balances) == 1 {
			continue
		}

		var overlap map[int]bool
		for _, i := range group {
			steps := reachableBalances(&lines[i], elems)
			if overlap == nil {
				overlap = steps
				continue
			}
			for b := range overlap {
				if !steps[b] {
					delete(overlap, b)
				}
			}
		}

		firstLine, lastLine := group[0], group[len(group)-1]
		if firstLine+1 < lastLine {
			limit := lines[firstLine+1].initial
			for _, l := range lines[firstLine+1 : lastLine] {
				limit = min(limit, l.initial)
			}
			for b := range overlap {
				if b > limit-1 {
					delete(overlap, b)
				}
			}
		}

		var best int
		if len(overlap) > 0 {
			best = minKey(overlap)
			trace.Point(t, trace.ScopeLine, parent, "template.hoist", fmt.Sprintf("block=%s balance=%d", id, best))
		} else {
			best = minKey(balances)
			for i := firstLine + 1; i < lastLine; i++ {
				if !slices.Contains(group, i) {
					lines[i].initial--
				}
			}
			trace.Point(t, trace.ScopeLine, parent, "template.flatten", fmt.Sprintf("block=%s balance=%d", id, best))
		}
		for _, i := range group {
			lines[i].initial = best
		}
	}
}

// reachableBalances walks the line's first point backward and forward
// from its balance, collecting every balance passed.
func reachableBalances(line *indentLine, elems []Element) map[int]bool {
	segs := elems[line.points[0].idx].Segments()
	steps := make(map[int]bool)
	balance := line.initial
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].IsIndent() {
			balance -= segs[i].IndentVal
		}
		steps[balance] = true
	}
	balance = line.initial
	for _, s := range segs {
		if s.IsIndent() {
			balance += s.IndentVal
		}
		steps[balance] = true
	}
	return steps
}

func minKey(m map[int]bool) int {
	first := true
	var out int
	for k := range m {
		if first || k < out {
			out, first = k, false
		}
	}
	return out
}

// reviseCommentLines anchors runs of comment-only lines to the next line
// of code, or to the baseline at the end of the file.
func reviseCommentLines(lines []indentLine, elems []Element) {
	var pending []int
	for i := range lines {
		if lines[i].isAllComments(elems) {
			pending = append(pending, i)
			continue
		}
		for _, c := range pending {
			lines[c].initial = lines[i].initial
		}
		pending = pending[:0]
	}
	for _, c := range pending {
		lines[c].initial = 0
	}
}

// indentPass holds the settings of one reindent run.
type indentPass struct {
	single string
	skipIn []string
	// virtual marks points to be treated as line breaks.
	virtual map[int]bool
	tracer  trace.Tracer
	parent  uint64
}

// lint maps the lines of elems, revises templated and comment lines, then
// evaluates each line in order on a working copy.
func (ps *indentPass) lint(elems []Element) ([]Element, []Fix, error) {
	lines := mapLines(crawlIndentPoints(elems, ps.virtual))
	reviseTemplatedLines(lines, elems, ps.tracer, ps.parent)
	reviseCommentLines(lines, elems)

	buf := slices.Clone(elems)
	var (
		fixes  []Fix
		forced []int
	)
	for i := range lines {
		lineFixes, err := ps.evaluateLine(buf, &lines[i], &forced)
		if err != nil {
			return nil, nil, err
		}
		fixes = append(fixes, lineFixes...)
	}
	return buf, fixes, nil
}

func (ps *indentPass) skipLine(elems []Element, line *indentLine) bool {
	if len(ps.skipIn) == 0 {
		return false
	}
	next := line.points[0].idx + 1
	if line.points[len(line.points)-1].lastBreakIdx < 0 {
		// The first line starts at the top of the file.
		next = 0
		if _, ok := elems[0].(*Point); ok {
			next = 1
		}
	}
	if next >= len(elems) {
		return false
	}
	b, ok := elems[next].(*Block)
	return ok && (b.Is(ps.skipIn...) || b.Depth.HasType(ps.skipIn...))
}

// currentIndent returns the indent the line starts with. known is false
// when the line starts at a virtual break, which has no indent yet.
func currentIndent(elems []Element, line *indentLine, virtual map[int]bool) (indent string, known bool) {
	last := line.points[len(line.points)-1]
	if last.lastBreakIdx >= 0 {
		p := elems[last.lastBreakIdx].(*Point)
		indent, ok := p.Indent()
		if !ok && virtual[last.lastBreakIdx] {
			return "", false
		}
		return indent, true
	}
	if p, ok := elems[0].(*Point); ok {
		return p.Raw(), true
	}
	return "", true
}

func (ps *indentPass) evaluateLine(elems []Element, line *indentLine, forced *[]int) ([]Fix, error) {
	pts := line.points
	first, last := pts[0], pts[len(pts)-1]
	starting := line.initial
	closing := last.closing()

	trace.Point(ps.tracer, trace.ScopeLine, ps.parent, "line",
		fmt.Sprintf("%s closing=%d forced=%v", line, closing, *forced))

	defer func() {
		*forced = slices.DeleteFunc(*forced, func(f int) bool { return f > closing })
	}()

	if ps.skipLine(elems, line) {
		return nil, nil
	}

	var fixes []Fix
	loneLeadingBreak := first.idx == 0 && first.isLineBreak && len(pts) == 1
	desired := strings.Repeat(ps.single, max(line.desiredIndentUnits(*forced), 0))
	current, known := currentIndent(elems, line, ps.virtual)
	if !loneLeadingBreak && (!known || current != desired) {
		if first.idx == 0 && !first.isLineBreak {
			p := elems[0].(*Point)
			var metas []*segment.Segment
			for _, s := range p.segs {
				if s.IsIndent() {
					metas = append(metas, s)
					continue
				}
				fixes = append(fixes, deleteFix(s, ReasonIndent, "First line should not be indented."))
			}
			elems[0] = NewPoint(metas...)
		} else {
			f, err := ps.indentPoint(elems, first.idx, desired)
			if err != nil {
				return nil, err
			}
			fixes = append(fixes, f...)
		}
	}

	switch {
	case closing > starting:
		closingTrough := last.initial + last.impulse
		if last.trough != 0 {
			closingTrough = last.initial + last.trough
		}
		if !slices.Contains(last.untaken, closingTrough) {
			break
		}
		target := -1
		for i, ip := range pts {
			if ip.closing() == closingTrough {
				target = i
				break
			}
		}
		if target < 0 {
			invariant("reindent", "no point reaches balance %d on %s", closingTrough, line)
		}
		ip := pts[target]
		f, err := ps.indentPoint(elems, ip.idx, strings.Repeat(ps.single, max(ip.closing()-len(ip.untaken), 0)))
		if err != nil {
			return nil, err
		}
		fixes = append(fixes, f...)
		*forced = append(*forced, closing)
	case closing < starting:
		for _, ip := range pts[:len(pts)-1] {
			if ip.isLineBreak || ip.impulse >= 0 {
				continue
			}
			if slices.Contains(ip.untaken, ip.initial) && !slices.Contains(*forced, ip.initial) {
				continue
			}
			units := ip.closing() - len(ip.untaken) + len(*forced)
			f, err := ps.indentPoint(elems, ip.idx, strings.Repeat(ps.single, max(units, 0)))
			if err != nil {
				return nil, err
			}
			fixes = append(fixes, f...)
		}
	}
	return fixes, nil
}

// indentPoint indents the point at idx in place and returns the fixes.
func (ps *indentPass) indentPoint(elems []Element, idx int, desired string) ([]Fix, error) {
	var after, before *segment.Segment
	if idx > 0 {
		after = elems[idx-1].(*Block).seg
	}
	if idx+1 < len(elems) {
		before = elems[idx+1].(*Block).seg
	}
	fixes, p, err := elems[idx].(*Point).IndentTo(desired, after, before)
	if err != nil {
		return nil, fmt.Errorf("reindent point %d: %w", idx, err)
	}
	if ps.virtual[idx] {
		for i := range fixes {
			fixes[i].Reason = ReasonLineLength
		}
	}
	elems[idx] = p
	return fixes, nil
}
