package reflow

import (
	"slices"

	"sqlreflow/internal/segment"
)

// Stack position types.
const (
	PosSolo  = "solo"
	PosStart = "start"
	PosEnd   = "end"
)

// StackPosition locates a raw inside one of its ancestors.
type StackPosition struct {
	Idx  int
	Len  int
	Type string // PosSolo, PosStart, PosEnd or ""
}

func stackPositionFromStep(step segment.PathStep) StackPosition {
	pos := StackPosition{Idx: step.Idx, Len: step.Len}
	switch {
	case len(step.CodeIdxs) == 0:
	case len(step.CodeIdxs) == 1:
		pos.Type = PosSolo
	case step.Idx == step.CodeIdxs[0]:
		pos.Type = PosStart
	case step.Idx == step.CodeIdxs[len(step.CodeIdxs)-1]:
		pos.Type = PosEnd
	}
	return pos
}

// DepthInfo is the ancestry of one raw segment, outermost first.
type DepthInfo struct {
	StackDepth      int
	Stack           []*segment.Segment
	StackClassTypes [][]string
	StackPositions  map[*segment.Segment]StackPosition
}

func depthInfoFromPath(path []segment.PathStep) *DepthInfo {
	info := &DepthInfo{
		StackDepth:      len(path),
		Stack:           make([]*segment.Segment, len(path)),
		StackClassTypes: make([][]string, len(path)),
		StackPositions:  make(map[*segment.Segment]StackPosition, len(path)),
	}
	for i, step := range path {
		info.Stack[i] = step.Segment
		info.StackClassTypes[i] = step.Segment.ClassTypes()
		info.StackPositions[step.Segment] = stackPositionFromStep(step)
	}
	return info
}

// CommonWith returns the ancestors shared with other, outermost first.
// Two raws of one tree always share at least the root.
func (d *DepthInfo) CommonWith(other *DepthInfo) []*segment.Segment {
	if d == nil || other == nil {
		return nil
	}
	n := 0
	for n < len(d.Stack) && n < len(other.Stack) && d.Stack[n] == other.Stack[n] {
		n++
	}
	return d.Stack[:n]
}

// Trim drops the innermost amount ancestors.
func (d *DepthInfo) Trim(amount int) *DepthInfo {
	if amount <= 0 {
		return d
	}
	if amount > len(d.Stack) {
		amount = len(d.Stack)
	}
	keep := len(d.Stack) - amount
	out := &DepthInfo{
		StackDepth:      keep,
		Stack:           slices.Clone(d.Stack[:keep]),
		StackClassTypes: slices.Clone(d.StackClassTypes[:keep]),
		StackPositions:  make(map[*segment.Segment]StackPosition, keep),
	}
	for _, s := range out.Stack {
		out.StackPositions[s] = d.StackPositions[s]
	}
	return out
}

// HasType reports whether any ancestor matches one of types.
func (d *DepthInfo) HasType(types ...string) bool {
	if d == nil {
		return false
	}
	for _, classes := range d.StackClassTypes {
		for _, c := range classes {
			if slices.Contains(types, c) {
				return true
			}
		}
	}
	return false
}

// DepthMap maps raw segments to their depth info. It is filled once from
// the tree and extended as fixes synthesize new segments, so it belongs to
// a single file and is not safe for concurrent use.
type DepthMap struct {
	info map[*segment.Segment]*DepthInfo
}

// NewDepthMapFromParent indexes every raw under parent in one walk.
func NewDepthMapFromParent(parent *segment.Segment) *DepthMap {
	pairs := parent.RawsWithAncestors()
	m := &DepthMap{info: make(map[*segment.Segment]*DepthInfo, len(pairs))}
	for _, p := range pairs {
		m.info[p.Raw] = depthInfoFromPath(p.Path)
	}
	return m
}

// NewDepthMapFromRaws indexes only raws, looking each up from root.
func NewDepthMapFromRaws(raws []*segment.Segment, root *segment.Segment) *DepthMap {
	m := &DepthMap{info: make(map[*segment.Segment]*DepthInfo, len(raws))}
	for _, raw := range raws {
		m.info[raw] = depthInfoFromPath(root.PathTo(raw))
	}
	return m
}

// Get returns the depth info of raw, or nil when it is unknown.
func (m *DepthMap) Get(raw *segment.Segment) *DepthInfo {
	return m.info[raw]
}

// CopyDepthInfo registers newSeg with anchor's depth info, trimmed.
func (m *DepthMap) CopyDepthInfo(anchor, newSeg *segment.Segment, trim int) {
	info := m.info[anchor]
	if info == nil {
		info = &DepthInfo{StackPositions: map[*segment.Segment]StackPosition{}}
	}
	m.info[newSeg] = info.Trim(trim)
}
