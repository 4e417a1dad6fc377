package fix

import (
	"errors"
	"fmt"
	"slices"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/reflow"
	"sqlreflow/internal/segment"
	"sqlreflow/internal/source"
)

// ErrUnanchored is returned when a reflow fix targets a segment that has no
// source position and no earlier fix created it.
var ErrUnanchored = errors.New("fix: anchor has no source position")

// FromReflow converts reflow fixes into text edits. out[i] is the edit for
// fixes[i]. A fix anchored on a segment that an earlier fix created is folded
// into that earlier fix's payload, and out[i] is nil.
func FromReflow(fixes []reflow.Fix) ([]*diag.TextEdit, error) {
	work := make([]reflow.Fix, len(fixes))
	for i, f := range fixes {
		f.Edit = slices.Clone(f.Edit)
		work[i] = f
	}
	folded := make([]bool, len(work))
	for i := range work {
		if _, ok := AnchorSpan(work[i].Anchor); ok {
			continue
		}
		host := -1
		for j := i - 1; j >= 0; j-- {
			if !folded[j] && slices.Contains(work[j].Edit, work[i].Anchor) {
				host = j
				break
			}
		}
		if host < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnanchored, work[i])
		}
		work[host].Edit = fold(work[host].Edit, work[i])
		folded[i] = true
	}

	out := make([]*diag.TextEdit, len(work))
	for i, f := range work {
		if folded[i] {
			continue
		}
		span, _ := AnchorSpan(f.Anchor)
		var edit diag.TextEdit
		switch f.Type {
		case reflow.EditDelete:
			edit = diag.TextEdit{Span: span, OldText: f.Anchor.Text()}
		case reflow.EditReplace:
			edit = diag.TextEdit{Span: span, NewText: f.EditRaw(), OldText: f.Anchor.Text()}
		case reflow.EditCreateBefore:
			edit = diag.TextEdit{Span: source.At(span.File, span.Start), NewText: f.EditRaw()}
		case reflow.EditCreateAfter:
			edit = diag.TextEdit{Span: source.At(span.File, span.End), NewText: f.EditRaw()}
		default:
			return nil, fmt.Errorf("fix: unknown edit type %d", f.Type)
		}
		out[i] = &edit
	}
	return out, nil
}

// fold applies f to the payload of the fix that created f's anchor.
func fold(payload []*segment.Segment, f reflow.Fix) []*segment.Segment {
	idx := slices.Index(payload, f.Anchor)
	switch f.Type {
	case reflow.EditDelete:
		return slices.Delete(payload, idx, idx+1)
	case reflow.EditReplace:
		return slices.Replace(payload, idx, idx+1, f.Edit...)
	case reflow.EditCreateBefore:
		return slices.Insert(payload, idx, f.Edit...)
	default:
		return slices.Insert(payload, idx+1, f.Edit...)
	}
}

// AnchorSpan is the source span of seg. Nodes cover their first through last
// positioned leaf.
func AnchorSpan(seg *segment.Segment) (source.Span, bool) {
	if seg == nil {
		return source.Span{}, false
	}
	if seg.Pos != nil {
		return seg.Pos.Span, true
	}
	if seg.IsRaw() {
		return source.Span{}, false
	}
	var (
		span  source.Span
		found bool
	)
	for _, raw := range seg.RawSegments() {
		if raw.Pos == nil {
			continue
		}
		if !found {
			span, found = raw.Pos.Span, true
			continue
		}
		span = span.Cover(raw.Pos.Span)
	}
	return span, found
}
