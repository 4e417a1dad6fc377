package driver

import (
	"fmt"
	"slices"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/fix"
	"sqlreflow/internal/reflow"
	"sqlreflow/internal/source"
)

// fixGroup is a run of reflow fixes reported as one diagnostic and applied
// atomically.
type fixGroup struct {
	first   int
	indices []int
	created bool
}

// diagnosticsFor turns the fixes a pass produced into diagnostics. Fixes
// folded into an earlier fix carry no edit of their own. The pieces of a
// line-position move (delete the run, recreate it across the break, drop
// the spacing left behind) form one group; every other fix stands alone.
func diagnosticsFor(seq *reflow.Sequence) ([]diag.Diagnostic, error) {
	fixes := seq.Fixes()
	if len(fixes) == 0 {
		return nil, nil
	}
	edits, err := fix.FromReflow(fixes)
	if err != nil {
		return nil, err
	}
	results := seq.Results()

	var (
		groups []*fixGroup
		cur    *fixGroup
	)
	for i, f := range fixes {
		if edits[i] == nil {
			continue
		}
		if cur != nil && joinsGroup(fixes[cur.first], f, cur.created) {
			cur.indices = append(cur.indices, i)
			cur.created = cur.created || f.Type == reflow.EditCreateAfter || f.Type == reflow.EditCreateBefore
			continue
		}
		cur = &fixGroup{first: i, indices: []int{i}, created: f.Type == reflow.EditCreateAfter || f.Type == reflow.EditCreateBefore}
		groups = append(groups, cur)
	}

	out := make([]diag.Diagnostic, 0, len(groups))
	for _, g := range groups {
		f := fixes[g.first]
		groupEdits := make([]*diag.TextEdit, 0, len(g.indices))
		for _, i := range g.indices {
			groupEdits = append(groupEdits, edits[i])
		}
		primary := edits[g.first].Span
		if g.first < len(results) {
			if sp, ok := fix.AnchorSpan(results[g.first].Anchor); ok {
				primary = sp
			}
		}
		out = append(out, diag.NewWarning(codeFor(fixes, g), primary, f.Description).
			WithFixSuggestion(fix.FromEdits(f.Description, groupEdits)))
	}
	return out, nil
}

type editKey struct {
	span    source.Span
	newText string
}

// dropShadowedSpacing removes spacing diagnostics whose every edit is also
// made by another layout diagnostic, such as leading whitespace on the
// first line, which both respace and reindent delete.
func dropShadowedSpacing(diags []diag.Diagnostic) []diag.Diagnostic {
	others := make(map[editKey]bool)
	for _, d := range diags {
		if d.Code == diag.LayoutSpacing {
			continue
		}
		for _, f := range d.Fixes {
			for _, e := range f.Edits {
				others[editKey{e.Span, e.NewText}] = true
			}
		}
	}
	if len(others) == 0 {
		return diags
	}
	return slices.DeleteFunc(diags, func(d diag.Diagnostic) bool {
		if d.Code != diag.LayoutSpacing || len(d.Fixes) == 0 {
			return false
		}
		for _, f := range d.Fixes {
			for _, e := range f.Edits {
				if !others[editKey{e.Span, e.NewText}] {
					return false
				}
			}
		}
		return true
	})
}

// longLineDiagnostics reports lines no break could shorten. They carry no
// fix.
func longLineDiagnostics(seq *reflow.Sequence, maxLen int) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, ll := range seq.LongLines() {
		sp, ok := fix.AnchorSpan(ll.Anchor)
		if !ok {
			continue
		}
		out = append(out, diag.NewWarning(diag.LayoutLineLength, sp,
			fmt.Sprintf("Line is too long (%d > %d).", ll.Width, maxLen)))
	}
	return out
}

// joinsGroup reports whether f continues the line-position move started by
// head. A deletion of code after the move's recreation starts a new move.
func joinsGroup(head, f reflow.Fix, created bool) bool {
	if head.Reason != reflow.ReasonLinePosition || f.Reason != reflow.ReasonLinePosition {
		return false
	}
	if head.Description != f.Description {
		return false
	}
	if created && f.Type == reflow.EditDelete && !f.Anchor.IsSpacing() {
		return false
	}
	return true
}

func codeFor(fixes []reflow.Fix, g *fixGroup) diag.Code {
	switch fixes[g.first].Reason {
	case reflow.ReasonIndent, reflow.ReasonLineBreak:
		return diag.LayoutIndent
	case reflow.ReasonLineLength:
		return diag.LayoutLineLength
	case reflow.ReasonLinePosition:
		for _, i := range g.indices {
			if movesComma(fixes[i]) {
				return diag.LayoutCommas
			}
		}
		return diag.LayoutOperators
	}
	return diag.LayoutSpacing
}

func movesComma(f reflow.Fix) bool {
	if f.Anchor != nil && f.Type == reflow.EditDelete && f.Anchor.Is("comma") {
		return true
	}
	for _, s := range f.Edit {
		if s.Is("comma") {
			return true
		}
	}
	return false
}
