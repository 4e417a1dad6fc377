package reflow

import (
	"fmt"
	"slices"
	"strings"

	"sqlreflow/internal/segment"
)

// EditType is the kind of edit a Fix performs on its anchor.
type EditType uint8

const (
	EditDelete EditType = iota
	EditCreateBefore
	EditCreateAfter
	EditReplace
)

func (t EditType) String() string {
	switch t {
	case EditDelete:
		return "delete"
	case EditCreateBefore:
		return "create_before"
	case EditCreateAfter:
		return "create_after"
	case EditReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Reason classifies why a fix was produced, so callers can map fixes to
// their own rule codes.
type Reason uint8

const (
	ReasonEdit Reason = iota // explicit Insert/Without/Replace
	ReasonSpacing
	ReasonTrailingWhitespace
	ReasonIndent
	ReasonLineBreak
	ReasonLineLength
	ReasonLinePosition
)

func (r Reason) String() string {
	switch r {
	case ReasonEdit:
		return "edit"
	case ReasonSpacing:
		return "spacing"
	case ReasonTrailingWhitespace:
		return "trailing_whitespace"
	case ReasonIndent:
		return "indent"
	case ReasonLineBreak:
		return "line_break"
	case ReasonLineLength:
		return "line_length"
	case ReasonLinePosition:
		return "line_position"
	default:
		return "unknown"
	}
}

// Fix is one atomic edit against the original tree.
type Fix struct {
	Type        EditType
	Anchor      *segment.Segment
	Edit        []*segment.Segment // nil for deletions
	Reason      Reason
	Description string
}

func (f Fix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s", f.Type, f.Anchor)
	if len(f.Edit) > 0 {
		b.WriteString(" ->")
		for _, s := range f.Edit {
			fmt.Fprintf(&b, " %q", s.Raw)
		}
	}
	b.WriteString(")")
	return b.String()
}

// EditRaw renders the edit payload.
func (f Fix) EditRaw() string {
	var b strings.Builder
	for _, s := range f.Edit {
		b.WriteString(s.Text())
	}
	return b.String()
}

func (f Fix) clone() Fix {
	f.Edit = slices.Clone(f.Edit)
	return f
}

func deleteFix(seg *segment.Segment, reason Reason, desc string) Fix {
	return Fix{Type: EditDelete, Anchor: seg, Reason: reason, Description: desc}
}

func replaceFix(seg *segment.Segment, edit []*segment.Segment, reason Reason, desc string) Fix {
	return Fix{Type: EditReplace, Anchor: seg, Edit: edit, Reason: reason, Description: desc}
}

func createBefore(seg *segment.Segment, edit []*segment.Segment, reason Reason, desc string) Fix {
	return Fix{Type: EditCreateBefore, Anchor: seg, Edit: edit, Reason: reason, Description: desc}
}

func createAfter(seg *segment.Segment, edit []*segment.Segment, reason Reason, desc string) Fix {
	return Fix{Type: EditCreateAfter, Anchor: seg, Edit: edit, Reason: reason, Description: desc}
}

// Result is a user-facing report entry for one fix.
type Result struct {
	Anchor      *segment.Segment
	Fix         Fix
	Description string
}

// describe renders a segment for messages, e.g. 'comma' or 'keyword'.
func describe(seg *segment.Segment) string {
	if seg == nil {
		return "end of sequence"
	}
	name := seg.Type
	if name == "" {
		name = seg.Kind.String()
	}
	if seg.Raw != "" && seg.Kind == segment.KindCode && len(seg.Raw) <= 20 {
		return fmt.Sprintf("%s %q", strings.ReplaceAll(name, "_", " "), seg.Raw)
	}
	return strings.ReplaceAll(name, "_", " ")
}

func describeIndent(indent string) string {
	switch {
	case indent == "":
		return "no indent"
	case strings.Trim(indent, "\t") == "":
		return fmt.Sprintf("indent of %d tab(s)", len(indent))
	default:
		return fmt.Sprintf("indent of %d space(s)", len(indent))
	}
}
