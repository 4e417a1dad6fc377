package diag

import (
	"sqlreflow/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces the bytes under Span with NewText. OldText, when set,
// guards the edit: it is skipped if the file no longer holds that text.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Fix is a set of edits that must be applied together.
type Fix struct {
	ID    string
	Title string
	Edits []TextEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
