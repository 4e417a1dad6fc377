package fix

import (
	"sqlreflow/internal/diag"
	"sqlreflow/internal/source"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText creates fix that inserts text at span (Span.Start == Span.End).
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title: title,
		Edits: []diag.TextEdit{{Span: at, NewText: text}},
	}
	return applyOptions(fix, opts)
}

// DeleteSpan removes text covered by span.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title: title,
		Edits: []diag.TextEdit{{Span: span, OldText: expect}},
	}
	return applyOptions(fix, opts)
}

// ReplaceSpan replaces text covered by span with newText.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title: title,
		Edits: []diag.TextEdit{{Span: span, NewText: newText, OldText: expect}},
	}
	return applyOptions(fix, opts)
}

// FromEdits groups edits into one fix. Nil entries are skipped.
func FromEdits(title string, edits []*diag.TextEdit, opts ...Option) diag.Fix {
	fix := diag.Fix{Title: title}
	for _, e := range edits {
		if e != nil {
			fix.Edits = append(fix.Edits, *e)
		}
	}
	return applyOptions(fix, opts)
}
