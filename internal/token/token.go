package token

import (
	"sqlreflow/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Norm    string // folded text, set for Ident and Keyword
	Leading []Trivia
}

// IsLiteral reports whether the token is a number or string literal.
func (t Token) IsLiteral() bool {
	return t.Kind == NumberLit || t.Kind == StringLit
}

// IsTemplate reports whether the token is a template tag of any kind.
func (t Token) IsTemplate() bool {
	switch t.Kind {
	case TemplateExpr, TemplateTag, TemplateComment:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is the keyword kw (given folded).
func (t Token) IsKeyword(kw ...string) bool {
	if t.Kind != Keyword {
		return false
	}
	if len(kw) == 0 {
		return true
	}
	for _, k := range kw {
		if t.Norm == k {
			return true
		}
	}
	return false
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident || t.Kind == QuotedIdent }
