package lexer

import (
	"bytes"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/token"
)

var templateClose = map[byte]string{'{': "}}", '%': "%}", '#': "#}"}

func (lx *Lexer) isTemplateOpen() bool {
	b0, b1, ok := lx.cursor.Peek2()
	if !ok || b0 != '{' {
		return false
	}
	_, ok = templateClose[b1]
	return ok
}

// scanTemplate scans {{ ... }}, {% ... %} or {# ... #}. Whitespace control
// dashes stay inside the token text.
func (lx *Lexer) scanTemplate() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	opener := lx.cursor.Bump()
	closer := templateClose[opener]

	kind := token.TemplateExpr
	switch opener {
	case '%':
		kind = token.TemplateTag
	case '#':
		kind = token.TemplateComment
	}

	rest := lx.file.Content[lx.cursor.Off:lx.cursor.Limit]
	idx := bytes.Index(rest, []byte(closer))
	if idx < 0 {
		lx.cursor.Skip(len(rest))
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnterminatedTemplate, sp, "unterminated template tag")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(start)}
	}
	lx.cursor.Skip(idx + len(closer))
	return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(start), Text: lx.text(start)}
}
