package lexer

import (
	"bytes"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/token"
)

// scanString scans a single-quoted literal. A doubled quote escapes itself
// and the literal may span lines.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		if lx.cursor.Bump() != '\'' {
			continue
		}
		if lx.cursor.Peek() == '\'' {
			lx.cursor.Bump()
			continue
		}
		return token.Token{Kind: token.StringLit, Span: lx.cursor.SpanFrom(start), Text: lx.text(start)}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(start)}
}

// scanDollar scans $1 style parameters and $tag$ ... $tag$ strings.
func (lx *Lexer) scanDollar() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	if isDec(lx.cursor.Peek()) {
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		return token.Token{Kind: token.Param, Span: lx.cursor.SpanFrom(start), Text: lx.text(start)}
	}
	for !lx.cursor.EOF() && isIdentStartByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if !lx.cursor.Eat('$') {
		lx.cursor.Reset(start)
		lx.cursor.Bump()
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "unknown character")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(start)}
	}
	delim := []byte(lx.text(start))
	rest := lx.file.Content[lx.cursor.Off:lx.cursor.Limit]
	idx := bytes.Index(rest, delim)
	if idx < 0 {
		lx.cursor.Skip(len(rest))
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnterminatedString, sp, "unterminated dollar-quoted string")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(start)}
	}
	lx.cursor.Skip(idx + len(delim))
	return token.Token{Kind: token.StringLit, Span: lx.cursor.SpanFrom(start), Text: lx.text(start)}
}
