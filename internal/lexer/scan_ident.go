package lexer

import (
	"sqlreflow/internal/diag"
	"sqlreflow/internal/token"
)

// scanIdentOrKeyword scans an identifier and checks the folded spelling
// against the keyword table. Keywords are case-insensitive.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()

	r, sz := lx.peekRune()
	if sz == 0 {
		return token.Token{Kind: token.Invalid, Span: lx.cursor.SpanFrom(start)}
	}
	if r < utf8RuneSelf {
		if !isIdentStartByte(byte(r)) {
			return lx.scanOperatorOrPunct()
		}
		lx.cursor.Bump()
	} else {
		if !isIdentStartRune(r) {
			return lx.scanOperatorOrPunct()
		}
		lx.bumpRune()
	}
	for {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if lx.cursor.EOF() || !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r2, sz2 := lx.peekRune()
		if sz2 == 0 || !isIdentContinueRune(r2) {
			break
		}
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(start)
	norm := lx.fold.String(text)
	if token.LookupKeyword(norm) {
		return token.Token{Kind: token.Keyword, Span: sp, Text: text, Norm: norm}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text, Norm: norm}
}

// scanQuotedIdent scans "ident" or `ident`. A doubled quote escapes itself.
func (lx *Lexer) scanQuotedIdent(quote byte) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		if lx.cursor.Bump() != quote {
			continue
		}
		if lx.cursor.Peek() == quote {
			lx.cursor.Bump()
			continue
		}
		text := lx.text(start)
		return token.Token{Kind: token.QuotedIdent, Span: lx.cursor.SpanFrom(start), Text: text, Norm: text}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated quoted identifier")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(start)}
}
