package lexer

import (
	"sqlreflow/internal/diag"
	"sqlreflow/internal/token"
)

// scanOperatorOrPunct is greedy: three-byte operators first, then two, then one.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		return token.Token{Kind: k, Span: lx.cursor.SpanFrom(start), Text: lx.text(start)}
	}

	switch {
	case lx.try3('-', '>', '>'):
		return emit(token.Operator)
	case lx.try2(':', ':'):
		return emit(token.ColonColon)
	case lx.try2('|', '|'),
		lx.try2('<', '='),
		lx.try2('>', '='),
		lx.try2('<', '>'),
		lx.try2('!', '='),
		lx.try2('=', '='),
		lx.try2('-', '>'),
		lx.try2('<', '<'),
		lx.try2('>', '>'):
		return emit(token.Operator)
	}

	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == ':' && isIdentStartByte(b1) {
		lx.cursor.Bump()
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		return emit(token.Param)
	}

	switch lx.cursor.Bump() {
	case '+', '-', '/', '%', '=', '<', '>', '&', '|', '^', '~':
		return emit(token.Operator)
	case '*':
		return emit(token.Star)
	case ';':
		return emit(token.Semicolon)
	case ',':
		return emit(token.Comma)
	case '.':
		return emit(token.Dot)
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case '[':
		return emit(token.LBracket)
	case ']':
		return emit(token.RBracket)
	case '?':
		return emit(token.Param)
	default:
		// Step over the whole rune so the token stays valid UTF-8.
		lx.cursor.Reset(start)
		lx.bumpRune()
		if lx.cursor.Off == uint32(start) {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "unknown character")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(start)}
	}
}
