package lexer

import (
	"sqlreflow/internal/diag"
	"sqlreflow/internal/token"
)

// collectLeadingTrivia gathers the trivia before the next significant token:
//   - runs of ' ', '\t' and '\r' become one TriviaSpace
//   - every '\n' is its own TriviaNewline
//   - "--" up to the newline is a TriviaLineComment
//   - "/* ... */" is a TriviaBlockComment; nesting is allowed and an
//     unterminated comment is reported and cut at EOF
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case b == ' ' || b == '\t' || b == '\r':
			for {
				b2 := lx.cursor.Peek()
				if b2 != ' ' && b2 != '\t' && b2 != '\r' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)
			continue

		case b == '\n':
			lx.cursor.Bump()
			lx.pushTrivia(token.TriviaNewline, start)
			continue

		case lx.cursor.HasPrefix("--"):
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaLineComment, start)
			continue

		case lx.cursor.HasPrefix("/*"):
			lx.scanBlockComment(start)
			continue
		}
		break
	}
}

func (lx *Lexer) scanBlockComment(start Mark) {
	lx.cursor.Skip(2)
	depth := 1
	for !lx.cursor.EOF() && depth > 0 {
		switch {
		case lx.try2('/', '*'):
			depth++
		case lx.try2('*', '/'):
			depth--
		default:
			lx.cursor.Bump()
		}
	}
	if depth > 0 {
		lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
	}
	lx.pushTrivia(token.TriviaBlockComment, start)
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	lx.hold = append(lx.hold, token.Trivia{
		Kind: kind,
		Span: lx.cursor.SpanFrom(start),
		Text: lx.text(start),
	})
}
