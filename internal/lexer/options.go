package lexer

import (
	"sqlreflow/internal/diag"
	"sqlreflow/internal/source"
)

// maxTokenLength bounds a single token. Longer tokens are reported and
// lexing stops.
const maxTokenLength = 1 << 16

type Options struct {
	// Reporter may be nil; errors are then dropped and lexing continues.
	Reporter diag.Reporter
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil, nil)
	}
}
