package parser

import (
	"slices"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/segment"
	"sqlreflow/internal/token"
)

type frameKind uint8

const (
	frameFile frameKind = iota
	frameStatement
	frameClause
	frameBracket
	frameFunction
	frameCase
	frameWhen
	frameJoinOn
	frameSetOp
)

// frame is one open node. Indentation opens lazily: once the token named by
// indentAfter is emitted the frame waits for the next token, so modifiers
// such as DISTINCT can sit before the indent and an empty construct gets
// no indent at all.
type frame struct {
	kind        frameKind
	node        *segment.Segment
	indentAfter string
	modifiers   []string
	indentSeen  bool
	pending     bool
	indented    bool
	start       token.Token
}

func (p *Parser) top() *frame { return p.stack[len(p.stack)-1] }

func (p *Parser) open(f *frame) {
	f.start = p.toks[p.pos]
	parent := p.top()
	parent.node.Children = append(parent.node.Children, f.node)
	p.stack = append(p.stack, f)
}

// pop closes the innermost frame. forced marks closes caused by a statement
// terminator or the end of file, where an open bracket is an error.
func (p *Parser) pop(forced bool) {
	f := p.top()
	if forced && f.kind == frameBracket {
		var notes []diag.Note
		if p.pos < len(p.toks) {
			notes = append(notes, diag.Note{Span: p.toks[p.pos].Span, Msg: "statement ends here"})
		}
		p.err(diag.LexUnbalancedBracket, f.start.Span, "bracket is never closed", notes...)
	}
	if f.indented {
		f.node.Children = append(f.node.Children, segment.NewDedent())
	}
	p.stack = p.stack[:len(p.stack)-1]
}

// popTo pops frames until the frame at idx is the innermost one.
func (p *Parser) popTo(idx int, forced bool) {
	for len(p.stack)-1 > idx {
		p.pop(forced)
	}
}

// popToContainer ends every clause level construct inside the current
// statement or bracket.
func (p *Parser) popToContainer() {
	for {
		switch p.top().kind {
		case frameFile, frameStatement, frameBracket:
			return
		}
		p.pop(false)
	}
}

// find returns the index of the innermost frame of kind k that belongs to
// the current statement or bracket, or -1.
func (p *Parser) find(k frameKind) int {
	for i := len(p.stack) - 1; i > 0; i-- {
		switch p.stack[i].kind {
		case k:
			return i
		case frameStatement, frameBracket:
			return -1
		}
	}
	return -1
}

func (p *Parser) findJoin() int {
	for i := len(p.stack) - 1; i > 0; i-- {
		f := p.stack[i]
		switch {
		case f.kind == frameClause && f.node.Type == "join_clause":
			return i
		case f.kind == frameStatement || f.kind == frameBracket:
			return -1
		}
	}
	return -1
}

func (p *Parser) ensureStatement(tok token.Token) {
	if p.top().kind != frameFile {
		return
	}
	p.lead(tok)
	p.open(&frame{kind: frameStatement, node: segment.NewNode("statement")})
}

// flushFor opens a pending indent unless tok is one of the frame's
// modifiers.
func (p *Parser) flushFor(tok token.Token) {
	f := p.top()
	if !f.pending {
		return
	}
	if tok.Kind == token.Keyword && slices.Contains(f.modifiers, tok.Norm) {
		return
	}
	f.pending = false
	f.indented = true
	f.node.Children = append(f.node.Children, segment.NewIndent())
}

// lead emits tok's leading trivia into the innermost frame, once.
func (p *Parser) lead(tok token.Token) {
	if p.led {
		return
	}
	p.led = true
	p.flushFor(tok)
	for _, tr := range tok.Leading {
		p.appendLeaf(triviaLeaf(tr))
	}
}

func (p *Parser) appendLeaf(s *segment.Segment) {
	f := p.top()
	f.node.Children = append(f.node.Children, s)
}

// emit appends tok as a code leaf of type typ.
func (p *Parser) emit(tok token.Token, typ string) {
	p.appendLeaf(p.leaf(tok, typ))
	f := p.top()
	if !f.indentSeen && f.indentAfter != "" && (tok.Norm == f.indentAfter || tok.Text == f.indentAfter) {
		f.indentSeen = true
		f.pending = true
	}
}

// closeWith ends the innermost frame with tok as its last leaf, placing the
// frame's dedent before tok's leading trivia.
func (p *Parser) closeWith(tok token.Token, typ string) {
	f := p.top()
	f.pending = false
	if f.indented {
		f.indented = false
		f.node.Children = append(f.node.Children, segment.NewDedent())
	}
	p.lead(tok)
	p.appendLeaf(p.leaf(tok, typ))
	p.stack = p.stack[:len(p.stack)-1]
}
