package parser

import (
	"fmt"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/lexer"
	"sqlreflow/internal/segment"
	"sqlreflow/internal/source"
	"sqlreflow/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error limit has been reached.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	Root *segment.Segment
	Bag  *diag.Bag
	// Errors counts structural errors found by the parser itself.
	Errors uint
}

// Parser holds the state for building one file's segment tree.
type Parser struct {
	file   *source.File
	toks   []token.Token
	pos    int
	opts   Options
	stack  []*frame
	blocks []blockRef // open template blocks, innermost last
	nextID int
	prev   token.Token // previous significant token
	led    bool        // leading trivia of the current token already emitted
	// between is set after BETWEEN so the next AND stays a plain keyword.
	between bool
}

// ParseFile lexes file and arranges its tokens into a segment tree. The
// tree always renders back to the file's content; every leaf is positioned.
// Problems are reported through opts.Reporter.
func ParseFile(file *source.File, opts Options) (Result, error) {
	lx := lexer.New(file, lexer.Options{Reporter: opts.Reporter})
	root := segment.NewNode("file")
	p := Parser{
		file:  file,
		toks:  lx.All(),
		opts:  opts,
		stack: []*frame{{kind: frameFile, node: root}},
	}
	for p.pos < len(p.toks) {
		p.step(p.toks[p.pos])
		p.pos++
	}

	var bag *diag.Bag
	if br, ok := opts.Reporter.(*diag.BagReporter); ok {
		bag = br.Bag
	}
	res := Result{Root: root, Bag: bag, Errors: p.opts.CurrentErrors}

	if got := root.Text(); got != string(file.Content) {
		return res, fmt.Errorf("parser: tree covers %d of %d bytes of %s", len(got), len(file.Content), file.Path)
	}
	if err := segment.Position(root, file.ID); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Parser) err(code diag.Code, sp source.Span, msg string, notes ...diag.Note) {
	if p.opts.Enough() {
		return
	}
	p.opts.CurrentErrors++
	if p.opts.Reporter != nil {
		d := diag.NewError(code, sp, msg)
		for _, n := range notes {
			d = d.WithNote(n.Span, n.Msg)
		}
		p.opts.Reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes, nil)
	}
}

// peekAdjacent reports whether the token after the current one has kind k
// and no leading trivia.
func (p *Parser) peekAdjacent(k token.Kind) bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	next := p.toks[p.pos+1]
	return next.Kind == k && len(next.Leading) == 0
}

func (p *Parser) step(tok token.Token) {
	p.led = false
	if top := p.top(); top.kind == frameSetOp && !tok.IsKeyword("all", "distinct") {
		p.pop(false)
	}

	switch tok.Kind {
	case token.EOF:
		p.finish(tok)
		return
	case token.Semicolon:
		p.popTo(0, true)
		p.lead(tok)
		p.emit(tok, "statement_terminator")
		p.between = false
	case token.TemplateTag, token.TemplateComment:
		p.template(tok)
		return
	case token.LParen, token.LBracket:
		p.ensureStatement(tok)
		p.lead(tok)
		typ, leaf := "bracketed", "start_bracket"
		if tok.Kind == token.LBracket {
			typ, leaf = "array_accessor", "start_square_bracket"
		}
		p.open(&frame{kind: frameBracket, node: segment.NewNode(typ), indentAfter: tok.Text})
		p.emit(tok, leaf)
	case token.RParen, token.RBracket:
		p.closeBracket(tok)
	case token.Keyword:
		p.keyword(tok)
	default:
		p.ensureStatement(tok)
		if tok.Kind == token.Ident && p.peekAdjacent(token.LParen) {
			p.function(tok)
			break
		}
		p.lead(tok)
		p.emit(tok, p.leafType(tok))
	}
	p.prev = tok
}

// finish closes every open construct and appends the end-of-file marker.
func (p *Parser) finish(tok token.Token) {
	p.popTo(0, true)
	for len(p.blocks) > 0 {
		p.err(diag.LexUnterminatedTemplate, source.At(tok.Span.File, tok.Span.Start), "template block is never closed")
		p.blocks = p.blocks[:len(p.blocks)-1]
		p.appendLeaf(segment.NewDedent())
	}
	p.lead(tok)
	p.appendLeaf(segment.NewEndOfFile())
}

func (p *Parser) keyword(tok token.Token) {
	top := p.top()
	if top.kind == frameClause && !top.indentSeen && tok.Norm == top.indentAfter {
		p.lead(tok)
		p.emit(tok, "keyword")
		return
	}
	if functionKeywords[tok.Norm] && p.peekAdjacent(token.LParen) {
		p.ensureStatement(tok)
		p.function(tok)
		return
	}

	switch tok.Norm {
	case "union", "intersect", "except":
		p.popToContainer()
		p.ensureStatement(tok)
		p.lead(tok)
		p.open(&frame{kind: frameSetOp, node: segment.NewNode("set_operator")})
		p.emit(tok, "keyword")
		p.between = false
		return
	case "case":
		p.ensureStatement(tok)
		p.lead(tok)
		p.open(&frame{kind: frameCase, node: segment.NewNode("case_expression"), indentAfter: "case"})
		p.emit(tok, "keyword")
		return
	case "when", "else":
		if idx := p.find(frameCase); idx >= 0 {
			p.popTo(idx, false)
			p.lead(tok)
			p.open(&frame{kind: frameWhen, node: segment.NewNode(tok.Norm + "_clause"), indentAfter: tok.Norm})
			p.emit(tok, "keyword")
			return
		}
	case "end":
		if idx := p.find(frameCase); idx >= 0 {
			p.popTo(idx, false)
			p.closeWith(tok, "keyword")
			return
		}
	case "on", "using":
		if idx := p.findJoin(); idx >= 0 {
			p.popTo(idx, false)
			p.lead(tok)
			p.open(&frame{kind: frameJoinOn, node: segment.NewNode("join_on_condition"), indentAfter: tok.Norm})
			p.emit(tok, "keyword")
			return
		}
	case "between":
		p.between = true
	case "and":
		typ := "binary_operator"
		if p.between {
			p.between, typ = false, "keyword"
		}
		p.ensureStatement(tok)
		p.lead(tok)
		p.emit(tok, typ)
		return
	case "or":
		p.ensureStatement(tok)
		p.lead(tok)
		p.emit(tok, "binary_operator")
		return
	}

	if spec, ok := clauses[tok.Norm]; ok {
		p.clause(tok, spec)
		return
	}
	p.ensureStatement(tok)
	p.lead(tok)
	p.emit(tok, "keyword")
}

// clause starts a new clause, ending any clause still open in the same
// statement or bracket.
func (p *Parser) clause(tok token.Token, spec clauseSpec) {
	p.popToContainer()
	p.ensureStatement(tok)
	p.lead(tok)
	p.open(&frame{
		kind:        frameClause,
		node:        segment.NewNode(spec.typ),
		indentAfter: spec.indentAfter,
		modifiers:   spec.modifiers,
	})
	p.emit(tok, "keyword")
	p.between = false
}

// function opens a function node around name; the bracket that follows
// closes it.
func (p *Parser) function(tok token.Token) {
	p.lead(tok)
	fn := segment.NewNode("function")
	p.open(&frame{kind: frameFunction, node: fn})
	fn.Children = append(fn.Children, segment.NewNode("function_name", p.leaf(tok, "function_name_identifier")))
}

func (p *Parser) closeBracket(tok token.Token) {
	leaf := "end_bracket"
	if tok.Kind == token.RBracket {
		leaf = "end_square_bracket"
	}
	idx := -1
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i].kind == frameBracket {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.err(diag.LexUnbalancedBracket, tok.Span, fmt.Sprintf("unmatched %q", tok.Text))
		p.ensureStatement(tok)
		p.lead(tok)
		p.emit(tok, leaf)
		return
	}
	p.popTo(idx, false)
	p.closeWith(tok, leaf)
	if p.top().kind == frameFunction {
		p.pop(false)
	}
}
