package parser

import (
	"strconv"
	"strings"

	"sqlreflow/internal/segment"
	"sqlreflow/internal/token"
)

var blockStartTags = map[string]bool{
	"for": true, "if": true, "macro": true, "call": true, "filter": true, "block": true,
}

type blockRef struct {
	id    string
	depth int // stack depth when the block opened
}

// template places a {% %} or {# #} tag. Block tags open and close an
// indent of their own so the body of a loop or conditional sits one level
// deeper than the tags around it. Constructs opened inside a branch end
// with it.
func (p *Parser) template(tok token.Token) {
	if tok.Kind == token.TemplateComment {
		p.lead(tok)
		p.appendLeaf(segment.NewPlaceholder(tok.Text, "comment", ""))
		return
	}

	name := templateTagName(tok.Text)
	switch {
	case blockStartTags[name] || (name == "set" && !strings.Contains(tok.Text, "=")):
		p.lead(tok)
		p.nextID++
		id := "b" + strconv.Itoa(p.nextID)
		p.blocks = append(p.blocks, blockRef{id: id, depth: len(p.stack)})
		p.appendLeaf(segment.NewPlaceholder(tok.Text, "block_start", id))
		p.appendLeaf(segment.NewIndent())

	case (name == "elif" || name == "else") && len(p.blocks) > 0:
		b := p.blocks[len(p.blocks)-1]
		p.popTo(b.depth-1, false)
		p.flushFor(tok)
		p.appendLeaf(segment.NewDedent())
		p.lead(tok)
		p.appendLeaf(segment.NewPlaceholder(tok.Text, "block_mid", b.id))
		p.appendLeaf(segment.NewIndent())

	case strings.HasPrefix(name, "end") && len(p.blocks) > 0:
		b := p.blocks[len(p.blocks)-1]
		p.blocks = p.blocks[:len(p.blocks)-1]
		p.popTo(b.depth-1, false)
		p.flushFor(tok)
		p.appendLeaf(segment.NewDedent())
		p.lead(tok)
		p.appendLeaf(segment.NewPlaceholder(tok.Text, "block_end", b.id))

	default:
		p.lead(tok)
		p.appendLeaf(segment.NewPlaceholder(tok.Text, "templated", ""))
	}
}
