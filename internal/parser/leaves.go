package parser

import (
	"strings"

	"sqlreflow/internal/segment"
	"sqlreflow/internal/token"
)

type clauseSpec struct {
	typ         string
	indentAfter string
	modifiers   []string
}

// clauses maps the keyword starting a clause to its node. Join clauses may
// start with a qualifier; they indent after JOIN itself.
var clauses = map[string]clauseSpec{
	"select":    {typ: "select_clause", indentAfter: "select", modifiers: []string{"distinct", "all"}},
	"from":      {typ: "from_clause", indentAfter: "from"},
	"where":     {typ: "where_clause", indentAfter: "where"},
	"group":     {typ: "groupby_clause", indentAfter: "by"},
	"order":     {typ: "orderby_clause", indentAfter: "by"},
	"partition": {typ: "partitionby_clause", indentAfter: "by"},
	"having":    {typ: "having_clause", indentAfter: "having"},
	"qualify":   {typ: "qualify_clause", indentAfter: "qualify"},
	"window":    {typ: "window_clause", indentAfter: "window"},
	"limit":     {typ: "limit_clause", indentAfter: "limit"},
	"offset":    {typ: "offset_clause", indentAfter: "offset"},
	"fetch":     {typ: "fetch_clause", indentAfter: "fetch"},
	"set":       {typ: "set_clause", indentAfter: "set"},
	"values":    {typ: "values_clause", indentAfter: "values"},
	"returning": {typ: "returning_clause", indentAfter: "returning"},
	"join":      {typ: "join_clause", indentAfter: "join"},
	"inner":     {typ: "join_clause", indentAfter: "join"},
	"left":      {typ: "join_clause", indentAfter: "join"},
	"right":     {typ: "join_clause", indentAfter: "join"},
	"full":      {typ: "join_clause", indentAfter: "join"},
	"cross":     {typ: "join_clause", indentAfter: "join"},
	"natural":   {typ: "join_clause", indentAfter: "join"},
}

// functionKeywords are keywords that name a function when a bracket follows
// without a space.
var functionKeywords = map[string]bool{
	"left": true, "right": true, "cast": true,
}

var comparisonOps = map[string]bool{
	"=": true, "==": true, "<>": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

func (p *Parser) leaf(tok token.Token, typ string) *segment.Segment {
	return segment.NewCode(typ, tok.Text)
}

// leafType classifies a non-keyword token for layout purposes.
func (p *Parser) leafType(tok token.Token) string {
	switch tok.Kind {
	case token.Ident:
		return "identifier"
	case token.QuotedIdent:
		return "quoted_identifier"
	case token.NumberLit:
		return "numeric_literal"
	case token.StringLit:
		return "quoted_literal"
	case token.Comma:
		return "comma"
	case token.Dot:
		return "dot"
	case token.ColonColon:
		return "casting_operator"
	case token.Param:
		return "parameter"
	case token.TemplateExpr:
		return "templated_expression"
	case token.Star:
		if p.prevIsOperand() {
			return "binary_operator"
		}
		return "star"
	case token.Operator:
		switch {
		case comparisonOps[tok.Text]:
			return "comparison_operator"
		case (tok.Text == "-" || tok.Text == "+") && !p.prevIsOperand():
			return "sign_indicator"
		}
		return "binary_operator"
	}
	return "unlexable"
}

// prevIsOperand reports whether the previous token ends an expression, so
// that a following operator is binary.
func (p *Parser) prevIsOperand() bool {
	switch p.prev.Kind {
	case token.Ident, token.QuotedIdent, token.NumberLit, token.StringLit,
		token.RParen, token.RBracket, token.Param, token.TemplateExpr:
		return true
	case token.Keyword:
		return p.prev.IsKeyword("null", "true", "false", "end")
	}
	return false
}

func triviaLeaf(tr token.Trivia) *segment.Segment {
	switch tr.Kind {
	case token.TriviaNewline:
		return segment.NewNewline()
	case token.TriviaLineComment:
		return segment.NewComment("inline_comment", tr.Text)
	case token.TriviaBlockComment:
		return segment.NewComment("block_comment", tr.Text)
	}
	return segment.NewWhitespace(tr.Text)
}

// templateTagName returns the first word inside a {% ... %} tag.
func templateTagName(text string) string {
	inner := strings.TrimPrefix(text, "{%")
	inner = strings.TrimSuffix(inner, "%}")
	inner = strings.Trim(inner, "-+ \t\n")
	name, _, _ := strings.Cut(inner, " ")
	if i := strings.IndexAny(name, "\t\n("); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
