package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	QuotedIdent
	Keyword

	NumberLit
	StringLit

	Comma
	Dot
	Semicolon
	LParen
	RParen
	LBracket
	RBracket
	Star
	// ColonColon is the postgres-style cast operator.
	ColonColon
	// Operator covers arithmetic, comparison and concatenation operators.
	Operator
	// Param is a bind parameter such as ?, $1 or :name.
	Param

	// TemplateExpr is a {{ ... }} expression.
	TemplateExpr
	// TemplateTag is a {% ... %} statement.
	TemplateTag
	// TemplateComment is a {# ... #} comment.
	TemplateComment
)

var kindNames = [...]string{
	Invalid:         "Invalid",
	EOF:             "EOF",
	Ident:           "Ident",
	QuotedIdent:     "QuotedIdent",
	Keyword:         "Keyword",
	NumberLit:       "NumberLit",
	StringLit:       "StringLit",
	Comma:           "Comma",
	Dot:             "Dot",
	Semicolon:       "Semicolon",
	LParen:          "LParen",
	RParen:          "RParen",
	LBracket:        "LBracket",
	RBracket:        "RBracket",
	Star:            "Star",
	ColonColon:      "ColonColon",
	Operator:        "Operator",
	Param:           "Param",
	TemplateExpr:    "TemplateExpr",
	TemplateTag:     "TemplateTag",
	TemplateComment: "TemplateComment",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}
