package segment

// Constructors for leaves. None of them assign a position: segments built
// here are either synthesized by the reflow engine or positioned later by
// the lexer.

func NewCode(typ, raw string) *Segment {
	return &Segment{Kind: KindCode, Type: typ, Raw: raw}
}

func NewWhitespace(raw string) *Segment {
	return &Segment{Kind: KindWhitespace, Type: "whitespace", Raw: raw}
}

func NewNewline() *Segment {
	return &Segment{Kind: KindNewline, Type: "newline", Raw: "\n"}
}

func NewIndent() *Segment {
	return &Segment{Kind: KindIndent, Type: "indent", IndentVal: 1}
}

func NewDedent() *Segment {
	return &Segment{Kind: KindDedent, Type: "dedent", IndentVal: -1}
}

func NewComment(typ, raw string) *Segment {
	if typ == "" {
		typ = "comment"
	}
	return &Segment{Kind: KindComment, Type: typ, Raw: raw}
}

// NewPlaceholder builds a template marker. blockID may be empty for
// standalone expressions.
func NewPlaceholder(raw, blockType, blockID string) *Segment {
	return &Segment{Kind: KindPlaceholder, Type: "placeholder", Raw: raw, BlockType: blockType, BlockID: blockID}
}

// NewTemplateLoop builds the zero-width marker closing a template loop.
func NewTemplateLoop(blockID string) *Segment {
	return &Segment{Kind: KindTemplateLoop, Type: "template_loop", BlockID: blockID}
}

func NewEndOfFile() *Segment {
	return &Segment{Kind: KindEndOfFile, Type: "end_of_file"}
}

// NewNode builds a structural segment.
func NewNode(typ string, children ...*Segment) *Segment {
	return &Segment{Kind: KindNode, Type: typ, Children: children}
}

// Clone returns a positionless copy of a leaf, used when an existing token
// is moved to a new location.
func (s *Segment) Clone() *Segment {
	c := *s
	c.Pos = nil
	c.Children = nil
	return &c
}

// WithRaw returns a positionless copy of a leaf carrying new text.
func (s *Segment) WithRaw(raw string) *Segment {
	c := s.Clone()
	c.Raw = raw
	return c
}
