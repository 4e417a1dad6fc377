package segment

// Kind is the coarse category of a segment.
type Kind uint8

const (
	// KindNode is a non-leaf structural segment.
	KindNode Kind = iota
	KindCode
	KindWhitespace
	KindNewline
	KindIndent
	KindDedent
	KindComment
	KindPlaceholder
	KindTemplateLoop
	KindEndOfFile
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindCode:
		return "code"
	case KindWhitespace:
		return "whitespace"
	case KindNewline:
		return "newline"
	case KindIndent:
		return "indent"
	case KindDedent:
		return "dedent"
	case KindComment:
		return "comment"
	case KindPlaceholder:
		return "placeholder"
	case KindTemplateLoop:
		return "template_loop"
	case KindEndOfFile:
		return "end_of_file"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindNode; k <= KindEndOfFile; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindNode, false
}
