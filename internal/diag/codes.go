package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexUnterminatedTemplate     Code = 1004
	LexUnbalancedBracket        Code = 1005
	LexTokenTooLong             Code = 1006

	// Layout. The numeric value past 2000 is the rule number.
	LayoutInfo       Code = 2000
	LayoutSpacing    Code = 2001
	LayoutIndent     Code = 2002
	LayoutOperators  Code = 2003
	LayoutCommas     Code = 2004
	LayoutLineLength Code = 2005

	// Configuration
	CfgInfo       Code = 3000
	CfgInvalid    Code = 3001
	CfgUnknownKey Code = 3002
	CfgBadValue   Code = 3003

	// IO
	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002

	// Internal
	InternalInvariant   Code = 9001
	InternalUnconverged Code = 9002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LexInfo:                     "Lexical information",
		LexUnknownChar:              "Unknown character",
		LexUnterminatedString:       "Unterminated string literal",
		LexUnterminatedBlockComment: "Unterminated block comment",
		LexUnterminatedTemplate:     "Unterminated template tag",
		LexUnbalancedBracket:        "Unbalanced bracket",
		LexTokenTooLong:             "Token too long",
		LayoutInfo:                  "Layout information",
		LayoutSpacing:               "Inappropriate spacing",
		LayoutIndent:                "Incorrect indentation",
		LayoutOperators:             "Operators should follow a standard for being before/after newlines",
		LayoutCommas:                "Commas should follow a standard for being before/after newlines",
		LayoutLineLength:            "Line is too long",
		CfgInfo:                     "Configuration information",
		CfgInvalid:                  "Invalid configuration file",
		CfgUnknownKey:               "Unknown configuration key",
		CfgBadValue:                 "Invalid configuration value",
		IOLoadFileError:             "Failed to load file",
		IOWriteFileError:            "Failed to write file",
		InternalInvariant:           "Internal invariant violated",
		InternalUnconverged:         "Fixes did not converge",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic > 2000 && ic < 2100:
		return fmt.Sprintf("LT%02d", ic-2000)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LYT%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("INT%04d", ic)
	}
	return "E0000"
}

// ParseCode resolves a code from its ID, e.g. "LT02".
func ParseCode(id string) (Code, bool) {
	for c := range codeDescription {
		if c.ID() == id {
			return c, true
		}
	}
	return UnknownCode, false
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
