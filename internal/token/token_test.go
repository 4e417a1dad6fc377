package token_test

import (
	"testing"

	"sqlreflow/internal/source"
	"sqlreflow/internal/token"
)

func TestLookupKeyword(t *testing.T) {
	for _, kw := range []string{"select", "from", "where", "join", "union", "with"} {
		if !token.LookupKeyword(kw) {
			t.Fatalf("%q should be a keyword", kw)
		}
	}
	for _, word := range []string{"SELECT", "foo", "count", ""} {
		if token.LookupKeyword(word) {
			t.Fatalf("%q must NOT be a keyword", word)
		}
	}
}

func TestTokenPredicates(t *testing.T) {
	kw := token.Token{Kind: token.Keyword, Text: "SELECT", Norm: "select", Span: source.Span{End: 6}}
	if !kw.IsKeyword() || !kw.IsKeyword("from", "select") || kw.IsKeyword("from") {
		t.Fatalf("keyword predicate mismatch")
	}
	if !(token.Token{Kind: token.QuotedIdent}).IsIdent() {
		t.Fatalf("quoted identifiers are identifiers")
	}
	if !(token.Token{Kind: token.TemplateTag}).IsTemplate() || (token.Token{Kind: token.StringLit}).IsTemplate() {
		t.Fatalf("template predicate mismatch")
	}
	if !(token.Token{Kind: token.NumberLit}).IsLiteral() || (token.Token{Kind: token.Ident}).IsLiteral() {
		t.Fatalf("literal predicate mismatch")
	}
}

func TestKindString(t *testing.T) {
	if token.ColonColon.String() != "ColonColon" || token.TemplateComment.String() != "TemplateComment" {
		t.Fatalf("unexpected names")
	}
	if token.Kind(200).String() != "Kind(?)" {
		t.Fatalf("out of range kind")
	}
}
