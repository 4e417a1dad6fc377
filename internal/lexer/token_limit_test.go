package lexer

import (
	"strings"
	"testing"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/source"
	"sqlreflow/internal/token"
)

func TestTokenTooLongTriggersDiagnosticAndStops(t *testing.T) {
	content := strings.Repeat("a", maxTokenLength+1) + " b"
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("long.sql", []byte(content))

	bag := diag.NewBag(4)
	lx := New(fs.Get(fileID), Options{Reporter: diag.BagReporter{Bag: bag}})

	tok := lx.Next()
	if tok.Kind != token.Invalid {
		t.Fatalf("expected invalid token, got %v", tok.Kind)
	}
	if !bag.HasErrors() || bag.Items()[0].Code != diag.LexTokenTooLong {
		t.Fatalf("expected LexTokenTooLong, got %v", bag.Items())
	}
	if next := lx.Next(); next.Kind != token.EOF {
		t.Fatalf("expected EOF after too-long token, got %v", next.Kind)
	}
}

func TestTokenAtLimitIsAccepted(t *testing.T) {
	content := strings.Repeat("b", maxTokenLength)
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("limit.sql", []byte(content))

	bag := diag.NewBag(4)
	lx := New(fs.Get(fileID), Options{Reporter: diag.BagReporter{Bag: bag}})
	if tok := lx.Next(); tok.Kind != token.Ident {
		t.Fatalf("expected ident, got %v", tok.Kind)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics")
	}
}
