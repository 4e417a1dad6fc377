package lexer

import (
	"testing"

	"sqlreflow/internal/source"
)

func createFile(content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sql", []byte(content))
	return fs.Get(id)
}

func TestSequentialReading(t *testing.T) {
	cursor := NewCursor(createFile("a\nb"))
	for _, want := range []byte("a\nb") {
		if cursor.EOF() {
			t.Fatalf("unexpected EOF before %q", want)
		}
		if got := cursor.Bump(); got != want {
			t.Fatalf("bump = %q, want %q", got, want)
		}
	}
	if !cursor.EOF() || cursor.Peek() != 0 || cursor.Bump() != 0 {
		t.Fatalf("expected EOF behaviour at the end")
	}
}

func TestMarkResetAndSpan(t *testing.T) {
	cursor := NewCursor(createFile("select"))
	m := cursor.Mark()
	cursor.Skip(3)
	sp := cursor.SpanFrom(m)
	if sp.Start != 0 || sp.End != 3 {
		t.Fatalf("span = %v", sp)
	}
	cursor.Reset(m)
	if cursor.Off != 0 {
		t.Fatalf("reset failed")
	}
	if !cursor.HasPrefix("sel") || cursor.HasPrefix("selected") {
		t.Fatalf("HasPrefix mismatch")
	}
	cursor.Skip(100)
	if !cursor.EOF() || cursor.Off != 6 {
		t.Fatalf("skip must stop at the limit, off = %d", cursor.Off)
	}
}

func TestPeekHelpers(t *testing.T) {
	cursor := NewCursor(createFile("ab"))
	if b0, b1, ok := cursor.Peek2(); !ok || b0 != 'a' || b1 != 'b' {
		t.Fatalf("Peek2 = %q %q %v", b0, b1, ok)
	}
	if _, _, _, ok := cursor.Peek3(); ok {
		t.Fatalf("Peek3 past the end must fail")
	}
	if cursor.Eat('b') || !cursor.Eat('a') {
		t.Fatalf("Eat mismatch")
	}
}
