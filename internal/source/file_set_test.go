package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("query.sql", []byte("select 1"), 0)
	id2 := fs.Add("query.sql", []byte("select\n    1"), 0)
	if id1 == id2 {
		t.Fatalf("expected a new id for the second version")
	}

	latest, ok := fs.GetLatest("query.sql")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "select 1" {
		t.Errorf("old version content changed: %q", got)
	}
}

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("q.sql", []byte("select\n  a,\n  b\n"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{6, LineCol{Line: 1, Col: 7}},
		{7, LineCol{Line: 2, Col: 1}},
		{9, LineCol{Line: 2, Col: 3}},
		{14, LineCol{Line: 3, Col: 3}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(At(id, tt.off))
		if start != tt.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("q.sql", []byte("select\n  a\nfrom t")))

	want := []string{"", "select", "  a", "from t", ""}
	for i, w := range want {
		if got := f.GetLine(uint32(i)); got != w {
			t.Errorf("GetLine(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.sql")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFselect\r\n  1\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "select\n  1\n" {
		t.Errorf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b, want BOM and CRLF set", f.Flags)
	}
	if got := string(f.Restore(f.Content)); got != "\xEF\xBB\xBFselect\r\n  1\r\n" {
		t.Errorf("Restore = %q", got)
	}
}

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		a, b Span
		want bool
	}{
		{Span{Start: 0, End: 4}, Span{Start: 2, End: 6}, true},
		{Span{Start: 0, End: 4}, Span{Start: 4, End: 6}, false},
		{Span{Start: 2, End: 2}, Span{Start: 0, End: 4}, true},
		{Span{Start: 4, End: 4}, Span{Start: 0, End: 4}, false},
		{Span{Start: 3, End: 3}, Span{Start: 3, End: 3}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
