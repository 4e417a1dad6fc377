package diag

import (
	"testing"

	"sqlreflow/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	file := fs.Add("/workspace/queries/sample.sql", []byte("select\n  a\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     LayoutIndent,
			Message:  "Expected indent of 4 space(s).\nFound 2.",
			Primary:  source.Span{File: file, Start: 7, End: 9},
			Notes: []Note{
				{Span: source.Span{File: file, Start: 0, End: 6}, Msg: "opened here"},
			},
		},
		{
			Severity: SevError,
			Code:     LexUnknownChar,
			Message:  "unknown character",
			Primary:  source.Span{File: file, Start: 0, End: 1},
		},
	}

	expected := "error LEX1001 queries/sample.sql:1:1 unknown character\n" +
		"note LT02 queries/sample.sql:1:1 opened here\n" +
		"warning LT02 queries/sample.sql:2:1 Expected indent of 4 space(s). Found 2."

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("stdin", []byte("select  a\n"))
	diags := []Diagnostic{
		NewWarning(LayoutSpacing, source.Span{File: file, Start: 6, End: 8}, "Expected only single space."),
	}
	want := "stdin:1:7: LT01 Expected only single space."
	if got := FormatShortDiagnostics(diags, fs, false); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCodeIDs(t *testing.T) {
	cases := []struct {
		code Code
		id   string
	}{
		{LayoutSpacing, "LT01"},
		{LayoutLineLength, "LT05"},
		{LayoutInfo, "LYT2000"},
		{LexUnknownChar, "LEX1001"},
		{CfgInvalid, "CFG3001"},
		{IOLoadFileError, "IO4001"},
		{InternalInvariant, "INT9001"},
		{Code(12345), "E0000"},
	}
	for _, tc := range cases {
		if got := tc.code.ID(); got != tc.id {
			t.Fatalf("%d: got %s, want %s", tc.code, got, tc.id)
		}
		if tc.id == "E0000" {
			continue
		}
		if c, ok := ParseCode(tc.id); !ok || c != tc.code {
			t.Fatalf("ParseCode(%s) = %v, %v", tc.id, c, ok)
		}
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	span := func(start uint32) source.Span { return source.Span{Start: start, End: start + 1} }
	b.Add(NewWarning(LayoutIndent, span(5), "b"))
	b.Add(NewWarning(LayoutSpacing, span(1), "a"))
	b.Add(NewWarning(LayoutSpacing, span(1), "a"))
	b.Add(NewError(LexUnknownChar, span(1), "c"))
	b.Sort()
	b.Dedup()
	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(items))
	}
	if items[0].Code != LexUnknownChar || items[1].Code != LayoutSpacing || items[2].Code != LayoutIndent {
		t.Fatalf("unexpected order: %v %v %v", items[0].Code, items[1].Code, items[2].Code)
	}
	if !b.HasErrors() {
		t.Fatalf("expected errors")
	}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(1)
	if !b.Add(Diagnostic{}) {
		t.Fatalf("first add should succeed")
	}
	if b.Add(Diagnostic{}) {
		t.Fatalf("second add should be dropped")
	}
	other := NewBag(2)
	other.Add(Diagnostic{})
	other.Add(Diagnostic{})
	b.Merge(other)
	if b.Len() != 3 || b.Cap() != 3 {
		t.Fatalf("merge: len %d cap %d", b.Len(), b.Cap())
	}
}

func TestReporterFunc(t *testing.T) {
	var got []Diagnostic
	r := ReporterFunc(func(d Diagnostic) { got = append(got, d) })
	r.Report(LayoutSpacing, SevWarning, source.Span{Start: 3, End: 4}, "x", nil,
		[]Fix{{Title: "fix", Edits: []TextEdit{{Span: source.Span{Start: 3, End: 4}}}}})
	if len(got) != 1 || got[0].Code != LayoutSpacing || len(got[0].Fixes) != 1 {
		t.Fatalf("unexpected %+v", got)
	}

	bag := NewBag(10)
	BagReporter{Bag: bag}.Report(LexUnbalancedBracket, SevError, source.Span{Start: 1, End: 2}, "y", nil, nil)
	BagReporter{}.Report(LexUnbalancedBracket, SevError, source.Span{}, "dropped", nil, nil)
	if bag.Len() != 1 || !bag.HasErrors() {
		t.Fatalf("bag reporter: len %d", bag.Len())
	}
}
