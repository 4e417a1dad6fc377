package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/lexer"
	"sqlreflow/internal/source"
)

func spacingBag(id source.FileID) *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.LayoutSpacing,
		Message:  "Expected only single space.",
		Primary:  source.Span{File: id, Start: 6, End: 8},
		Fixes: []diag.Fix{{
			Title: "Expected only single space.",
			Edits: []diag.TextEdit{{Span: source.Span{File: id, Start: 6, End: 8}, NewText: " ", OldText: "  "}},
		}},
	})
	return bag
}

func TestPrettyPlain(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("q.sql", []byte("select  a\n"))
	var buf bytes.Buffer
	if err := Pretty(&buf, spacingBag(id), fs, PrettyOpts{ShowFixes: true}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	want := strings.Join([]string{
		"q.sql:1:7: warning LT01: Expected only single space.",
		"1 | select  a",
		"  |       ^^",
		"  fix: Expected only single space.",
		"  - select  a",
		"  + select a",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyContextAndTabs(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("q.sql", []byte("select\n\ta\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{Severity: diag.SevError, Code: diag.LayoutIndent, Message: "bad", Primary: source.Span{File: id, Start: 8, End: 9}})
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Context: 3}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) != 5 {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if lines[1] != "1 | select" || lines[2] != "2 | \ta" || lines[3] != "  | \t^" {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("q.sql", []byte("select  a\n"))
	var buf bytes.Buffer
	err := JSON(&buf, spacingBag(id).Items(), fs, JSONOpts{IncludePositions: true, IncludeFixes: true, IncludePreviews: true})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "LT01" || d.Severity != "warning" || d.Location.StartCol != 7 || d.Location.File != "q.sql" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].AfterLines[0] != "select a" {
		t.Fatalf("unexpected fixes %+v", d.Fixes)
	}
}

func TestJSONMax(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("q.sql", []byte("select  a\n"))
	items := append(spacingBag(id).Items(), spacingBag(id).Items()...)
	out := BuildDiagnosticsOutput(items, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Diagnostics[0].Fixes != nil {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestUnifiedDiff(t *testing.T) {
	var buf bytes.Buffer
	if err := UnifiedDiff(&buf, "q.sql", []byte("select  a\n"), []byte("select a\n"), false); err != nil {
		t.Fatalf("UnifiedDiff: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "-select  a") || !strings.Contains(got, "+select a") {
		t.Fatalf("unexpected diff:\n%s", got)
	}
	buf.Reset()
	if err := UnifiedDiff(&buf, "q.sql", []byte("x\n"), []byte("x\n"), false); err != nil || buf.Len() != 0 {
		t.Fatalf("equal content produced %q, %v", buf.String(), err)
	}
}

func TestFormatTokens(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("q.sql", []byte("select a"))
	toks := lexer.New(fs.Get(id), lexer.Options{}).All()

	var pretty bytes.Buffer
	if err := FormatTokensPretty(&pretty, toks, fs); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if !strings.Contains(pretty.String(), `"select" at 1:1-1:7`) || !strings.Contains(pretty.String(), "(leading: space)") {
		t.Fatalf("unexpected pretty tokens:\n%s", pretty.String())
	}

	var js bytes.Buffer
	if err := FormatTokensJSON(&js, toks); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 3 || out[1].Text != "a" || out[2].Kind != "EOF" {
		t.Fatalf("unexpected tokens %+v", out)
	}
}
