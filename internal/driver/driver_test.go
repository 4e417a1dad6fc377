package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/observ"
	"sqlreflow/internal/parser"
	"sqlreflow/internal/reflow"
	"sqlreflow/internal/segment"
	"sqlreflow/internal/source"
)

func lintString(t *testing.T, src string, opts Options) FileResult {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sql", []byte(src))
	res, err := LintFile(fs, id, opts)
	if err != nil {
		t.Fatalf("LintFile(%q): %v", src, err)
	}
	return res
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestLintFileSpacing(t *testing.T) {
	res := lintString(t, "select  a ,b\n", Options{})
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(res.Bag))
	}
	if !slices.Contains(codes(res.Bag), diag.LayoutSpacing) {
		t.Fatalf("expected %s, got %v", diag.LayoutSpacing.ID(), codes(res.Bag))
	}
	for _, d := range res.Bag.Items() {
		if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) == 0 {
			t.Fatalf("diagnostic %q carries no edits", d.Message)
		}
	}
}

func TestLintFileClean(t *testing.T) {
	res := lintString(t, "select a, b\nfrom t\n", Options{})
	if res.Bag.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", codes(res.Bag))
	}
	if res.Root == nil {
		t.Fatalf("expected parsed root")
	}
}

func TestLintFileParseErrorSkipsLayout(t *testing.T) {
	res := lintString(t, "select  (a\n", Options{})
	if !res.Bag.HasErrors() {
		t.Fatalf("expected errors")
	}
	for _, c := range codes(res.Bag) {
		switch c {
		case diag.LayoutSpacing, diag.LayoutIndent, diag.LayoutOperators, diag.LayoutCommas, diag.LayoutLineLength:
			t.Fatalf("layout diagnostic %s reported on a file that did not parse", c.ID())
		}
	}
	if !slices.Contains(codes(res.Bag), diag.LexUnbalancedBracket) {
		t.Fatalf("expected %s, got %v", diag.LexUnbalancedBracket.ID(), codes(res.Bag))
	}
}

func TestLintFileRulesFilter(t *testing.T) {
	res := lintString(t, "select  a ,b\n", Options{Rules: []diag.Code{diag.LayoutIndent}})
	if res.Bag.Len() != 0 {
		t.Fatalf("expected spacing diagnostics filtered out, got %v", codes(res.Bag))
	}
}

func TestFixFileConverges(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sql", []byte("select  a ,b\n"))
	res, err := FixFile(fs, id, Options{})
	if err != nil {
		t.Fatalf("FixFile: %v", err)
	}
	if !res.Changed || res.Applied == 0 {
		t.Fatalf("expected fixes to apply, got %+v", res)
	}
	if got := string(fs.Get(res.Final).Content); got != "select a, b\n" {
		t.Fatalf("final content = %q", got)
	}
	if res.Remaining.Len() != 0 {
		t.Fatalf("expected nothing left, got %v", codes(res.Remaining))
	}
	if got := string(fs.Get(res.Original).Content); got != "select  a ,b\n" {
		t.Fatalf("original version modified: %q", got)
	}
}

func TestFixFileLeavesCleanFile(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sql", []byte("select a\n"))
	res, err := FixFile(fs, id, Options{})
	if err != nil {
		t.Fatalf("FixFile: %v", err)
	}
	if res.Changed || res.Final != id || res.Loops != 0 {
		t.Fatalf("clean file changed: %+v", res)
	}
	written, err := Write(fs, res)
	if err != nil || written {
		t.Fatalf("Write on unchanged file = %v, %v", written, err)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	res := lintString(t, "select  a ,b\n", Options{})
	key := combineDigest(Digest{}, []byte("select  a ,b\n"), nil)

	var payload DiskPayload
	if hit, err := cache.Get(key, &payload); err != nil || hit {
		t.Fatalf("empty cache Get = %v, %v", hit, err)
	}
	if err := cache.Put(key, bagToDiskPayload(res.Path, res.Bag)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	hit, err := cache.Get(key, &payload)
	if err != nil || !hit {
		t.Fatalf("Get after Put = %v, %v", hit, err)
	}
	bag := diskPayloadToBag(&payload, res.FileID, 100)
	want, got := res.Bag.Items(), bag.Items()
	if len(want) != len(got) {
		t.Fatalf("cached %d diagnostics, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i].Code != got[i].Code || want[i].Primary != got[i].Primary || want[i].Message != got[i].Message {
			t.Fatalf("diagnostic %d: got %+v, want %+v", i, got[i], want[i])
		}
		if len(want[i].Fixes[0].Edits) != len(got[i].Fixes[0].Edits) {
			t.Fatalf("diagnostic %d: edit count mismatch", i)
		}
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if hit, _ := cache.Get(key, &payload); hit {
		t.Fatalf("expected miss after DropAll")
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestListSQLFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"b.sql":      "select 1\n",
		"a.SQL":      "select 1\n",
		"notes.txt":  "x",
		"sub/c.sql":  "select 1\n",
		"sub/d.yaml": "x",
	})
	got, err := ListSQLFiles([]string{dir, filepath.Join(dir, "b.sql"), filepath.Join(dir, "notes.txt")})
	if err != nil {
		t.Fatalf("ListSQLFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.SQL"),
		filepath.Join(dir, "b.sql"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "sub", "c.sql"),
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := ListSQLFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for missing path")
	}

	got, err = ListSQLFiles([]string{dir}, "sub/**", "*.SQL")
	if err != nil {
		t.Fatalf("ListSQLFiles exclude: %v", err)
	}
	if want := []string{filepath.Join(dir, "b.sql")}; !slices.Equal(got, want) {
		t.Fatalf("exclude: got %v, want %v", got, want)
	}
	if _, err := ListSQLFiles([]string{dir}, "[a"); err == nil {
		t.Fatalf("expected error for bad pattern")
	}
}

func TestLintPathsUsesCache(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"one.sql": "select  a ,b\n",
		"two.sql": "select a\n",
	})
	files, err := ListSQLFiles([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	cache, err := OpenDiskCacheAt(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := RunOptions{Jobs: 2, Cache: cache}

	first, err := LintPaths(context.Background(), source.NewFileSet(), files, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := LintPaths(context.Background(), source.NewFileSet(), files, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for i := range files {
		if first[i].Cached {
			t.Fatalf("%s: first run served from cache", files[i])
		}
		if !second[i].Cached {
			t.Fatalf("%s: second run missed the cache", files[i])
		}
		if first[i].Bag.Len() != second[i].Bag.Len() {
			t.Fatalf("%s: %d diagnostics, cached %d", files[i], first[i].Bag.Len(), second[i].Bag.Len())
		}
	}
	if first[0].Bag.Len() == 0 || first[1].Bag.Len() != 0 {
		t.Fatalf("unexpected counts: %d, %d", first[0].Bag.Len(), first[1].Bag.Len())
	}
}

func TestLintPathsLoadFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.sql")
	fs := source.NewFileSet()
	results, err := LintPaths(context.Background(), fs, []string{missing}, RunOptions{})
	if err != nil {
		t.Fatalf("LintPaths: %v", err)
	}
	items := results[0].Bag.Items()
	if len(items) != 1 || items[0].Code != diag.IOLoadFileError {
		t.Fatalf("expected one %s, got %v", diag.IOLoadFileError.ID(), codes(results[0].Bag))
	}
	if items[0].Primary.File != results[0].FileID {
		t.Fatalf("load failure not attached to its file")
	}
}

func TestFixPathsWrites(t *testing.T) {
	dir := writeTree(t, map[string]string{"q.sql": "select  a ,b\n"})
	path := filepath.Join(dir, "q.sql")
	results, err := FixPaths(context.Background(), source.NewFileSet(), []string{path}, RunOptions{}, true)
	if err != nil {
		t.Fatalf("FixPaths: %v", err)
	}
	if !results[0].Changed {
		t.Fatalf("expected change")
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "select a, b\n" {
		t.Fatalf("written content = %q", got)
	}
}

func TestRulesKeyOrderIndependent(t *testing.T) {
	a := rulesKey([]diag.Code{diag.LayoutIndent, diag.LayoutSpacing})
	b := rulesKey([]diag.Code{diag.LayoutSpacing, diag.LayoutIndent})
	if string(a) != string(b) {
		t.Fatalf("rule order changes the key")
	}
	if string(a) == string(rulesKey(nil)) {
		t.Fatalf("rule selection ignored")
	}
}

func TestLintTreeFromDump(t *testing.T) {
	src := source.NewFileSet()
	id := src.AddVirtual("orig.sql", []byte("select  a ,b\n"))
	parsed, err := parser.ParseFile(src.Get(id), parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var buf bytes.Buffer
	if err := segment.Encode(&buf, parsed.Root); err != nil {
		t.Fatalf("encode: %v", err)
	}
	root, err := segment.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	fs := source.NewFileSet()
	res, err := LintTree(fs, "dump.msgpack", root, Options{})
	if err != nil {
		t.Fatalf("LintTree: %v", err)
	}
	if got := string(fs.Get(res.FileID).Content); got != "select  a ,b\n" {
		t.Fatalf("registered text = %q", got)
	}
	want := lintString(t, "select  a ,b\n", Options{})
	if !slices.Equal(codes(res.Bag), codes(want.Bag)) {
		t.Fatalf("tree lint %v, source lint %v", codes(res.Bag), codes(want.Bag))
	}
}

func TestLintFileTimings(t *testing.T) {
	timer := observ.NewTimer()
	lintString(t, "select a\n", Options{Timer: timer})
	lintString(t, "select b\n", Options{Timer: timer})
	var names []string
	for _, p := range timer.Report().Phases {
		names = append(names, p.Name)
		if p.Count != 2 {
			t.Fatalf("%s ran %d times", p.Name, p.Count)
		}
	}
	if want := []string{"parse", "respace", "reindent", "rebreak"}; !slices.Equal(names, want) {
		t.Fatalf("phases %v, want %v", names, want)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) last(file string) Event {
	var out Event
	for _, ev := range s.events {
		if ev.File == file {
			out = ev
		}
	}
	return out
}

func TestProgressEvents(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"ok.sql":  "select  a\n",
		"bad.sql": "select (a\n",
	})
	ok, bad := filepath.Join(dir, "ok.sql"), filepath.Join(dir, "bad.sql")
	sink := &recordingSink{}
	if _, err := LintPaths(context.Background(), source.NewFileSet(), []string{ok, bad}, RunOptions{Progress: sink}); err != nil {
		t.Fatalf("LintPaths: %v", err)
	}
	if len(sink.events) != 6 {
		t.Fatalf("expected queued, working and final events per file, got %+v", sink.events)
	}
	if ev := sink.last(ok); ev.Status != StatusDone || ev.Stage != StageLint {
		t.Fatalf("ok.sql ended with %+v", ev)
	}
	if ev := sink.last(bad); ev.Status != StatusError {
		t.Fatalf("bad.sql ended with %+v", ev)
	}

	sink = &recordingSink{}
	if _, err := FixPaths(context.Background(), source.NewFileSet(), []string{ok}, RunOptions{Progress: sink}, true); err != nil {
		t.Fatalf("FixPaths: %v", err)
	}
	if ev := sink.last(ok); ev.Status != StatusDone || ev.Stage != StageWrite {
		t.Fatalf("fix ended with %+v", ev)
	}
}

func TestWatchDirsAndFilter(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.sql":            "select 1\n",
		"sub/b.sql":        "select 1\n",
		"vendor/x/c.sql":   "select 1\n",
		"other/single.sql": "select 1\n",
	})
	roots := []string{dir, filepath.Join(dir, "other", "single.sql")}
	dirs, err := watchDirs(roots, []string{"vendor/**"})
	if err != nil {
		t.Fatalf("watchDirs: %v", err)
	}
	for _, d := range dirs {
		if strings.Contains(d, "vendor") {
			t.Fatalf("excluded dir watched: %v", dirs)
		}
	}
	if !slices.Contains(dirs, filepath.Join(dir, "sub")) || !slices.Contains(dirs, filepath.Join(dir, "other")) {
		t.Fatalf("missing dirs: %v", dirs)
	}

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "sub", "b.sql"), true},
		{filepath.Join(dir, "notes.txt"), false},
		{filepath.Join(dir, "vendor", "x", "c.sql"), false},
		{filepath.Join(dir, "other", "single.sql"), true},
		{filepath.Join(filepath.Dir(dir), "elsewhere.sql"), false},
	}
	for _, tt := range tests {
		if got := watched(roots, tt.path, []string{"vendor/**"}); got != tt.want {
			t.Errorf("watched(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestConfigDigestStable(t *testing.T) {
	first, err := configDigest(reflow.DefaultConfig())
	if err != nil {
		t.Fatalf("configDigest: %v", err)
	}
	for range 20 {
		got, err := configDigest(reflow.DefaultConfig())
		if err != nil {
			t.Fatalf("configDigest: %v", err)
		}
		if got != first {
			t.Fatalf("digest of an equal config changed")
		}
	}

	cfg := reflow.DefaultConfig()
	bc := cfg.Types["comma"]
	bc.LinePosition = reflow.PositionLeading
	cfg.Types["comma"] = bc
	other, err := configDigest(cfg)
	if err != nil {
		t.Fatalf("configDigest: %v", err)
	}
	if other == first {
		t.Fatalf("different configs share a digest")
	}
}

func TestUnbreakableLongLineIsReported(t *testing.T) {
	long := strings.Repeat("a", 30)
	cfg := reflow.DefaultConfig()
	cfg.MaxLineLength = 20

	res := lintString(t, "select\n    "+long+"\n", Options{Config: cfg})
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.LayoutLineLength {
		t.Fatalf("expected one LT05, got %v", codes(res.Bag))
	}
	if len(items[0].Fixes) != 0 {
		t.Fatalf("unbreakable line should carry no fix: %+v", items[0].Fixes)
	}

	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sql", []byte("select "+long+"\n"))
	fixed, err := FixFile(fs, id, Options{Config: cfg})
	if err != nil {
		t.Fatalf("FixFile: %v", err)
	}
	if got := string(fs.Get(fixed.Final).Content); got != "select\n    "+long+"\n" {
		t.Fatalf("final content = %q", got)
	}
	if got := codes(fixed.Remaining); !slices.Equal(got, []diag.Code{diag.LayoutLineLength}) {
		t.Fatalf("remaining = %v", got)
	}
}

func TestIndentedFirstLineFixedInOneLoop(t *testing.T) {
	res := lintString(t, "  select a\n", Options{})
	if got := codes(res.Bag); !slices.Equal(got, []diag.Code{diag.LayoutIndent}) {
		t.Fatalf("codes = %v", got)
	}

	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sql", []byte("  select a\n"))
	fixed, err := FixFile(fs, id, Options{})
	if err != nil {
		t.Fatalf("FixFile: %v", err)
	}
	if got := string(fs.Get(fixed.Final).Content); got != "select a\n" {
		t.Fatalf("final content = %q", got)
	}
	if fixed.Loops != 1 || fixed.Skipped != 0 {
		t.Fatalf("loops %d skipped %d", fixed.Loops, fixed.Skipped)
	}
}
