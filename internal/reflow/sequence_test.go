package reflow

import (
	"errors"
	"testing"

	"sqlreflow/internal/segment"
)

func selectFromTree(t *testing.T) (*segment.Segment, *segment.Segment) {
	t.Helper()
	a := ident("a")
	root := file(t, kw("select"), ws(" "), a, ws(" "), kw("from"), ws(" "), ident("t"))
	return root, a
}

func TestFromRootAlternates(t *testing.T) {
	root, _ := selectFromTree(t)
	seq := fromRoot(t, root, nil)
	assertAlternates(t, seq)
	if got := len(seq.Elements()); got != 9 {
		t.Fatalf("expected 9 elements, got %d", got)
	}
	if _, ok := seq.Elements()[0].(*Block); !ok {
		t.Fatalf("expected sequence to start with a block")
	}
	if seq.Raw() != root.Text() {
		t.Fatalf("round trip mismatch: %q vs %q", seq.Raw(), root.Text())
	}
}

func TestFromRawSegmentsLeadingAndTrailingSpacing(t *testing.T) {
	root := file(t, ws("  "), kw("select"), ws(" "))
	seq, err := FromRawSegments(root.RawSegments()[:3], root, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("FromRawSegments: %v", err)
	}
	elems := seq.Elements()
	if len(elems) != 3 {
		t.Fatalf("expected point/block/point, got %d elements", len(elems))
	}
	if _, ok := elems[0].(*Point); !ok {
		t.Fatalf("expected leading point, got %s", elems[0])
	}
	if _, ok := elems[2].(*Point); !ok {
		t.Fatalf("expected trailing point, got %s", elems[2])
	}
}

func TestValidateElements(t *testing.T) {
	cfg := DefaultConfig()
	b1, _ := NewBlock([]*segment.Segment{kw("a")}, cfg, nil)
	b2, _ := NewBlock([]*segment.Segment{kw("b")}, cfg, nil)
	tests := []struct {
		name  string
		elems []Element
		want  error
	}{
		{"empty", nil, ErrEmptySequence},
		{"two blocks", []Element{b1, b2}, ErrAlternation},
		{"two points", []Element{NewPoint(), NewPoint()}, ErrAlternation},
		{"ok", []Element{b1, NewPoint(), b2}, nil},
		{"ok from point", []Element{NewPoint(), b1, NewPoint()}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateElements(tt.elems)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewBlockArity(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := NewBlock(nil, cfg, nil); !errors.Is(err, ErrBlockArity) {
		t.Fatalf("expected ErrBlockArity for no segments, got %v", err)
	}
	if _, err := NewBlock([]*segment.Segment{kw("a"), kw("b")}, cfg, nil); !errors.Is(err, ErrBlockArity) {
		t.Fatalf("expected ErrBlockArity for two segments, got %v", err)
	}
}

func TestFromAroundTarget(t *testing.T) {
	root, a := selectFromTree(t)
	tests := []struct {
		sides Sides
		want  string
	}{
		{SidesBoth, "select a from"},
		{SidesBefore, "select a"},
		{SidesAfter, "a from"},
	}
	for _, tt := range tests {
		seq, err := FromAroundTarget(a, root, DefaultConfig(), tt.sides)
		if err != nil {
			t.Fatalf("FromAroundTarget(%d): %v", tt.sides, err)
		}
		if seq.Raw() != tt.want {
			t.Fatalf("sides %d: want %q, got %q", tt.sides, tt.want, seq.Raw())
		}
		assertAlternates(t, seq)
	}
	if _, err := FromAroundTarget(kw("x"), root, DefaultConfig(), SidesBoth); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
}

func TestWithout(t *testing.T) {
	root, a := selectFromTree(t)
	seq := fromRoot(t, root, nil)
	out, err := seq.Without(a)
	if err != nil {
		t.Fatalf("Without: %v", err)
	}
	assertAlternates(t, out)
	if out.Raw() != "select  from t" {
		t.Fatalf("unexpected raw %q", out.Raw())
	}
	fixes := out.Fixes()
	if len(fixes) != 1 || fixes[0].Type != EditDelete || fixes[0].Anchor != a {
		t.Fatalf("unexpected fixes %v", fixes)
	}
	if seq.Raw() != root.Text() || len(seq.Fixes()) != 0 {
		t.Fatalf("original sequence was modified")
	}

	raws := root.RawSegments()
	if _, err := seq.Without(raws[0]); !errors.Is(err, ErrBoundaryRemoval) {
		t.Fatalf("expected ErrBoundaryRemoval, got %v", err)
	}
	if _, err := seq.Without(raws[1]); !errors.Is(err, ErrPointTarget) {
		t.Fatalf("expected ErrPointTarget, got %v", err)
	}
	if _, err := seq.Without(kw("nope")); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
}

func TestInsert(t *testing.T) {
	root, a := selectFromTree(t)
	seq := fromRoot(t, root, nil)

	after, err := seq.Insert(comma(), a, After)
	if err != nil {
		t.Fatalf("Insert after: %v", err)
	}
	assertAlternates(t, after)
	if after.Raw() != "select a, from t" {
		t.Fatalf("unexpected raw %q", after.Raw())
	}
	if f := after.Fixes(); len(f) != 1 || f[0].Type != EditCreateAfter || f[0].Anchor != a {
		t.Fatalf("unexpected fixes %v", f)
	}

	before, err := seq.Insert(kw("distinct"), a, Before)
	if err != nil {
		t.Fatalf("Insert before: %v", err)
	}
	if before.Raw() != "select distincta from t" {
		t.Fatalf("unexpected raw %q", before.Raw())
	}
	if f := before.Fixes(); len(f) != 1 || f[0].Type != EditCreateBefore {
		t.Fatalf("unexpected fixes %v", f)
	}

	if _, err := seq.Insert(ws(" "), a, After); !errors.Is(err, ErrSpacingInsert) {
		t.Fatalf("expected ErrSpacingInsert, got %v", err)
	}
}

func TestInsertThenRespaceAmendsCreation(t *testing.T) {
	root, a := selectFromTree(t)
	seq := fromRoot(t, root, nil)
	inserted := kw("distinct")
	out, err := seq.Insert(inserted, a, Before)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	out, err = out.Respace(false, FilterAll)
	if err != nil {
		t.Fatalf("Respace: %v", err)
	}
	if out.Raw() != "select distinct a from t" {
		t.Fatalf("unexpected raw %q", out.Raw())
	}
	fixes := out.Fixes()
	if len(fixes) != 1 {
		t.Fatalf("expected the creation fix to be amended, got %v", fixes)
	}
	if got := fixes[0].EditRaw(); got != "distinct " {
		t.Fatalf("unexpected edit %q", got)
	}
}

func TestReplace(t *testing.T) {
	root, a := selectFromTree(t)
	seq := fromRoot(t, root, nil)
	b := ident("b")
	out, err := seq.Replace(a, []*segment.Segment{b})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	assertAlternates(t, out)
	if out.Raw() != "select b from t" {
		t.Fatalf("unexpected raw %q", out.Raw())
	}
	if seq.depth.Get(b) == nil {
		t.Fatalf("replacement should inherit depth info")
	}
	if f := out.Fixes(); len(f) != 1 || f[0].Type != EditReplace || f[0].Anchor != a {
		t.Fatalf("unexpected fixes %v", f)
	}
}

func TestPendingFixesGuard(t *testing.T) {
	root, a := selectFromTree(t)
	seq := fromRoot(t, root, nil)
	out, err := seq.Without(a)
	if err != nil {
		t.Fatalf("Without: %v", err)
	}
	if _, err := out.Reindent(); !errors.Is(err, ErrPendingFixes) {
		t.Fatalf("Reindent: expected ErrPendingFixes, got %v", err)
	}
	if _, err := out.Rebreak(); !errors.Is(err, ErrPendingFixes) {
		t.Fatalf("Rebreak: expected ErrPendingFixes, got %v", err)
	}
}

func TestResultsHuntForward(t *testing.T) {
	root, a := selectFromTree(t)
	seq := fromRoot(t, root, nil)
	out, err := seq.Insert(comma(), a, After)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	results := out.Results()
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	// The comma has no position; the next positioned segment is the
	// whitespace after it.
	want := root.RawSegments()[3]
	if results[0].Anchor != want {
		t.Fatalf("expected anchor %s, got %s", want, results[0].Anchor)
	}
}

func TestPartitionFixes(t *testing.T) {
	root := file(t, kw("select"), ws("  "), ident("a"), ws("  "), kw("from"), ws("  "), ident("t"))
	seq := fromRoot(t, root, nil)
	out, err := seq.Respace(false, FilterAll)
	if err != nil {
		t.Fatalf("Respace: %v", err)
	}
	if len(out.Fixes()) != 3 {
		t.Fatalf("expected 3 fixes, got %v", out.Fixes())
	}
	target := root.RawSegments()[2]
	pre, mid, post := out.PartitionFixes(target)
	if len(pre) != 1 || len(mid) != 0 || len(post) != 2 {
		t.Fatalf("unexpected partition %d/%d/%d", len(pre), len(mid), len(post))
	}
}
