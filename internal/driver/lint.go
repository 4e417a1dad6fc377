package driver

import (
	"fmt"
	"slices"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/observ"
	"sqlreflow/internal/parser"
	"sqlreflow/internal/reflow"
	"sqlreflow/internal/segment"
	"sqlreflow/internal/source"
	"sqlreflow/internal/trace"
)

// Options configures linting of a single file.
type Options struct {
	Config         *reflow.Config
	MaxDiagnostics int
	// Rules restricts layout diagnostics to these codes; empty means all.
	Rules  []diag.Code
	Tracer trace.Tracer
	// Parent is the trace span the file span hangs off.
	Parent uint64
	// Timer, when set, accumulates per-phase durations.
	Timer *observ.Timer
}

func (o Options) tracer() trace.Tracer {
	if o.Tracer == nil {
		return trace.Nop
	}
	return o.Tracer
}

// defaultMaxDiagnostics applies when Options.MaxDiagnostics is not positive.
const defaultMaxDiagnostics = 1000

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return defaultMaxDiagnostics
	}
	return o.MaxDiagnostics
}

func (o Options) configOrDefault() *reflow.Config {
	if o.Config == nil {
		return reflow.DefaultConfig()
	}
	return o.Config
}

func (o Options) wants(code diag.Code) bool {
	return len(o.Rules) == 0 || slices.Contains(o.Rules, code)
}

// FileResult is the outcome of linting one file version.
type FileResult struct {
	Path   string
	FileID source.FileID
	Root   *segment.Segment
	Bag    *diag.Bag
	// Cached is set when the diagnostics came from the disk cache.
	Cached bool
}

type layoutPass struct {
	name string
	run  func(*reflow.Sequence) (*reflow.Sequence, error)
}

// layoutPasses run independently against the same tree; each starts from a
// fresh sequence because the mutating passes refuse pending fixes.
var layoutPasses = []layoutPass{
	{name: "respace", run: func(s *reflow.Sequence) (*reflow.Sequence, error) { return s.Respace(false, reflow.FilterAll) }},
	{name: "reindent", run: (*reflow.Sequence).Reindent},
	{name: "rebreak", run: (*reflow.Sequence).Rebreak},
}

// LintFile parses the file and reports its layout problems. Files that do
// not lex or parse cleanly only get those errors. A failure inside the
// layout engine becomes an InternalInvariant diagnostic.
func LintFile(fs *source.FileSet, id source.FileID, opts Options) (FileResult, error) {
	file := fs.Get(id)
	if file == nil {
		return FileResult{}, fmt.Errorf("driver: unknown file id %d", id)
	}
	cfg := opts.configOrDefault()
	span := trace.Begin(opts.tracer(), trace.ScopeFile, "file:"+fs.DisplayPath(id), opts.Parent)
	defer span.End("")

	bag := diag.NewBag(opts.maxDiagnostics())
	res := FileResult{Path: fs.DisplayPath(id), FileID: id, Bag: bag}

	stop := opts.Timer.Track("parse")
	parsed, err := parser.ParseFile(file, parser.Options{Reporter: &diag.BagReporter{Bag: bag}})
	stop()
	if err != nil {
		return res, err
	}
	res.Root = parsed.Root
	if bag.HasErrors() {
		return res, nil
	}

	lintRoot(&res, parsed.Root, cfg, opts, span.ID())
	return res, nil
}

// LintTree lints a tree produced outside this process, e.g. one decoded
// from a tree dump. The tree's text is registered as a virtual file named
// name and the tree is positioned against it.
func LintTree(fs *source.FileSet, name string, root *segment.Segment, opts Options) (FileResult, error) {
	id := fs.AddVirtual(name, []byte(root.Text()))
	if err := segment.Position(root, id); err != nil {
		return FileResult{}, fmt.Errorf("%s: %w", name, err)
	}
	span := trace.Begin(opts.tracer(), trace.ScopeFile, "tree:"+name, opts.Parent)
	defer span.End("")

	res := FileResult{Path: name, FileID: id, Root: root, Bag: diag.NewBag(opts.maxDiagnostics())}
	lintRoot(&res, root, opts.configOrDefault(), opts, span.ID())
	return res, nil
}

// lintRoot adds the layout diagnostics of root to res.Bag.
func lintRoot(res *FileResult, root *segment.Segment, cfg *reflow.Config, opts Options, parent uint64) {
	diags, err := layoutDiagnostics(root, cfg, opts, parent)
	if err != nil {
		res.Bag.Add(diag.NewError(diag.InternalInvariant, source.At(res.FileID, 0), err.Error()))
		return
	}
	for _, d := range diags {
		if opts.wants(d.Code) {
			res.Bag.Add(d)
		}
	}
	res.Bag.Sort()
}

// layoutDiagnostics runs every layout pass over root. A panic carrying an
// *reflow.InvariantError is returned as that error.
func layoutDiagnostics(root *segment.Segment, cfg *reflow.Config, opts Options, parent uint64) (out []diag.Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*reflow.InvariantError)
			if !ok {
				panic(r)
			}
			out, err = nil, ie
		}
	}()

	for _, pass := range layoutPasses {
		stop := opts.Timer.Track(pass.name)
		seq, err := reflow.FromRoot(root, cfg)
		if err != nil {
			stop()
			return nil, err
		}
		seq, err = pass.run(seq.WithTracer(opts.tracer(), parent))
		stop()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pass.name, err)
		}
		diags, err := diagnosticsFor(seq)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pass.name, err)
		}
		out = append(out, diags...)
		out = append(out, longLineDiagnostics(seq, cfg.MaxLineLength)...)
	}
	return dropShadowedSpacing(out), nil
}
