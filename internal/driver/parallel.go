package driver

import (
	"context"
	"encoding/binary"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/source"
	"sqlreflow/internal/trace"
)

// ListSQLFiles expands paths into a sorted, de-duplicated file list. Files
// are taken as given; directories are walked for *.sql files. exclude holds
// doublestar patterns matched against walked paths relative to their root;
// a matching directory is skipped whole.
func ListSQLFiles(paths []string, exclude ...string) ([]string, error) {
	for _, pat := range exclude {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pat)
		}
	}
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if isExcluded(root, path, exclude) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && isSQLPath(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// isExcluded matches path, taken relative to root, against exclude.
func isExcluded(root, path string, exclude []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pat := range exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func isSQLPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

// RunOptions configures a multi-file run.
type RunOptions struct {
	Options
	// Jobs limits parallelism; zero means GOMAXPROCS.
	Jobs  int
	Cache *DiskCache
	// Progress, when set, receives per-file events.
	Progress ProgressSink
}

func (o RunOptions) limit(n int) int {
	jobs := o.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, n))
}

// loadAll registers every file before the parallel stage. Load failures
// are returned per index and do not stop the run; the path is registered
// as an empty virtual file so the failure can still be reported against it.
func loadAll(fileSet *source.FileSet, files []string) ([]source.FileID, []error) {
	ids := make([]source.FileID, len(files))
	errs := make([]error, len(files))
	for i, path := range files {
		ids[i], errs[i] = fileSet.Load(path)
		if errs[i] != nil {
			ids[i] = fileSet.AddVirtual(path, nil)
		}
	}
	return ids, errs
}

func loadFailure(id source.FileID, err error, limit int) *diag.Bag {
	bag := diag.NewBag(limit)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.At(id, 0), fmt.Sprintf("failed to load file: %v", err)))
	return bag
}

// LintPaths lints files in parallel. Results keep the order of files.
// Each file owns its tree and fix list, so workers share nothing but the
// FileSet and the cache.
func LintPaths(ctx context.Context, fileSet *source.FileSet, files []string, opts RunOptions) ([]FileResult, error) {
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		return results, nil
	}
	span := trace.Begin(opts.tracer(), trace.ScopeDriver, "lint", opts.Parent)
	defer span.WithExtra("files", fmt.Sprint(len(files))).End("")
	opts.Parent = span.ID()

	var cfgKey Digest
	if opts.Cache != nil {
		key, err := configDigest(opts.configOrDefault())
		if err != nil {
			return nil, err
		}
		cfgKey = key
	}

	ids, loadErrs := loadAll(fileSet, files)
	queueAll(opts.Progress, StageLint, files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit(len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			emit(opts.Progress, Event{File: path, Stage: StageLint, Status: StatusWorking})
			if loadErrs[i] != nil {
				results[i] = FileResult{Path: path, FileID: ids[i], Bag: loadFailure(ids[i], loadErrs[i], opts.maxDiagnostics())}
				finished(opts.Progress, path, StageLint, true, start)
				return nil
			}
			defer func() { finished(opts.Progress, path, StageLint, results[i].Bag == nil || results[i].Bag.HasErrors(), start) }()

			var key Digest
			if opts.Cache != nil {
				key = combineDigest(cfgKey, fileSet.Get(ids[i]).Content, rulesKey(opts.Rules))
				var payload DiskPayload
				if hit, err := opts.Cache.Get(key, &payload); err == nil && hit {
					results[i] = FileResult{
						Path:   fileSet.DisplayPath(ids[i]),
						FileID: ids[i],
						Bag:    diskPayloadToBag(&payload, ids[i], opts.maxDiagnostics()),
						Cached: true,
					}
					return nil
				}
			}

			res, err := LintFile(fileSet, ids[i], opts.Options)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			if opts.Cache != nil && !res.Bag.HasErrors() {
				if err := opts.Cache.Put(key, bagToDiskPayload(res.Path, res.Bag)); err != nil {
					trace.Point(opts.tracer(), trace.ScopeFile, opts.Parent, "cache.put", err.Error())
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// FixPaths runs FixFile over files in parallel, optionally writing the
// results back. Results keep the order of files.
func FixPaths(ctx context.Context, fileSet *source.FileSet, files []string, opts RunOptions, write bool) ([]FixResult, error) {
	results := make([]FixResult, len(files))
	if len(files) == 0 {
		return results, nil
	}
	span := trace.Begin(opts.tracer(), trace.ScopeDriver, "fix", opts.Parent)
	defer span.WithExtra("files", fmt.Sprint(len(files))).End("")
	opts.Parent = span.ID()

	ids, loadErrs := loadAll(fileSet, files)
	queueAll(opts.Progress, StageFix, files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit(len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			emit(opts.Progress, Event{File: path, Stage: StageFix, Status: StatusWorking})
			if loadErrs[i] != nil {
				results[i] = FixResult{Path: path, Original: ids[i], Final: ids[i], Remaining: loadFailure(ids[i], loadErrs[i], opts.maxDiagnostics())}
				finished(opts.Progress, path, StageFix, true, start)
				return nil
			}
			res, err := FixFile(fileSet, ids[i], opts.Options)
			if err != nil {
				finished(opts.Progress, path, StageFix, true, start)
				return fmt.Errorf("%s: %w", path, err)
			}
			stage := StageFix
			if write && res.Changed {
				stage = StageWrite
				emit(opts.Progress, Event{File: path, Stage: StageWrite, Status: StatusWorking})
			}
			defer func() { finished(opts.Progress, path, stage, res.Remaining.HasErrors(), start) }()
			if write {
				if _, err := Write(fileSet, res); err != nil {
					res.Remaining.Add(diag.NewError(diag.IOWriteFileError, source.At(res.Final, 0), err.Error()))
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// rulesKey encodes the rule selection for the cache key.
func rulesKey(rules []diag.Code) []byte {
	sorted := append([]diag.Code(nil), rules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := make([]byte, 0, 2*len(sorted))
	for _, c := range sorted {
		out = binary.BigEndian.AppendUint16(out, uint16(c))
	}
	return out
}
