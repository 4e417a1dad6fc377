package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce is the quiet period before a batch is reported; editors
	// often save in several steps. Zero means 200ms.
	Debounce time.Duration
	Exclude  []string
	// OnError receives watcher errors; nil drops them.
	OnError func(error)
}

// Watch calls onChange with the sorted SQL files changed under paths until
// ctx is done. Calls are serialized. Directories created later are watched
// too.
func Watch(ctx context.Context, paths []string, opts WatchOptions, onChange func([]string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	roots, err := absPaths(paths)
	if err != nil {
		return err
	}
	dirs, err := watchDirs(roots, opts.Exclude)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !excludedByAny(roots, ev.Name, opts.Exclude) {
					_ = w.Add(ev.Name)
					continue
				}
			}
			if !watched(roots, ev.Name, opts.Exclude) {
				continue
			}
			pending[ev.Name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				if _, err := os.Stat(p); err == nil {
					batch = append(batch, p)
				}
			}
			clear(pending)
			slices.Sort(batch)
			if len(batch) > 0 {
				onChange(batch)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if opts.OnError != nil {
				opts.OnError(err)
			}
		}
	}
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// watchDirs lists the directories to subscribe to: every non-excluded
// directory under a directory root, and the parent of a file root.
func watchDirs(roots []string, exclude []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Dir(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if isExcluded(root, path, exclude) {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(dirs)
	return dirs, nil
}

// watched reports whether an event path belongs to the run: a file root
// itself, or a SQL file under a directory root that no pattern excludes.
func watched(roots []string, path string, exclude []string) bool {
	for _, root := range roots {
		if path == root {
			return true
		}
	}
	if !isSQLPath(path) {
		return false
	}
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if !isExcluded(root, path, exclude) {
			return true
		}
	}
	return false
}

func excludedByAny(roots []string, path string, exclude []string) bool {
	for _, root := range roots {
		if isExcluded(root, path, exclude) {
			return true
		}
	}
	return false
}
