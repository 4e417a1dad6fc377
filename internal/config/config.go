// Package config loads .sqlreflow.toml files into a reflow.Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"sqlreflow/internal/reflow"
)

// FileName is the configuration file looked up from the working directory
// upwards.
const FileName = ".sqlreflow.toml"

var ErrUnknownKey = errors.New("config: unknown key")

type fileConfig struct {
	Indentation indentationSection `toml:"indentation"`
	Layout      layoutSection      `toml:"layout"`
}

type indentationSection struct {
	IndentUnit        string   `toml:"indent_unit"`
	TabSpaceSize      int      `toml:"tab_space_size"`
	SkipIndentationIn []string `toml:"skip_indentation_in"`
}

type layoutSection struct {
	MaxLineLength int                    `toml:"max_line_length"`
	Type          map[string]typeSection `toml:"type"`
}

type typeSection struct {
	SpacingBefore string `toml:"spacing_before"`
	SpacingAfter  string `toml:"spacing_after"`
	SpacingWithin string `toml:"spacing_within"`
	LinePosition  string `toml:"line_position"`
}

// Find walks up from startDir to locate FileName.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Resolve returns the configuration governing startDir: the nearest
// FileName merged over the defaults, or the defaults alone. path is empty
// when no file was found.
func Resolve(startDir string) (cfg *reflow.Config, path string, err error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return reflow.DefaultConfig(), "", nil
	}
	cfg, err = LoadFile(path, reflow.DefaultConfig())
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFile decodes path and merges it over base. base is not modified.
func LoadFile(path string, base *reflow.Config) (*reflow.Config, error) {
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg, err := merge(fc, meta, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text and merges it over base.
func Parse(data string, base *reflow.Config) (*reflow.Config, error) {
	var fc fileConfig
	meta, err := toml.Decode(data, &fc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return merge(fc, meta, base)
}

func merge(fc fileConfig, meta toml.MetaData, base *reflow.Config) (*reflow.Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}

	cfg := base.Clone()
	if meta.IsDefined("indentation", "indent_unit") {
		cfg.IndentUnit = strings.TrimSpace(fc.Indentation.IndentUnit)
	}
	if meta.IsDefined("indentation", "tab_space_size") {
		cfg.TabSpaceSize = fc.Indentation.TabSpaceSize
	}
	if meta.IsDefined("indentation", "skip_indentation_in") {
		cfg.SkipIndentationIn = fc.Indentation.SkipIndentationIn
	}
	if meta.IsDefined("layout", "max_line_length") {
		cfg.MaxLineLength = fc.Layout.MaxLineLength
	}
	for name, sec := range fc.Layout.Type {
		bc := cfg.Types[name]
		if meta.IsDefined("layout", "type", name, "spacing_before") {
			bc.SpacingBefore = sec.SpacingBefore
		}
		if meta.IsDefined("layout", "type", name, "spacing_after") {
			bc.SpacingAfter = sec.SpacingAfter
		}
		if meta.IsDefined("layout", "type", name, "spacing_within") {
			bc.SpacingWithin = sec.SpacingWithin
		}
		if meta.IsDefined("layout", "type", name, "line_position") {
			bc.LinePosition = sec.LinePosition
		}
		cfg.Types[name] = bc
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
