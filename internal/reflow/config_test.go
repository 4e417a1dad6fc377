package reflow

import (
	"errors"
	"testing"
)

func TestSingleIndent(t *testing.T) {
	tests := []struct {
		unit string
		size int
		want string
		err  error
	}{
		{"space", 4, "    ", nil},
		{"space", 2, "  ", nil},
		{"tab", 8, "\t", nil},
		{"tabs", 4, "", ErrIndentUnit},
	}
	for _, tt := range tests {
		got, err := SingleIndent(tt.unit, tt.size)
		if !errors.Is(err, tt.err) {
			t.Fatalf("%s: want error %v, got %v", tt.unit, tt.err, err)
		}
		if got != tt.want {
			t.Fatalf("%s: want %q, got %q", tt.unit, tt.want, got)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tab size", func(c *Config) { c.TabSpaceSize = 0 }},
		{"line length", func(c *Config) { c.MaxLineLength = -1 }},
		{"spacing", func(c *Config) { c.Types["comma"] = BlockConfig{SpacingBefore: "wide"} }},
		{"within modifier", func(c *Config) { c.Types["function"] = BlockConfig{SpacingWithin: "touch:sometimes"} }},
		{"line position", func(c *Config) { c.Types["comma"] = BlockConfig{LinePosition: "middle"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrBadConfig) {
				t.Fatalf("expected ErrBadConfig, got %v", err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Types["comma"] = BlockConfig{SpacingBefore: SpacingSingle}
	clone.SkipIndentationIn = append(clone.SkipIndentationIn, "script_content")
	if cfg.Types["comma"].SpacingBefore != SpacingTouch {
		t.Fatalf("clone shares the type table")
	}
	if len(cfg.SkipIndentationIn) != 0 {
		t.Fatalf("clone shares skip list")
	}
}

func TestBlockConfigMostSpecificWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Types["keyword"] = BlockConfig{SpacingAfter: SpacingTouch}
	cfg.Types["code"] = BlockConfig{SpacingAfter: SpacingAny, SpacingBefore: SpacingAny}
	bc := cfg.blockConfig([]string{"keyword", "code"}, nil)
	if bc.SpacingAfter != SpacingTouch {
		t.Fatalf("specific type should win, got %q", bc.SpacingAfter)
	}
	if bc.SpacingBefore != SpacingAny {
		t.Fatalf("general type should fill gaps, got %q", bc.SpacingBefore)
	}
}
