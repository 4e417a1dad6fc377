package reflow

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Spacing values understood in BlockConfig.
const (
	SpacingSingle = "single"
	SpacingTouch  = "touch"
	SpacingAny    = "any"
)

// Line positions understood in BlockConfig.
const (
	PositionLeading  = "leading"
	PositionTrailing = "trailing"
)

// BlockConfig is the layout policy for one segment type. Empty fields mean
// "not configured" and leave the inherited value alone.
type BlockConfig struct {
	SpacingBefore string
	SpacingAfter  string
	// SpacingWithin applies between any two blocks whose deepest common
	// ancestor has this type. A ":inline" suffix also strips line breaks.
	SpacingWithin string
	// LinePosition is "leading" or "trailing", optionally with ":strict".
	LinePosition string
}

func (b *BlockConfig) incorporate(other BlockConfig) {
	if other.SpacingBefore != "" {
		b.SpacingBefore = other.SpacingBefore
	}
	if other.SpacingAfter != "" {
		b.SpacingAfter = other.SpacingAfter
	}
	if other.SpacingWithin != "" {
		b.SpacingWithin = other.SpacingWithin
	}
	if other.LinePosition != "" {
		b.LinePosition = other.LinePosition
	}
}

// Config is the layout configuration handed to the engine.
type Config struct {
	IndentUnit   string // "space" or "tab"
	TabSpaceSize int
	// MaxLineLength enables the line-length pass when positive.
	MaxLineLength int
	// SkipIndentationIn lists segment types whose lines are never reindented.
	SkipIndentationIn []string
	Types             map[string]BlockConfig
}

// DefaultConfig returns the stock layout rules.
func DefaultConfig() *Config {
	return &Config{
		IndentUnit:    "space",
		TabSpaceSize:  4,
		MaxLineLength: 80,
		Types: map[string]BlockConfig{
			"comma":                {SpacingBefore: SpacingTouch, LinePosition: PositionTrailing},
			"binary_operator":      {LinePosition: PositionLeading},
			"statement_terminator": {SpacingBefore: SpacingTouch},
			"end_of_file":          {SpacingBefore: SpacingTouch},
			"start_bracket":        {SpacingAfter: SpacingTouch},
			"end_bracket":          {SpacingBefore: SpacingTouch},
			"start_square_bracket": {SpacingBefore: SpacingTouch, SpacingAfter: SpacingTouch},
			"end_square_bracket":   {SpacingBefore: SpacingTouch},
			"sign_indicator":       {SpacingAfter: SpacingTouch},
			"templated_expression": {SpacingBefore: SpacingAny, SpacingAfter: SpacingAny},
			"casting_operator":     {SpacingBefore: SpacingTouch, SpacingAfter: SpacingTouch},
			"dot":                  {SpacingBefore: SpacingTouch, SpacingAfter: SpacingTouch},
			"comment":              {SpacingBefore: SpacingAny, SpacingAfter: SpacingAny},
			"placeholder":          {SpacingBefore: SpacingAny, SpacingAfter: SpacingAny},
			"function":             {SpacingWithin: SpacingTouch + ":inline"},
		},
	}
}

// Clone returns a deep copy so callers can override entries safely.
func (c *Config) Clone() *Config {
	out := *c
	out.SkipIndentationIn = slices.Clone(c.SkipIndentationIn)
	out.Types = make(map[string]BlockConfig, len(c.Types))
	for k, v := range c.Types {
		out.Types[k] = v
	}
	return &out
}

// SingleIndent returns the whitespace for one indent level.
func (c *Config) SingleIndent() (string, error) {
	return SingleIndent(c.IndentUnit, c.TabSpaceSize)
}

// SingleIndent builds one indent unit from its configured parts.
func SingleIndent(unit string, tabSpaceSize int) (string, error) {
	switch unit {
	case "tab":
		return "\t", nil
	case "space":
		return strings.Repeat(" ", tabSpaceSize), nil
	default:
		return "", fmt.Errorf("%w: expected indent_unit of 'tab' or 'space', instead got %q", ErrIndentUnit, unit)
	}
}

// Validate checks every configured value.
func (c *Config) Validate() error {
	if _, err := c.SingleIndent(); err != nil {
		return err
	}
	if c.TabSpaceSize < 1 {
		return fmt.Errorf("%w: tab_space_size must be positive, got %d", ErrBadConfig, c.TabSpaceSize)
	}
	if c.MaxLineLength < 0 {
		return fmt.Errorf("%w: max_line_length must not be negative", ErrBadConfig)
	}
	for _, name := range slices.Sorted(maps.Keys(c.Types)) {
		bc := c.Types[name]
		if !validSpacing(bc.SpacingBefore) {
			return fmt.Errorf("%w: %s.spacing_before = %q", ErrBadConfig, name, bc.SpacingBefore)
		}
		if !validSpacing(bc.SpacingAfter) {
			return fmt.Errorf("%w: %s.spacing_after = %q", ErrBadConfig, name, bc.SpacingAfter)
		}
		within, mod, _ := strings.Cut(bc.SpacingWithin, ":")
		if !validSpacing(within) || (mod != "" && mod != "inline") {
			return fmt.Errorf("%w: %s.spacing_within = %q", ErrBadConfig, name, bc.SpacingWithin)
		}
		pos, mod, _ := strings.Cut(bc.LinePosition, ":")
		if (pos != "" && pos != PositionLeading && pos != PositionTrailing) || (mod != "" && mod != "strict") {
			return fmt.Errorf("%w: %s.line_position = %q", ErrBadConfig, name, bc.LinePosition)
		}
	}
	return nil
}

func validSpacing(v string) bool {
	switch v {
	case "", SpacingSingle, SpacingTouch, SpacingAny:
		return true
	}
	return false
}

// configured returns the class types that have an entry, least specific
// first so the most specific entry is incorporated last.
func (c *Config) configured(classTypes []string) []string {
	var out []string
	for i := len(classTypes) - 1; i >= 0; i-- {
		if _, ok := c.Types[classTypes[i]]; ok {
			out = append(out, classTypes[i])
		}
	}
	return out
}

// blockConfig resolves the policy for a block with the given class types.
// With depth info, a block at the start (end) of its ancestors also claims
// their spacing_before (spacing_after).
func (c *Config) blockConfig(classTypes []string, depth *DepthInfo) BlockConfig {
	bc := BlockConfig{SpacingBefore: SpacingSingle, SpacingAfter: SpacingSingle}
	if depth != nil {
		parentStart, parentEnd := true, true
		for i := len(depth.Stack) - 1; i >= 0; i-- {
			pos := depth.StackPositions[depth.Stack[i]]
			if pos.Type != PosSolo && pos.Type != PosStart {
				parentStart = false
			}
			if pos.Type != PosSolo && pos.Type != PosEnd {
				parentEnd = false
			}
			if !parentStart && !parentEnd {
				break
			}
			for _, t := range c.configured(depth.StackClassTypes[i]) {
				tc := c.Types[t]
				if parentStart && tc.SpacingBefore != "" {
					bc.SpacingBefore = tc.SpacingBefore
				}
				if parentEnd && tc.SpacingAfter != "" {
					bc.SpacingAfter = tc.SpacingAfter
				}
			}
		}
	}
	for _, t := range c.configured(classTypes) {
		bc.incorporate(c.Types[t])
	}
	return bc
}
