package reflow

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySequence   = errors.New("reflow: sequence has no elements")
	ErrAlternation     = errors.New("reflow: elements do not alternate between points and blocks")
	ErrBlockArity      = errors.New("reflow: a block wraps exactly one segment")
	ErrBoundaryRemoval = errors.New("reflow: cannot remove an element at either end of a sequence")
	ErrPointTarget     = errors.New("reflow: target is spacing inside a point")
	ErrSpacingInsert   = errors.New("reflow: spacing segments cannot be inserted as blocks")
	ErrPendingFixes    = errors.New("reflow: sequence already carries fixes")
	ErrTargetNotFound  = errors.New("reflow: target not found in sequence")
	ErrIndentUnit      = errors.New("reflow: unrecognised indent unit")
	ErrNoAnchor        = errors.New("reflow: no anchor for inserted line break")
	ErrBadConfig       = errors.New("reflow: invalid layout configuration")
)

// InvariantError reports a broken internal invariant. It is raised with
// panic, never returned: it means the engine itself is wrong.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("reflow: invariant violated in %s: %s", e.Op, e.Detail)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
