package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"sqlreflow/internal/segment"
	"sqlreflow/internal/source"
)

// CheckTreeInvariants runs a minimal set of invariants on a parsed file:
// 1) the tree renders exactly the file content
// 2) every leaf is positioned in sf and leaves are contiguous
// 3) structural nodes are never empty
// 4) indent and dedent markers balance out
func CheckTreeInvariants(root *segment.Segment, sf *source.File) error {
	if root == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}

	// 1) exact rendering
	if got := root.Text(); got != string(sf.Content) {
		return fmt.Errorf("tree renders %q, file holds %q", got, sf.Content)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	// 2) positions; 3) empty nodes; 4) balance
	var (
		off     uint32
		balance int
		walkErr error
	)
	root.Walk(func(s *segment.Segment) bool {
		if walkErr != nil {
			return false
		}
		if s.Kind == segment.KindNode {
			if len(s.Children) == 0 && s != root {
				walkErr = fmt.Errorf("empty %s node", s.Type)
			}
			return true
		}
		balance += s.IndentVal
		if s.Pos == nil {
			walkErr = fmt.Errorf("leaf %s has no position", s)
			return false
		}
		sp := s.Pos.Span
		if sp.File != sf.ID {
			walkErr = fmt.Errorf("leaf %s points to file %d, want %d", s, sp.File, sf.ID)
			return false
		}
		if sp.Start != off {
			walkErr = fmt.Errorf("leaf %s starts at %d, want %d", s, sp.Start, off)
			return false
		}
		if sp.End > lenContent {
			walkErr = fmt.Errorf("leaf %s ends beyond content: %d > %d", s, sp.End, lenContent)
			return false
		}
		off = sp.End
		return true
	})
	if walkErr != nil {
		return walkErr
	}
	if off != lenContent {
		return fmt.Errorf("leaves cover %d of %d bytes", off, lenContent)
	}
	if balance != 0 {
		return fmt.Errorf("indent balance is %d at end of file", balance)
	}
	return nil
}
