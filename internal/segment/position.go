package segment

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"sqlreflow/internal/source"
)

// Position assigns a source position to every leaf under root, assuming
// the leaves render file's text in order starting at offset 0. Existing
// positions are overwritten.
func Position(root *Segment, file source.FileID) error {
	var (
		off  int
		line = 1
		col  = 1
		err  error
	)
	root.Walk(func(s *Segment) bool {
		if err != nil {
			return false
		}
		if !s.IsRaw() {
			return true
		}
		var start, end, l, c uint32
		if start, err = safecast.Conv[uint32](off); err != nil {
			return false
		}
		if end, err = safecast.Conv[uint32](off + len(s.Raw)); err != nil {
			return false
		}
		if l, err = safecast.Conv[uint32](line); err != nil {
			return false
		}
		if c, err = safecast.Conv[uint32](col); err != nil {
			return false
		}
		s.Pos = &Pos{Span: source.Span{File: file, Start: start, End: end}, Line: l, Col: c}
		off += len(s.Raw)
		if n := strings.Count(s.Raw, "\n"); n > 0 {
			line += n
			col = len(s.Raw) - strings.LastIndexByte(s.Raw, '\n')
		} else {
			col += len(s.Raw)
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("segment: position overflow: %w", err)
	}
	return nil
}
