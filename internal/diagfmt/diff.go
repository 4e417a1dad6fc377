package diagfmt

import (
	"io"
	"strings"

	diff "github.com/shogoki/gotextdiff"
)

// UnifiedDiff writes a unified diff of before and after under path. Equal
// contents write nothing.
func UnifiedDiff(w io.Writer, path string, before, after []byte, colored bool) error {
	if string(before) == string(after) {
		return nil
	}
	out := diff.Diff("a/"+path, before, "b/"+path, after)
	if !colored {
		_, err := w.Write(out)
		return err
	}

	p := newPalette(true)
	for line := range strings.SplitSeq(strings.TrimSuffix(string(out), "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "diff "):
			line = p.code.Sprint(line)
		case strings.HasPrefix(line, "@@"):
			line = p.gutter.Sprint(line)
		case strings.HasPrefix(line, "-"):
			line = p.del.Sprint(line)
		case strings.HasPrefix(line, "+"):
			line = p.add.Sprint(line)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
