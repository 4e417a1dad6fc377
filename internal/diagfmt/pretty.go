package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, del, add *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		del:    color.New(color.FgRed),
		add:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.caret, p.del, p.add} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics in a human-readable form. Items are printed in
// bag order, so callers sort the bag first. Each diagnostic prints as
//
//	<path>:<line>:<col>: <severity> <CODE>: <message>
//
// followed by the source line with the span underlined, and optionally the
// lines its fix would produce.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, &d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	start, end := fs.Resolve(d.Primary)
	path := displayPath(fs, d.Primary.File, opts.PathMode)
	if _, err := fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		path, start.Line, start.Col,
		p.severity(d.Severity).Sprint(d.Severity.Label()),
		p.code.Sprint(d.Code.ID()),
		d.Message,
	); err != nil {
		return err
	}

	file := fs.Get(d.Primary.File)
	if file == nil || len(file.Content) == 0 {
		return nil
	}
	gutterWidth := len(fmt.Sprint(start.Line))
	first := start.Line - min(uint32(opts.Context), start.Line-1)
	for ln := first; ln <= start.Line; ln++ {
		if _, err := fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", gutterWidth, ln), file.GetLine(ln)); err != nil {
			return err
		}
	}

	line := file.GetLine(start.Line)
	from := min(int(start.Col-1), len(line))
	to := len(line)
	if end.Line == start.Line {
		to = min(max(int(end.Col-1), from), len(line))
	}
	marker := strings.Repeat("^", max(1, runewidth.StringWidth(line[from:to])))
	if _, err := fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", gutterWidth, ""), pad(line[:from]), p.caret.Sprint(marker)); err != nil {
		return err
	}

	for _, n := range d.Notes {
		at, _ := fs.Resolve(n.Span)
		if _, err := fmt.Fprintf(w, "  %s %d:%d: %s\n", p.info.Sprint("note:"), at.Line, at.Col, n.Msg); err != nil {
			return err
		}
	}

	if !opts.ShowFixes {
		return nil
	}
	for _, fix := range d.Fixes {
		preview, err := buildFixPreview(fs, fix)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "  fix: %s\n", fix.Title); err != nil {
			return err
		}
		for _, l := range preview.before {
			if _, err := fmt.Fprintln(w, p.del.Sprint("  - "+l)); err != nil {
				return err
			}
		}
		for _, l := range preview.after {
			if _, err := fmt.Fprintln(w, p.add.Sprint("  + "+l)); err != nil {
				return err
			}
		}
	}
	return nil
}

// pad returns blank space as wide as prefix on a terminal, keeping tabs so
// the marker lines up under tab-indented code.
func pad(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}
