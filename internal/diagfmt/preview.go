package diagfmt

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/source"
)

type fixPreview struct {
	before []string
	after  []string
}

// buildFixPreview renders the whole lines touched by a fix, before and after
// applying all of its edits.
func buildFixPreview(fs *source.FileSet, fix diag.Fix) (fixPreview, error) {
	if fs == nil {
		return fixPreview{}, fmt.Errorf("nil FileSet")
	}
	if len(fix.Edits) == 0 {
		return fixPreview{}, fmt.Errorf("fix %q has no edits", fix.Title)
	}
	edits := slices.Clone(fix.Edits)
	slices.SortStableFunc(edits, func(a, b diag.TextEdit) int { return int(a.Span.Start) - int(b.Span.Start) })

	id := edits[0].Span.File
	file := fs.Get(id)
	if file == nil {
		return fixPreview{}, fmt.Errorf("file %d not found in FileSet", id)
	}
	covered := edits[0].Span
	for _, e := range edits[1:] {
		if e.Span.File != id {
			return fixPreview{}, fmt.Errorf("fix %q spans several files", fix.Title)
		}
		covered = covered.Cover(e.Span)
	}

	startPos, endPos := fs.Resolve(covered)
	blockStart := lineStartOffset(file, startPos.Line)
	blockEnd := max(lineEndOffsetInclusive(file, max(endPos.Line, startPos.Line)), blockStart)
	lenFileContent, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fixPreview{}, fmt.Errorf("len file content overflow: %w", err)
	}
	blockEnd = min(blockEnd, lenFileContent)
	original := file.Content[blockStart:blockEnd]

	var after strings.Builder
	cursor := blockStart
	for _, e := range edits {
		if e.Span.Start < cursor || e.Span.End > blockEnd {
			return fixPreview{}, fmt.Errorf("edit span %s out of range for preview block", e.Span)
		}
		after.Write(file.Content[cursor:e.Span.Start])
		after.WriteString(e.NewText)
		cursor = e.Span.End
	}
	after.Write(file.Content[cursor:blockEnd])

	return fixPreview{
		before: splitPreviewLines(string(original)),
		after:  splitPreviewLines(after.String()),
	}, nil
}

// splitPreviewLines drops the final newline so a block ending in '\n' does
// not yield a trailing empty line.
func splitPreviewLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func lineStartOffset(f *source.File, line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return uint32(len(f.Content)) //nolint:gosec // checked in FileSet.Add
}

func lineEndOffsetInclusive(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return uint32(len(f.Content)) //nolint:gosec // checked in FileSet.Add
}
