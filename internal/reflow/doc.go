// Package reflow decides spacing, line breaks and indentation for a parsed
// token tree and expresses every change as a Fix against the original tree.
//
// A Sequence is an alternating run of Points (whitespace, newlines and
// indent markers) and Blocks (exactly one content token each). Sequences are
// immutable: every mutator returns a new Sequence carrying the accumulated
// fixes. Typical use:
//
//	seq, err := reflow.FromRoot(root, cfg)
//	if err != nil { ... }
//	seq, err = seq.Reindent()
//	results := seq.Results()
//
// Reindent is the indent-deduction pass. It crawls the sequence tracking an
// indent balance and the set of "untaken" indents (indents opened without a
// line break), groups the crawl into lines, reconciles template-tag and
// comment-only lines, then evaluates each line in order, correcting its
// leading whitespace and inserting breaks where an indent or dedent was not
// taken. When Config.MaxLineLength is set, over-long lines get extra breaks
// at their shallowest permitted points and the evaluation is repeated.
//
// A Sequence, its DepthMap and its fixes belong to one file. Separate files
// may be processed concurrently.
package reflow
