// Package segment models the typed token tree consumed by the reflow engine.
//
// The tree is produced by an upstream parser (internal/parser is the
// reference front end, or a tree decoded with Decode) and is only read by
// the reflow core. Leaves ("raw" segments) carry text and, when they come from
// the original source, a position. Segments synthesized while computing
// fixes have no position.
//
// Invariants:
//   - Leaves never have children; nodes never carry raw text.
//   - Indent and dedent markers are zero-width and carry IndentVal +1 / -1.
//   - Template markers that belong to one template block share a BlockID.
//   - Segment identity is pointer identity: two segments with equal fields
//     are still different tokens.
package segment
