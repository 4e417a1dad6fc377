// Package token defines lexical token kinds and trivia for SQL sources.
// Invariants:
//   - Token.Text is the exact source slice covered by Token.Span.
//   - Keywords keep their source spelling in Text; Norm holds the folded
//     form used for lookups.
//   - Whitespace, newlines and comments are trivia and never appear in the
//     main token stream. Each newline is its own trivia entry.
//   - Template tags ({{ }}, {% %}, {# #}) are tokens, not trivia: they take
//     part in layout.
package token
