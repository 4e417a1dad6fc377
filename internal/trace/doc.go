// Package trace records what the reflow driver and engine are doing.
//
// Tracing is off by default and costs a single interface call per span
// when disabled. It is enabled from the command line:
//
//	sqlreflow lint --trace=- --trace-level=line query.sql
//
// # Tracers
//
//   - Nop: discards everything
//   - StreamTracer: writes each event as it happens (text or NDJSON)
//   - RingTracer: keeps the last N events for dumping after a panic
//   - MultiTracer: fans out to several tracers
//
// # Scopes
//
// Events are bucketed by granularity, coarse to fine:
//
//   - ScopeDriver: one CLI invocation
//   - ScopeFile: one input file
//   - ScopePass: one engine pass over a file (lex, reindent, respace, ...)
//   - ScopeLine: one indent line evaluation
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "reindent", 0)
//	defer span.End("")
package trace
