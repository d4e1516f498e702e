// Package batch evaluates a solver over a directory of instances and emits
// one result row per instance.
//
// # Overview
//
// [Discover] lists the instance files of a directory: names made only of
// digits sort numerically, any other set of names sorts lexicographically.
// A [Batch] runs the solver on each instance through package runner and
// hands every Ok run to its [Scorer]:
//
//   - [CrossingScorer] validates the output as an ordering and counts its
//     crossings (and weighted cost on weighted instances)
//   - [RawScorer] keeps the output without looking at it
//   - [ReferenceScorer] counts crossings and compares them against known
//     reference values, score = 1 - reference/crossings
//
// Runs that are not Ok get empty score fields; NonZeroExit output is never
// scored. No instance is ever skipped: launch failures, parse errors and
// invalid solutions all produce rows.
//
// # Ordering and Concurrency
//
// [Batch.Rows] is a lazy iterator. Up to Jobs instances run at once, and at
// most a few times Jobs finished rows wait for earlier ones, but rows are
// always yielded in discovery order. Stopping the iteration, or cancelling
// its context, terminates every running child. Calling Rows again runs the
// batch again from the start.
//
// # Output
//
// [CSVWriter] and [JSONLWriter] write the columns in [Columns]; each row is
// flushed and, for regular files, fsynced before the next one, so an
// interrupted batch leaves a valid prefix.
package batch
