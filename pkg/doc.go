// Package pkg provides the libraries behind ocrbench, an evaluation harness
// for one-sided crossing minimization (OCR) solvers.
//
// # Overview
//
// An OCR instance is a two-layer bipartite graph: the fixed layer keeps its
// order, and a solver chooses a permutation of the free layer that produces
// few edge crossings when both layers are drawn on parallel lines. ocrbench
// does not solve instances. It runs someone else's solver under resource
// limits, checks its output and counts the crossings.
//
// # Architecture
//
// The data flow of one batch:
//
//	instance directory
//	         ↓
//	    [batch] discovery (stable instance order)
//	         ↓
//	    [runner] solver run (wall-clock and memory limits)
//	         ↓
//	    [solution] output validation
//	         ↓
//	    [ocr] crossing count (and optional lower bound, cached by [cache])
//	         ↓
//	    CSV / JSON Lines rows
//
// # Quick Start
//
// Score an ordering by hand:
//
//	g, _ := ocr.ParseFile("instances/1.gr", ocr.ParseOptions{})
//	order, err := solution.Validate(g, []byte("5\n4\n"))
//	if err != nil {
//	    log.Fatal(err) // a *solution.ValidationError naming the bad line
//	}
//	fmt.Println(ocr.CountCrossingsSweep(g, order))
//
// Evaluate a solver on a directory:
//
//	b, err := batch.New(batch.Config{
//	    Dir:       "instances",
//	    Solver:    "./solver",
//	    TimeLimit: 5 * time.Minute,
//	    Jobs:      4,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sum, err := b.Run(ctx, batch.NewCSVWriter(os.Stdout))
//
// # Main Packages
//
// [ocr] - The graph model, the PACE text format parser and serializer,
// crossing counters (quadratic reference and Fenwick sweep, plain and
// weighted), the pairwise crossing matrix and lower bound.
//
// [solution] - Classification of solver output lines and validation of an
// ordering against an instance.
//
// [runner] - Bounded process runner: captures stdout and stderr, enforces
// the wall-clock limit by signalling the whole process group, and enforces
// a memory ceiling through RLIMIT_AS or /proc sampling.
//
// [batch] - Instance discovery, scoring strategies, the ordered concurrent
// row iterator and the CSV and JSON Lines sinks.
//
// [cache] - File and null caches for derived per-instance data.
//
// [render] and [render/layered] - Graphviz drawings of an instance under an
// ordering, with crossing edges highlighted.
//
// ## Supporting Packages
//
// [errors] - Structured error codes shared by every package.
//
// [observability] - Hooks for runner, batch and cache events.
//
// [perm] - Permutation helpers used by counters and tests.
//
// [buildinfo] - Version information injected at build time.
//
// [ocr]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/ocr
// [solution]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/solution
// [runner]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/runner
// [batch]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/batch
// [cache]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/cache
// [render]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/render
// [render/layered]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/render/layered
// [errors]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/observability
// [perm]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/perm
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/ocrbench/pkg/buildinfo
package pkg
