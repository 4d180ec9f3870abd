// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stats summarizes worklist-fixpoint iteration counts and
// pointer-subgraph sizes across a batch of analysis runs, something the
// original's PointerAnalysis.cpp reports per-run but spec.md's
// distillation dropped (SPEC_FULL.md §9). It is consumed by
// cmd/depgraph-dump's -stats flag, never by the core packages
// themselves.
package stats

import (
	"fmt"
	"io"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"

	"github.com/go-depgraph/depgraph/ptranalysis"
	"github.com/go-depgraph/depgraph/reachdef"
)

// Run is one named analysis run's counters, gathered after calling
// ptranalysis.Solver.Run and/or reachdef.Run.
type Run struct {
	Name string

	// PointerIterations is the pointer-analysis solver's worklist
	// Processed count (ptranalysis.Stats.Processed); zero if this
	// run didn't exercise the solver.
	PointerIterations int
	// PointerNodes is the PS graph size the solver ran over.
	PointerNodes int

	// RDIterations is the reaching-definitions dataflow's pass
	// count (reachdef.Result.Iterations); zero if this run didn't
	// exercise reachdef.
	RDIterations int
}

// FromPointerSolver fills in a Run's pointer-analysis fields from a
// solver that has already had Run called on it.
func FromPointerSolver(name string, s *ptranalysis.Solver) Run {
	st := s.Stats()
	return Run{Name: name, PointerIterations: st.Processed, PointerNodes: st.Nodes}
}

// WithReachDef returns r with its reaching-definitions field filled
// in from a solved reachdef.Result.
func (r Run) WithReachDef(res *reachdef.Result) Run {
	r.RDIterations = res.Iterations()
	return r
}

// Table builds a go-gg table from a batch of runs, one row per run,
// the way benchplot's benchmarksToTable builds one row per benchmark
// before handing the result to table.Fprint.
func Table(runs []Run) *table.Table {
	names := make([]string, len(runs))
	ptrIters := make([]float64, len(runs))
	ptrNodes := make([]float64, len(runs))
	rdIters := make([]float64, len(runs))
	for i, r := range runs {
		names[i] = r.Name
		ptrIters[i] = float64(r.PointerIterations)
		ptrNodes[i] = float64(r.PointerNodes)
		rdIters[i] = float64(r.RDIterations)
	}
	b := new(table.Builder).Add("run", names)
	b.Add("pointer iterations", ptrIters)
	b.Add("pointer nodes", ptrNodes)
	b.Add("reachdef iterations", rdIters)
	return b.Done()
}

// Summary is the go-moremath-computed mean/stddev across a batch of
// runs for one counter, the aggregate view cmd/depgraph-dump -stats
// prints alongside the per-run table.
type Summary struct {
	Mean   float64
	StdDev float64
}

func summarize(xs []float64) Summary {
	s := stats.Sample{Xs: xs}
	return Summary{Mean: s.Mean(), StdDev: s.StdDev()}
}

// Summarize computes per-counter summaries across runs.
func Summarize(runs []Run) (pointerIterations, reachdefIterations Summary) {
	pi := make([]float64, len(runs))
	rd := make([]float64, len(runs))
	for i, r := range runs {
		pi[i] = float64(r.PointerIterations)
		rd[i] = float64(r.RDIterations)
	}
	return summarize(pi), summarize(rd)
}

// Fprint writes the per-run table followed by the aggregate summary
// to w, the report format cmd/depgraph-dump -stats emits.
func Fprint(w io.Writer, runs []Run) {
	table.Fprint(w, Table(runs))
	pi, rd := Summarize(runs)
	fmt.Fprintf(w, "\npointer iterations: mean=%.2f stddev=%.2f\n", pi.Mean, pi.StdDev)
	fmt.Fprintf(w, "reachdef iterations: mean=%.2f stddev=%.2f\n", rd.Mean, rd.StdDev)
}
