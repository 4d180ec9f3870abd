// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package refframe is a test-only reference oracle: for small literal
// Go programs, it runs the upstream SSA-based points-to analysis
// (golang.org/x/tools/go/pointer) and call graph
// (golang.org/x/tools/go/callgraph) so package ptranalysis and
// package memssa's own results can be cross-checked against them for
// membership agreement on representative cases. Nothing in the core
// packages imports this one; it exists to ground confidence in the
// from-scratch solver, the way rtcheck/main.go builds exactly this
// pointer.Config/pointer.Analyze/callgraph.GraphVisitEdges pipeline
// for its own (unrelated) lock-order analysis.
package refframe

import (
	"fmt"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
)

// Oracle wraps one golang.org/x/tools/go/pointer analysis run.
type Oracle struct {
	result *pointer.Result
}

// NewOracle runs the upstream whole-program pointer analysis rooted
// at mainPkg, registering a query for every value in queries whose
// type pointer.CanPoint accepts (others are silently skipped, mirroring
// the teacher's own tolerance for unanalyzable values).
func NewOracle(mainPkg *ssa.Package, queries ...ssa.Value) (*Oracle, error) {
	cfg := &pointer.Config{
		Mains:          []*ssa.Package{mainPkg},
		BuildCallGraph: true,
	}
	for _, q := range queries {
		if pointer.CanPoint(q.Type()) {
			cfg.AddQuery(q)
		}
	}
	result, err := pointer.Analyze(cfg)
	if err != nil {
		return nil, fmt.Errorf("refframe: %w", err)
	}
	return &Oracle{result: result}, nil
}

// MayAlias reports whether the upstream analysis's points-to sets for
// a and b intersect. Both must have been passed to NewOracle's
// queries list; an unregistered value reports false.
func (o *Oracle) MayAlias(a, b ssa.Value) bool {
	pa, ok := o.result.Queries[a]
	if !ok {
		return false
	}
	pb, ok := o.result.Queries[b]
	if !ok {
		return false
	}
	return pa.PointsTo().Intersects(pb.PointsTo())
}

// Callees returns the functions the upstream call graph resolves as
// possible targets of a call to fn, deduplicated, the same
// edge-dedup-by-(caller,callee) pattern rtcheck/main.go uses when
// emitting its own call graph dot file.
func (o *Oracle) Callees(fn *ssa.Function) []*ssa.Function {
	node := o.result.CallGraph.Nodes[fn]
	if node == nil {
		return nil
	}
	seen := make(map[*ssa.Function]bool)
	var out []*ssa.Function
	callgraph.GraphVisitEdges(o.result.CallGraph, func(e *callgraph.Edge) error {
		if e.Caller != node || e.Callee.Func == nil || seen[e.Callee.Func] {
			return nil
		}
		seen[e.Callee.Func] = true
		out = append(out, e.Callee.Func)
		return nil
	})
	return out
}
