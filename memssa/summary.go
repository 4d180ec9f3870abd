// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import "github.com/go-depgraph/depgraph/rwgraph"

// ensureSummaries computes, for every subgraph, the set of targets it
// may write -- directly or transitively through its own calls -- so
// that finalizeBlock can treat a call to a known-bodied function as a
// weak def of exactly those targets (spec §4.4 "Call handling")
// instead of falling back to the RWG builder's worst case.
//
// Recursion (including mutual recursion, spec §8 scenario 6) is
// handled by a Jacobi-style fixpoint: every subgraph starts with an
// empty summary ("no effect", the safe bottom for a call whose body
// hasn't been examined yet) and each round recomputes every
// subgraph's summary from the previous round's numbers until nothing
// changes. The set of possible targets is finite and each round's
// summaries only grow, so this always terminates.
func (r *Result) ensureSummaries() {
	if r.summariesReady {
		return
	}
	r.summariesReady = true // set first: summaryFor must not recurse into ensureSummaries

	subgraphs := r.g.Subgraphs()
	live := make(map[rwgraph.SubgraphId][]rwgraph.NodeId, len(subgraphs))
	for _, sg := range subgraphs {
		live[sg.Id()] = nil
	}

	maxRounds := len(subgraphs) + 2
	for round := 0; round < maxRounds; round++ {
		next := make(map[rwgraph.SubgraphId][]rwgraph.NodeId, len(subgraphs))
		changed := false
		for _, sg := range subgraphs {
			s := computeSummaryOnce(r.g, sg, live)
			next[sg.Id()] = s
			if !sameSet(s, live[sg.Id()]) {
				changed = true
			}
		}
		live = next
		if !changed {
			break
		}
	}
	r.summaries = live
}

// computeSummaryOnce computes sg's directly- and transitively-written
// target set for one fixpoint round, given the previous round's
// summaries for every subgraph (live). Because a "may write" summary
// is order- and reachability-independent (a write anywhere on any
// path counts), this needs only a flat scan of sg's nodes, not a CFG
// walk.
func computeSummaryOnce(g *rwgraph.Graph, sg *rwgraph.Subgraph, live map[rwgraph.SubgraphId][]rwgraph.NodeId) []rwgraph.NodeId {
	var touched []rwgraph.NodeId
	for _, bid := range sg.Blocks() {
		for _, nid := range g.Block(bid).Nodes() {
			n := g.Node(nid)
			for _, d := range n.Defs() {
				touched = unionAppend(touched, []rwgraph.NodeId{d.Target})
			}
			for _, callee := range n.Callees() {
				touched = unionAppend(touched, live[callee])
			}
		}
	}
	return touched
}

// summaryFor returns the (already computed) set of targets subgraph
// sg may write.
func (r *Result) summaryFor(sg rwgraph.SubgraphId) []rwgraph.NodeId {
	return r.summaries[sg]
}
