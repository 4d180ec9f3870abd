// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reachdef implements the reference/baseline reaching-
// definitions solver: a classical gen/kill forward dataflow over a
// read-write graph (spec §4.3). memssa is the production engine;
// reachdef exists to cross-check it and to serve callers that prefer
// a dense, non-incremental result over the whole graph at once.
package reachdef

import (
	"sort"

	"github.com/go-depgraph/depgraph/diag"
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
	"github.com/go-depgraph/depgraph/rwgraph"
)

// Sentinel is the collapsed reaching-set entry used when a node's
// live set exceeds the configured MaxSetSize (spec §4.3's bounded-
// size policy).
var Sentinel = rwgraph.DefSite{Target: rwgraph.NodeId(pointer.UnknownMemory), Offset: offset.Unknown, Len: offset.Unknown}

// Options configures the solver.
type Options struct {
	// MaxSetSize bounds the number of distinct DefSites tracked per
	// node before the set collapses to Sentinel. Must be >= 1; zero
	// is treated as "uncapped" (spec: "must be >= 1", so the zero
	// value is interpreted as the caller not having set it).
	MaxSetSize int
}

// Result holds the solved in()/out() sets for every node of one
// rwgraph.Graph, indexed by rwgraph.NodeId.
type Result struct {
	g          *rwgraph.Graph
	in         []rwgraph.DefSiteSet
	out        []rwgraph.DefSiteSet
	sink       diag.Sink
	iterations int
}

// Run solves the dense reaching-definitions dataflow over every
// subgraph of g to a fixpoint and returns the result.
func Run(g *rwgraph.Graph, opts Options, sink diag.Sink) *Result {
	if sink == nil {
		sink = diag.Nop{}
	}
	r := &Result{
		g:    g,
		in:   make([]rwgraph.DefSiteSet, g.NumNodes()),
		out:  make([]rwgraph.DefSiteSet, g.NumNodes()),
		sink: sink,
	}
	for _, sg := range g.Subgraphs() {
		r.solveSubgraph(sg, opts)
	}
	return r
}

func (r *Result) solveSubgraph(sg *rwgraph.Subgraph, opts Options) {
	order := sg.Blocks()
	changed := true
	for changed {
		changed = false
		r.iterations++
		for _, bid := range order {
			blk := r.g.Block(bid)
			var in rwgraph.DefSiteSet
			for _, p := range blk.Preds() {
				pred := r.g.Block(p)
				if len(pred.Nodes()) == 0 {
					continue
				}
				last := pred.Nodes()[len(pred.Nodes())-1]
				for _, d := range r.out[last] {
					in.Add(d)
				}
			}
			cur := in
			for _, nid := range blk.Nodes() {
				n := r.g.Node(nid)
				prevIn := r.in[nid]
				if !sameSet(prevIn, cur) {
					r.in[nid] = append(rwgraph.DefSiteSet(nil), cur...)
					changed = true
				}
				next := gen(n, cur)
				next = killed(next, cur, n)
				if opts.MaxSetSize > 0 && len(next) > opts.MaxSetSize {
					r.sink.Warn(diag.ResourceCapHit, n.String(), "reaching set exceeded maxSetSize=%d, collapsing", opts.MaxSetSize)
					next = rwgraph.DefSiteSet{Sentinel}
				}
				if !sameSet(r.out[nid], next) {
					r.out[nid] = next
					changed = true
				}
				cur = next
			}
		}
	}
}

// gen returns in ∪ n.Defs() (overwrites are recorded in Defs too).
// The kill step is applied separately by killed, so that
// killed(gen(n, in), in, n) is out(n) = gen(n) ∪ (in(n) \ kill(n))
// per spec §4.3.
func gen(n *rwgraph.Node, in rwgraph.DefSiteSet) rwgraph.DefSiteSet {
	var out rwgraph.DefSiteSet
	for _, d := range in {
		out.Add(d)
	}
	for _, d := range n.Defs() {
		out.Add(d)
	}
	return out
}

// killed removes from set every DefSite covered by one of n's
// overwrites -- kill(n) = { ds ∈ in | ∃ ds' ∈ n.overwrites, same
// target and ds.range ⊆ ds'.range }.
func killed(set, in rwgraph.DefSiteSet, n *rwgraph.Node) rwgraph.DefSiteSet {
	if len(n.Overwrites()) == 0 {
		return set
	}
	var out rwgraph.DefSiteSet
	for _, d := range set {
		isOwnDef := false
		for _, nd := range n.Defs() {
			if d == nd {
				isOwnDef = true
				break
			}
		}
		if isOwnDef {
			out.Add(d)
			continue
		}
		dead := false
		for _, ow := range n.Overwrites() {
			if ow.Covers(d) {
				dead = true
				break
			}
		}
		if !dead {
			out.Add(d)
		}
	}
	return out
}

func sameSet(a, b rwgraph.DefSiteSet) bool {
	if len(a) != len(b) {
		return false
	}
	return supersetOf(b, a) && supersetOf(a, b)
}

func supersetOf(s, other rwgraph.DefSiteSet) bool {
	for _, d := range other {
		if !s.Contains(d) {
			return false
		}
	}
	return true
}

// Iterations reports the number of whole-subgraph dataflow passes the
// fixpoint needed, summed across every subgraph of g. internal/stats
// uses this to characterize how close a program's RWG is to the
// worst-case behavior the maxSetSize collapse guards against.
func (r *Result) Iterations() int { return r.iterations }

// In returns the set of definitions live entering node id.
func (r *Result) In(id rwgraph.NodeId) rwgraph.DefSiteSet { return r.in[id] }

// Out returns the set of definitions live leaving node id.
func (r *Result) Out(id rwgraph.NodeId) rwgraph.DefSiteSet { return r.out[id] }

// ReachingDefinitions returns the (stably ordered) reaching-definition
// targets visible at node id, i.e. Out(id) sorted by target then
// offset (spec §6.3's `reachingDefinitions(node) -> [DefSite]`, dense
// engine only).
func (r *Result) ReachingDefinitions(id rwgraph.NodeId) []rwgraph.DefSite {
	out := append([]rwgraph.DefSite(nil), r.out[id]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}
