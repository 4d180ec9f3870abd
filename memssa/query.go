// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import (
	"sort"

	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/rwgraph"
)

// GetDefinitionsAt returns every definition of target (restricted to
// [off, off+length) unless FieldInsensitive is set) visible at the
// head of block bid -- the reaching-definitions value a newly
// inserted read at the very start of bid would see.
func (r *Result) GetDefinitionsAt(bid rwgraph.BlockId, target rwgraph.NodeId, off, length offset.Offset) []Def {
	from, ln := r.normalize(off, length)
	var out []Def
	for _, d := range r.headFor(bid, target) {
		if !d.overlaps(from, from.Add(ln)) {
			continue
		}
		out = append(out, Def{Target: target, Range: offset.Range{From: d.from, To: d.to}, Definer: d.definer})
	}
	return dedupDefs(out)
}

// GetDefinitionsOfUse returns the definitions reaching node use's own
// read sites (spec §4.4's core query, and the basis for the def-use
// edges package defuse emits). It is computed as a byproduct of
// finalising use's block and is cached there.
func (r *Result) GetDefinitionsOfUse(use rwgraph.NodeId) []Def {
	r.finalizeBlock(r.g.Node(use).Block())
	return r.useDefs[use]
}

// FindAllReachingDefinitions returns every definition visible at the
// head of block bid, across every target that some node of the graph
// defines (Defs). It is the memssa counterpart of reachdef.Result.In, used by
// cross-checks and by callers that want a full snapshot rather than
// one target at a time.
func (r *Result) FindAllReachingDefinitions(bid rwgraph.BlockId) []Def {
	bs := &r.blocks[bid]
	if bs.haveAll {
		return bs.allDefs
	}
	seen := make(map[rwgraph.NodeId]bool)
	var targets []rwgraph.NodeId
	for _, sg := range r.g.Subgraphs() {
		for _, b := range sg.Blocks() {
			for _, nid := range r.g.Block(b).Nodes() {
				n := r.g.Node(nid)
				for _, d := range n.Defs() {
					if !seen[d.Target] {
						seen[d.Target] = true
						targets = append(targets, d.Target)
					}
				}
			}
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	var all []Def
	for _, t := range targets {
		all = append(all, r.GetDefinitionsAt(bid, t, offset.Zero, offset.Unknown)...)
	}
	bs.allDefs = all
	bs.haveAll = true
	return all
}

// PhiOperands returns the definer nodes a memory-SSA-synthesised phi
// merges, in the order its predecessor blocks were visited. It
// returns nil for any node id that is not a phi memssa created.
func (r *Result) PhiOperands(phi rwgraph.NodeId) []rwgraph.NodeId {
	return r.phiOperands[phi]
}

// IsSynthesisedPhi reports whether id was created by this engine
// (rather than present in the RWG the builder produced).
func (r *Result) IsSynthesisedPhi(id rwgraph.NodeId) bool {
	_, ok := r.phiOperands[id]
	return ok
}

func dedupDefs(defs []Def) []Def {
	var out []Def
	for _, d := range defs {
		dup := false
		for _, e := range out {
			if e == d {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, d)
		}
	}
	return out
}
