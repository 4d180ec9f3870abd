// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import (
	"github.com/go-depgraph/depgraph/diag"
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
	"github.com/go-depgraph/depgraph/rwgraph"
)

// unknownMemory is the RWG counterpart of pointer.UnknownMemory: the
// definer substituted whenever a query resolves to "no known write",
// e.g. a load at function entry with no caller context.
var unknownMemory = rwgraph.NodeId(pointer.UnknownMemory)

// rdef is one (range, definer) entry in a target's local definition
// list -- the unit memssa tracks instead of reachdef's per-interval
// DefSite map (spec §4.3), since memssa only needs enough precision
// to answer "what defines this read", not a full disjoint partition.
type rdef struct {
	from, to offset.Offset
	definer  rwgraph.NodeId
}

func (r rdef) overlaps(from, to offset.Offset) bool {
	return offset.Overlaps(r.from, offset.Range{From: r.from, To: r.to}.Len(), from, offset.Range{From: from, To: to}.Len())
}

// unionRdef appends every entry of b not already present (by value)
// to a.
func unionRdef(a, b []rdef) []rdef {
	for _, r := range b {
		found := false
		for _, e := range a {
			if e == r {
				found = true
				break
			}
		}
		if !found {
			a = append(a, r)
		}
	}
	return a
}

// distinctDefiners returns the set of unique definer node ids among rs.
func distinctDefiners(rs []rdef) []rwgraph.NodeId {
	var out []rwgraph.NodeId
	for _, r := range rs {
		out = unionAppend(out, []rwgraph.NodeId{r.definer})
	}
	return out
}

// Result is the outcome of running memory-SSA over an RWG: the
// engine itself, kept live because every query is resolved lazily and
// memoised the first time it is asked (spec §4.4's "on-demand").
type Result struct {
	g    *rwgraph.Graph
	opts Options
	sink diag.Sink

	blocks []blockState

	// headInProgress / provisionalPhi implement the place-phi-before-
	// descend discipline: a (block, target) merge currently being
	// resolved is marked in headInProgress; if recursion loops back
	// into the same merge, a phi is created on demand and recorded in
	// provisionalPhi so the cycle closes on a real RWG node instead of
	// recursing forever.
	headInProgress map[headKey]bool
	provisionalPhi map[headKey]rwgraph.NodeId

	// phiOperands records, for every phi memssa synthesised, the
	// distinct definer nodes it merges -- the def-use edges a slicer
	// needs (spec §4.5), not reconstructible from rwgraph.Node alone
	// since rwgraph carries no general operand list for Phi.
	phiOperands map[rwgraph.NodeId][]rwgraph.NodeId

	// useDefs caches GetDefinitionsOfUse by RWG node id, the result
	// LVN computes in the course of finalising that node's block.
	useDefs map[rwgraph.NodeId][]Def

	// summaries[sg] is the set of targets subgraph sg may write,
	// transitively through its own calls, computed by a whole-program
	// fixpoint the first time any query needs call handling (spec
	// §4.4 "Call handling"). nil until ensureSummaries runs.
	summaries      map[rwgraph.SubgraphId][]rwgraph.NodeId
	summariesReady bool
}

// New returns a Result ready to answer queries against g. No
// computation happens until the first query; New performs no graph
// traversal of its own.
func New(g *rwgraph.Graph, opts Options, sink diag.Sink) *Result {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Result{
		g:              g,
		opts:           opts,
		sink:           sink,
		blocks:         make([]blockState, g.NumBlocks()),
		headInProgress: make(map[headKey]bool),
		provisionalPhi: make(map[headKey]rwgraph.NodeId),
		phiOperands:    make(map[rwgraph.NodeId][]rwgraph.NodeId),
		useDefs:        make(map[rwgraph.NodeId][]Def),
	}
}

// normalize applies the FieldInsensitive option to a DefSite's range,
// collapsing it to "whole object" when set.
func (r *Result) normalize(offs, length offset.Offset) (offset.Offset, offset.Offset) {
	if r.opts.FieldInsensitive {
		return offset.Zero, offset.Unknown
	}
	return offs, length
}

// isWorstCaseCall reports whether n is the RWG builder's unresolved-
// call fallback (no known callee, conservative UnknownMemory
// read/write) rather than a modeled function or a call with resolved
// callee subgraphs.
func isWorstCaseCall(n *rwgraph.Node) bool {
	if n.Kind() != rwgraph.KindCall || len(n.Callees()) > 0 {
		return false
	}
	for _, d := range n.Defs() {
		if d.Target == unknownMemory {
			return true
		}
	}
	for _, u := range n.Uses() {
		if u.Target == unknownMemory {
			return true
		}
	}
	return false
}

// headFor resolves the definer set visible to target at the head of
// block bid: the single predecessor's tail if there is one, a
// synthesised phi if predecessors disagree, or the UnknownMemory
// sentinel at an entry block with no caller context.
func (r *Result) headFor(bid rwgraph.BlockId, target rwgraph.NodeId) []rdef {
	preds := r.g.Block(bid).Preds()
	if len(preds) == 0 {
		return []rdef{{from: offset.Zero, to: offset.Unknown, definer: unknownMemory}}
	}
	if len(preds) == 1 {
		return r.tailFor(preds[0], target)
	}

	key := headKey{block: bid, target: target}
	if phi, ok := r.provisionalPhi[key]; ok {
		return []rdef{{from: offset.Zero, to: offset.Unknown, definer: phi}}
	}
	if r.headInProgress[key] {
		// A predecessor chain loops back into a merge we are still
		// resolving. Place the phi now (before descending any
		// further) so the cycle closes on a real node instead of
		// recursing forever; the outer call finishes filling in its
		// operands once every predecessor has been visited.
		phi := r.g.PrependPhi(bid)
		r.provisionalPhi[key] = phi
		return []rdef{{from: offset.Zero, to: offset.Unknown, definer: phi}}
	}

	r.headInProgress[key] = true
	var merged []rdef
	for _, p := range preds {
		merged = unionRdef(merged, r.tailFor(p, target))
	}
	delete(r.headInProgress, key)

	definers := distinctDefiners(merged)
	if phi, ok := r.provisionalPhi[key]; ok {
		// A recursive call back into this merge (a loop) already
		// created the phi and handed its id out as a placeholder;
		// finalise it with whatever we ultimately collected.
		definers = removeSelf(definers, phi)
		r.phiOperands[phi] = definers
		r.g.SetPhiDef(phi, rwgraph.DefSite{Target: target, Offset: offset.Zero, Len: offset.Unknown})
		delete(r.provisionalPhi, key)
		return []rdef{{from: offset.Zero, to: offset.Unknown, definer: phi}}
	}
	if len(definers) <= 1 {
		// Predecessors agree (or target was never defined on any
		// path): no genuine merge point, nothing to synthesise.
		return merged
	}
	phi := r.g.PrependPhi(bid)
	r.phiOperands[phi] = definers
	r.g.SetPhiDef(phi, rwgraph.DefSite{Target: target, Offset: offset.Zero, Len: offset.Unknown})
	return []rdef{{from: offset.Zero, to: offset.Unknown, definer: phi}}
}

func removeSelf(ids []rwgraph.NodeId, self rwgraph.NodeId) []rwgraph.NodeId {
	var out []rwgraph.NodeId
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

// tailFor resolves the definer set visible to target leaving block
// bid, finalising bid's local value numbering first if needed.
func (r *Result) tailFor(bid rwgraph.BlockId, target rwgraph.NodeId) []rdef {
	bs := r.finalizeBlock(bid)
	if v, ok := bs.tail[target]; ok {
		return v
	}
	return r.headFor(bid, target)
}

// finalizeBlock runs LVN over bid unless bid is already Finalised,
// recording each touched target's resulting definer list in bs.tail
// and every node's resolved uses in r.useDefs. A block re-entered
// while still InLVN is run again (see state).
func (r *Result) finalizeBlock(bid rwgraph.BlockId) *blockState {
	bs := &r.blocks[bid]
	if bs.state == stateFinalised {
		return bs
	}
	r.ensureSummaries()

	bs.state = stateInLVN
	cur := make(map[rwgraph.NodeId][]rdef)
	getCur := func(target rwgraph.NodeId) []rdef {
		if v, ok := cur[target]; ok {
			return v
		}
		v := r.headFor(bid, target)
		cur[target] = v
		return v
	}

	block := r.g.Block(bid)
	for _, nid := range block.Nodes() {
		n := r.g.Node(nid)
		if r.opts.UndefinedArePure && isWorstCaseCall(n) {
			continue
		}

		if len(n.Uses()) > 0 {
			var defs []Def
			for _, u := range n.Uses() {
				from, to := r.normalize(u.Offset, u.Len)
				for _, d := range getCur(u.Target) {
					if !d.overlaps(from, from.Add(to)) {
						continue
					}
					defs = append(defs, Def{Target: u.Target, Range: offset.Range{From: d.from, To: d.to}, Definer: d.definer})
				}
			}
			r.useDefs[nid] = defs
		}

		if n.IsPassthrough() {
			applyPassthrough(n, cur, getCur)
			continue
		}

		if n.Kind() == rwgraph.KindCall {
			for _, sg := range n.Callees() {
				for _, t := range r.summaryFor(sg) {
					cur[t] = unionRdef(getCur(t), []rdef{{from: offset.Zero, to: offset.Unknown, definer: nid}})
				}
			}
		}

		for _, d := range n.Defs() {
			from, to := r.normalize(d.Offset, d.Len)
			if n.Overwrites().Contains(d) {
				if d.Target == unknownMemory && !r.opts.StrongUpdateUnknown {
					cur[d.Target] = unionRdef(getCur(d.Target), []rdef{{from: from, to: from.Add(to), definer: nid}})
					continue
				}
				if d.Target == unknownMemory {
					r.sink.Warn(diag.UnsoundFallback, n.String(), "strong update through UnknownMemory")
				}
				kept := getCur(d.Target)[:0:0]
				for _, e := range getCur(d.Target) {
					if !e.overlaps(from, from.Add(to)) {
						kept = append(kept, e)
					}
				}
				cur[d.Target] = append(kept, rdef{from: from, to: from.Add(to), definer: nid})
			} else {
				cur[d.Target] = unionRdef(getCur(d.Target), []rdef{{from: from, to: from.Add(to), definer: nid}})
			}
		}
	}

	bs.tail = cur
	bs.state = stateFinalised
	return bs
}

// applyPassthrough handles a memcpy-derived Call node (spec §8
// scenario 5): its destination range is defined by whatever currently
// defines its source range, not by the node itself -- a copy
// originates nothing.
func applyPassthrough(n *rwgraph.Node, cur map[rwgraph.NodeId][]rdef, getCur func(rwgraph.NodeId) []rdef) {
	var srcDefs []rdef
	for _, u := range n.Uses() {
		srcDefs = unionRdef(srcDefs, getCur(u.Target))
	}
	for _, d := range n.Defs() {
		cur[d.Target] = unionRdef(getCur(d.Target), srcDefs)
	}
}
