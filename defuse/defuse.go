// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package defuse derives the def-use edges a slicer walks backwards
// over: from a read, to every RWG node that memory-SSA determined may
// have produced the value it read (spec §4.5).
package defuse

import (
	"fmt"

	"github.com/go-depgraph/depgraph/memssa"
	"github.com/go-depgraph/depgraph/rwgraph"
)

// Kind distinguishes why an edge exists.
type Kind int

const (
	// DefUse connects a use to a definer memory-SSA determined may
	// reach it.
	DefUse Kind = iota
	// PhiOperand connects a synthesised phi to one of the definers it
	// merges.
	PhiOperand
	// CallReturn connects a Call node with a resolved callee to that
	// callee's Return node, letting a slicer continue into the
	// callee's own def-use chain.
	CallReturn
)

func (k Kind) String() string {
	switch k {
	case DefUse:
		return "def-use"
	case PhiOperand:
		return "phi-operand"
	case CallReturn:
		return "call-return"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Edge is one directed dependency: From depends on (may be satisfied
// or influenced by) To.
type Edge struct {
	From rwgraph.NodeId
	To   rwgraph.NodeId
	Kind Kind
}

// Edges computes every def-use, phi-operand, and call-return edge in
// g, driving whatever memory-SSA queries are needed along the way
// (memssa builds its graph lazily; this is the first consumer that
// typically needs the whole thing materialised at once).
func Edges(g *rwgraph.Graph, r *memssa.Result) []Edge {
	seen := make(map[Edge]bool)
	var edges []Edge
	add := func(e Edge) {
		if seen[e] {
			return
		}
		seen[e] = true
		edges = append(edges, e)
	}

	// Resolving every use in program order forces memssa to finalise
	// every block a use can transitively depend on, synthesising
	// whatever phis the merges along the way require.
	for i := 0; i < g.NumNodes(); i++ {
		nid := rwgraph.NodeId(i)
		n := g.Node(nid)
		if len(n.Uses()) == 0 {
			continue
		}
		for _, d := range r.GetDefinitionsOfUse(nid) {
			add(Edge{From: nid, To: d.Definer, Kind: DefUse})
		}
	}

	// Phi operand edges, including any phi created as a side effect
	// of the use resolution above.
	for i := 0; i < g.NumNodes(); i++ {
		nid := rwgraph.NodeId(i)
		if !r.IsSynthesisedPhi(nid) {
			continue
		}
		for _, op := range r.PhiOperands(nid) {
			add(Edge{From: nid, To: op, Kind: PhiOperand})
		}
	}

	// Call-return edges for every call whose callee(s) are known.
	for i := 0; i < g.NumNodes(); i++ {
		nid := rwgraph.NodeId(i)
		n := g.Node(nid)
		if n.Kind() != rwgraph.KindCall {
			continue
		}
		for _, callee := range n.Callees() {
			if ret, ok := returnNodeOf(g, callee); ok {
				add(Edge{From: nid, To: ret, Kind: CallReturn})
			}
		}
	}

	return edges
}

func returnNodeOf(g *rwgraph.Graph, sg rwgraph.SubgraphId) (rwgraph.NodeId, bool) {
	for _, s := range g.Subgraphs() {
		if s.Id() != sg {
			continue
		}
		for _, bid := range s.Blocks() {
			for _, nid := range g.Block(bid).Nodes() {
				if g.Node(nid).Kind() == rwgraph.KindReturn {
					return nid, true
				}
			}
		}
	}
	return rwgraph.NoNode, false
}
