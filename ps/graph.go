// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ps implements the pointer subgraph (PS): the directed graph
// of typed nodes representing pointer value flow that the pointer
// analysis solver runs over. See the data model section of the
// design document for the node variant table.
package ps

import (
	"fmt"

	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
)

// Graph owns every node and subgraph produced by a frontend. Node ids
// are stable for the lifetime of the Graph. Graph is move-only in
// spirit: copying a Graph by value aliases its slices in ways that
// violate the id-stability invariant, so callers should always pass
// *Graph.
type Graph struct {
	nodes     []Node
	subgraphs []*Subgraph
	noCopy    noCopy
}

// noCopy causes `go vet -copylocks` to flag accidental Graph value
// copies, the same discipline the teacher's analysis containers rely
// on informally.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Subgraph is one function-level region of the pointer subgraph. It
// is the only cross-subgraph attachment point: edges never cross
// subgraphs except via a Subgraph's Entry/Return nodes or CALL_RETURN
// rendezvous.
type Subgraph struct {
	id    SubgraphId
	name  string
	entry NodeId
	ret   NodeId
	roots []NodeId // never populated; the solver seeds its worklist from Graph.AllNodeIds
}

func (s *Subgraph) Id() SubgraphId { return s.id }
func (s *Subgraph) Name() string   { return s.name }
func (s *Subgraph) Entry() NodeId  { return s.entry }
func (s *Subgraph) Return() NodeId { return s.ret }

// New returns an empty Graph with the three reserved singleton nodes
// already allocated at their fixed ids.
func New() *Graph {
	g := &Graph{}
	g.nodes = append(g.nodes, Node{id: pointer.NullAddr, kind: KindNullAddr, subgraph: NoSubgraph, paired: NoNode})
	g.nodes = append(g.nodes, Node{id: pointer.UnknownMemory, kind: KindUnknownMem, subgraph: NoSubgraph, paired: NoNode})
	g.nodes = append(g.nodes, Node{id: pointer.Invalidated, kind: KindInvalidated, subgraph: NoSubgraph, paired: NoNode})
	// NULL_ADDR points to itself conceptually has no memory; leave
	// its points-to set empty. UNKNOWN_MEMORY and INVALIDATED are
	// targets, not sources, and likewise carry no own points-to set.
	return g
}

// NumNodes returns the number of nodes allocated so far, including
// the three reserved singletons.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Node returns a pointer to the node with the given id. It panics if
// id is out of range, which indicates a malformed-input bug in the
// frontend (spec §7: malformed input aborts construction).
func (g *Graph) Node(id NodeId) *Node {
	if int(id) >= len(g.nodes) {
		panic(fmt.Sprintf("ps: node id %d out of range (have %d nodes)", id, len(g.nodes)))
	}
	return &g.nodes[id]
}

// Nodes returns the ids of every node belonging to subgraph sg, in
// allocation order.
func (g *Graph) Nodes(sg SubgraphId) []NodeId {
	var out []NodeId
	for i := range g.nodes {
		if g.nodes[i].subgraph == sg {
			out = append(out, g.nodes[i].id)
		}
	}
	return out
}

// AllNodeIds returns every node id in the graph in allocation order,
// which callers use to seed the worklist deterministically.
func (g *Graph) AllNodeIds() []NodeId {
	out := make([]NodeId, len(g.nodes))
	for i := range g.nodes {
		out[i] = g.nodes[i].id
	}
	return out
}

// Subgraphs returns every subgraph in creation order.
func (g *Graph) Subgraphs() []*Subgraph {
	return g.subgraphs
}

// SetUserData attaches the frontend's opaque payload to a node.
func (g *Graph) SetUserData(id NodeId, data interface{}) {
	g.Node(id).userData = data
}

// SetPointsTo overwrites a node's points-to set outright. Used by the
// solver to seed Constant nodes and to commit merged results.
func (g *Graph) SetPointsTo(id NodeId, pts pointer.PointsToSet) {
	g.Node(id).pointsTo = pts
}

// MergePointsTo unions delta into node id's points-to set and reports
// whether it changed (the solver uses this to decide whether to
// re-enqueue dependents).
func (g *Graph) MergePointsTo(id NodeId, delta pointer.PointsToSet) bool {
	n := g.Node(id)
	return n.pointsTo.Merge(delta)
}

func (g *Graph) alloc(n Node) NodeId {
	n.id = NodeId(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return n.id
}

// NewSubgraph creates a new function-level subgraph named name,
// together with its ENTRY and RETURN nodes, and returns its id.
func (g *Graph) NewSubgraph(name string) *Subgraph {
	sg := &Subgraph{id: SubgraphId(len(g.subgraphs)), name: name}
	g.subgraphs = append(g.subgraphs, sg)
	sg.entry = g.alloc(Node{kind: KindEntry, subgraph: sg.id, paired: NoNode})
	sg.ret = g.alloc(Node{kind: KindReturn, subgraph: sg.id, paired: NoNode})
	return sg
}

// AddAlloc adds a stack or global allocation site of the given size to
// sg. Per the ownership rule, an allocation node points to itself at
// offset zero by construction.
func (g *Graph) AddAlloc(sg SubgraphId, size int64, global bool) NodeId {
	id := g.alloc(Node{kind: KindAlloc, subgraph: sg, size: size, global: global, paired: NoNode})
	var pts pointer.PointsToSet
	pts.Add(pointer.Pointer{Target: id, Offset: offset.Zero})
	g.SetPointsTo(id, pts)
	return id
}

// AddDynAlloc adds a heap allocation site to sg. zeroInit marks
// allocations known to be zero-initialized at runtime (e.g. calloc),
// which affects the Load fallback value (spec §4.1).
func (g *Graph) AddDynAlloc(sg SubgraphId, size int64, zeroInit bool) NodeId {
	id := g.alloc(Node{kind: KindDynAlloc, subgraph: sg, size: size, zeroInit: zeroInit, paired: NoNode})
	var pts pointer.PointsToSet
	pts.Add(pointer.Pointer{Target: id, Offset: offset.Zero})
	g.SetPointsTo(id, pts)
	return id
}

// AddFunction adds an allocation-like placeholder node standing for
// the function symbol named name. It is not attached to any subgraph:
// it is a value, referenced from whichever subgraphs take its
// address.
func (g *Graph) AddFunction(name string) NodeId {
	id := g.alloc(Node{kind: KindFunction, subgraph: NoSubgraph, name: name, paired: NoNode})
	var pts pointer.PointsToSet
	pts.Add(pointer.Pointer{Target: id, Offset: offset.Zero})
	g.SetPointsTo(id, pts)
	return id
}

// AddLoad adds a LOAD(p) node to sg: a dereference of operand p.
func (g *Graph) AddLoad(sg SubgraphId, p NodeId) NodeId {
	return g.alloc(Node{kind: KindLoad, subgraph: sg, operands: []NodeId{p}, paired: NoNode})
}

// AddStore adds a STORE(v, p) node to sg: write v into the memory
// pointed to by p. Operand order is [v, p].
func (g *Graph) AddStore(sg SubgraphId, v, p NodeId) NodeId {
	return g.alloc(Node{kind: KindStore, subgraph: sg, operands: []NodeId{v, p}, paired: NoNode})
}

// AddGep adds a GEP(p, off) node: pointer arithmetic by off, which
// may be offset.Unknown.
func (g *Graph) AddGep(sg SubgraphId, p NodeId, off offset.Offset) NodeId {
	return g.alloc(Node{kind: KindGep, subgraph: sg, operands: []NodeId{p}, gepOffset: off, paired: NoNode})
}

// AddCast adds a CAST(p) node: identity on points-to, kept distinct
// from p for provenance tracking.
func (g *Graph) AddCast(sg SubgraphId, p NodeId) NodeId {
	return g.alloc(Node{kind: KindCast, subgraph: sg, operands: []NodeId{p}, paired: NoNode})
}

// AddPhi adds a PHI node joining the given inputs, in order.
func (g *Graph) AddPhi(sg SubgraphId, inputs ...NodeId) NodeId {
	ops := append([]NodeId(nil), inputs...)
	return g.alloc(Node{kind: KindPhi, subgraph: sg, operands: ops, paired: NoNode})
}

// AddCall adds a CALL(args...)/CALL_RETURN pair for a direct call and
// returns both ids, paired with each other.
func (g *Graph) AddCall(sg SubgraphId, args ...NodeId) (call, callReturn NodeId) {
	ops := append([]NodeId(nil), args...)
	call = g.alloc(Node{kind: KindCall, subgraph: sg, operands: ops, paired: NoNode})
	callReturn = g.alloc(Node{kind: KindCallReturn, subgraph: sg, paired: call})
	g.Node(call).paired = callReturn
	return call, callReturn
}

// AddCallFuncPtr adds a CALL_FUNCPTR(p)/CALL_RETURN pair for an
// indirect call through the pointer held by operand p.
func (g *Graph) AddCallFuncPtr(sg SubgraphId, p NodeId, args ...NodeId) (call, callReturn NodeId) {
	ops := append([]NodeId{p}, args...)
	call = g.alloc(Node{kind: KindCallFuncPtr, subgraph: sg, operands: ops, paired: NoNode})
	callReturn = g.alloc(Node{kind: KindCallReturn, subgraph: sg, paired: call})
	g.Node(call).paired = callReturn
	return call, callReturn
}

// AddNoop adds a placeholder node carrying no semantics.
func (g *Graph) AddNoop(sg SubgraphId) NodeId {
	return g.alloc(Node{kind: KindNoop, subgraph: sg, paired: NoNode})
}

// AddConstant adds a CONSTANT node whose points-to set is pts,
// immutable from construction onward.
func (g *Graph) AddConstant(sg SubgraphId, pts pointer.PointsToSet) NodeId {
	id := g.alloc(Node{kind: KindConstant, subgraph: sg, paired: NoNode})
	g.SetPointsTo(id, pts)
	return id
}

// AddMemcpy adds a MEMCPY(src,dst,off,len) node copying a sub-range of
// src's memory to dst. Operand order is [src, dst].
func (g *Graph) AddMemcpy(sg SubgraphId, src, dst NodeId, off, length offset.Offset) NodeId {
	return g.alloc(Node{kind: KindMemcpy, subgraph: sg, operands: []NodeId{src, dst}, mcOffset: off, mcLen: length, paired: NoNode})
}

// AddFree adds a FREE(p) node invalidating the targets of p.
func (g *Graph) AddFree(sg SubgraphId, p NodeId) NodeId {
	return g.alloc(Node{kind: KindFree, subgraph: sg, operands: []NodeId{p}, paired: NoNode})
}

// AddInvalidateLocals adds an INVALIDATE_LOCALS node, placed at a
// function exit to invalidate the caller-visible view of this
// subgraph's stack allocations.
func (g *Graph) AddInvalidateLocals(sg SubgraphId) NodeId {
	return g.alloc(Node{kind: KindInvalidateLocals, subgraph: sg, paired: NoNode})
}

// AddInvalidateObject adds an explicit lifetime-end marker for the
// object(s) pointed to by p.
func (g *Graph) AddInvalidateObject(sg SubgraphId, p NodeId) NodeId {
	return g.alloc(Node{kind: KindInvalidateObject, subgraph: sg, operands: []NodeId{p}, paired: NoNode})
}

// ConnectCallReturn wires calleeReturn into callReturn's operand list
// so that the ordinary union transfer function for CALL_RETURN picks
// up the callee's return value on the next worklist pass. This is how
// a CALL_FUNCPTR's indirect-call resolution (spec §4.1) materialises
// a callee discovered through the frontend's function-pointer
// callback: the callback connects the graph, the solver just keeps
// propagating points-to sets through the normal operand edges. It is
// idempotent: connecting the same pair twice is a no-op.
func (g *Graph) ConnectCallReturn(callReturn, calleeReturn NodeId) (connected bool) {
	n := g.Node(callReturn)
	for _, op := range n.operands {
		if op == calleeReturn {
			return false
		}
	}
	n.operands = append(n.operands, calleeReturn)
	return true
}
