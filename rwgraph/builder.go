// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwgraph

import (
	"github.com/go-depgraph/depgraph/diag"
	"github.com/go-depgraph/depgraph/fnmodel"
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
	"github.com/go-depgraph/depgraph/ps"
)

// PointsToResolver is the subset of ptranalysis.Solver the builder
// needs: the ability to ask what a pointer-subgraph node points to.
// Kept as an interface so rwgraph does not import ptranalysis (the
// dependency runs the other way: frontends drive both).
type PointsToResolver interface {
	PointsTo(id ps.NodeId) pointer.PointsToSet
}

// Options configures the Builder.
type Options struct {
	// FunctionModels extends or overrides fnmodel.Defaults() for
	// calls to functions with no PS subgraph of their own.
	FunctionModels fnmodel.Table
	// ConstOperand, if non-nil, resolves a PS CALL node's i'th
	// operand to a compile-time-constant offset.Offset (or
	// offset.Unknown), used to evaluate fnmodel.Bound.OfOperand.
	// A nil resolver treats every operand bound as Unknown.
	ConstOperand func(call ps.NodeId, operand int) offset.Offset
}

// Builder translates a pointer subgraph plus its solved points-to
// sets into a read-write graph (spec §4.2). One Builder handles one
// ps.Subgraph at a time; the resulting rwgraph.Subgraph has exactly
// one Block per PS node (a conservative, always-correct block shape:
// merging straight-line runs of nodes into larger blocks is a
// debug-dump nicety, not a soundness requirement).
type Builder struct {
	pg     *ps.Graph
	pts    PointsToResolver
	opts   Options
	models fnmodel.Table
	sink   diag.Sink

	out *Graph
}

// NewBuilder returns a Builder that reads from pg and pts and writes
// into a fresh Graph.
func NewBuilder(pg *ps.Graph, pts PointsToResolver, opts Options, sink diag.Sink) *Builder {
	models := opts.FunctionModels
	if models == nil {
		models = fnmodel.Defaults()
	}
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Builder{pg: pg, pts: pts, opts: opts, models: models, sink: sink, out: New()}
}

// Build runs the translation over every subgraph of pg and returns
// the resulting Graph.
func (b *Builder) Build() *Graph {
	for _, psg := range b.pg.Subgraphs() {
		b.buildSubgraph(psg)
	}
	return b.out
}

// psNodeSites resolves PS node id's points-to set into zero or more
// DefSites of the given access length, one per pointer in the set,
// falling back to the UNKNOWN_MEMORY/Unknown site when the set is
// empty (spec §4.2 step 2: "translate pointer operands into DefSites
// via the pointer-analysis result").
func (b *Builder) psNodeSites(id ps.NodeId, length offset.Offset) []DefSite {
	pts := b.pts.PointsTo(id)
	if pts.IsEmpty() {
		return []DefSite{{Target: NodeId(pointer.UnknownMemory), Offset: offset.Unknown, Len: offset.Unknown}}
	}
	var out []DefSite
	pts.ForEach(func(p pointer.Pointer) {
		out = append(out, DefSite{Target: NodeId(p.Target), Offset: p.Offset, Len: length})
	})
	return out
}

func (b *Builder) buildSubgraph(psg *ps.Subgraph) {
	sg := b.out.NewSubgraph(psg.Name())
	blockOf := make(map[ps.NodeId]BlockId)
	psNodeOf := make(map[ps.NodeId]NodeId)

	// Step 1: one RWG block per PS node, connected the way ps.Graph's
	// ControlPreds reports (spec §4.2 step 1: "translate frontend CFG
	// into RWG blocks").
	for _, id := range b.pg.Nodes(psg.Id()) {
		var blk BlockId
		if id == psg.Entry() {
			blk = sg.Entry()
		} else {
			blk = b.out.AddBlock(sg)
		}
		blockOf[id] = blk
	}
	for _, id := range b.pg.Nodes(psg.Id()) {
		for _, pred := range b.pg.ControlPreds(id) {
			b.out.Connect(blockOf[pred], blockOf[id])
		}
	}

	// Step 2-6: populate each block's node with its Defs/Overwrites/
	// Uses, consulting points-to results and the function model table.
	for _, id := range b.pg.Nodes(psg.Id()) {
		n := b.pg.Node(id)
		blk := blockOf[id]
		var rw NodeId
		switch n.Kind() {
		case ps.KindAlloc:
			rw = b.out.AddAlloc(blk)
		case ps.KindDynAlloc:
			rw = b.out.AddDynAlloc(blk)
		case ps.KindStore:
			rw = b.buildStore(blk, n)
		case ps.KindLoad:
			rw = b.buildLoad(blk, n)
		case ps.KindCall, ps.KindCallFuncPtr:
			rw = b.buildCall(blk, n)
		case ps.KindCallReturn:
			rw = b.out.AddCallReturn(blk)
		case ps.KindReturn:
			rw = b.buildReturn(blk, n)
		case ps.KindMemcpy:
			rw = b.buildMemcpy(blk, n)
		case ps.KindFree, ps.KindInvalidateObject:
			rw = b.buildInvalidate(blk, n)
		case ps.KindInvalidateLocals:
			rw = b.buildInvalidateLocals(blk, n)
		case ps.KindPhi:
			rw = b.out.AddPhi(blk)
		default:
			rw = b.out.AddNoop(blk)
		}
		b.out.SetPSNode(rw, id)
		psNodeOf[id] = rw
	}
}

func (b *Builder) buildStore(blk BlockId, n *ps.Node) NodeId {
	p := n.Operands()[1]
	sites := b.psNodeSites(p, estimateStoreLen(n))
	id := b.out.AddStore(blk)
	pts := b.pts.PointsTo(p)
	singleton, isSingleton := pts.IsSingleton()
	for _, d := range sites {
		if isSingleton && NodeId(singleton.Target) == d.Target && d.Target != NodeId(pointer.UnknownMemory) {
			b.out.AddOverwrite(id, d)
		} else {
			b.out.Node(id).defs.Add(d)
		}
	}
	return id
}

// estimateStoreLen reports the access length of a scalar store. The
// PS model (as built here) does not carry the stored type's width
// directly on the STORE node, so a conservative single-word guess is
// used; a frontend wanting byte-exact widths attaches them via
// UserData and a richer Builder can consult that instead.
func estimateStoreLen(n *ps.Node) offset.Offset {
	return offset.Offset(8)
}

func (b *Builder) buildLoad(blk BlockId, n *ps.Node) NodeId {
	p := n.Operands()[0]
	sites := b.psNodeSites(p, estimateStoreLen(n))
	id := b.out.AddLoad(blk, sites...)
	return id
}

func (b *Builder) buildReturn(blk BlockId, n *ps.Node) NodeId {
	var sites []DefSite
	for _, op := range n.Operands() {
		sites = append(sites, b.psNodeSites(op, offset.Unknown)...)
	}
	return b.out.AddReturn(blk, sites...)
}

// buildCall implements spec §4.2 steps 3-5: consult the function
// model table for a bodiless callee; fall back to a worst-case
// UNKNOWN_MEMORY read/write when the callee is unmodeled and has no
// PS subgraph of its own (its effects will instead arrive through
// memory-SSA's interprocedural call summary for subgraphed callees).
func (b *Builder) buildCall(blk BlockId, n *ps.Node) NodeId {
	callees := b.calleeSubgraphs(n)
	name, modeled := b.calleeModel(n)
	if !modeled {
		if len(callees) > 0 {
			// A call to a subgraph with a known body: leave Defs/
			// Uses empty here and let memssa's interprocedural
			// summary (spec §4.4 "Call handling") resolve its
			// effects precisely, instead of the worst-case
			// fallback reserved for genuinely unmodeled, bodiless
			// declarations.
			id := b.out.AddCall(blk, nil, nil)
			b.out.SetCallees(id, callees)
			return id
		}
		b.sink.Warn(diag.UnsupportedConstruct, n.String(), "call has no function model and no resolvable callee subgraph; assuming worst case")
		id := b.out.AddCall(blk, []DefSite{worstCaseSite()}, []DefSite{worstCaseSite()})
		return id
	}
	model := b.models[name]
	args := n.Operands()
	if n.Kind() == ps.KindCallFuncPtr {
		args = args[1:] // operand 0 is the callee pointer itself
	}
	resolveOperand := func(i int) offset.Offset {
		if b.opts.ConstOperand == nil || i >= len(args) {
			return offset.Unknown
		}
		return b.opts.ConstOperand(n.Id(), i)
	}
	var uses, defs []DefSite
	for _, r := range model.Uses {
		if r.Arg >= len(args) {
			continue
		}
		rng := r.Resolve(resolveOperand)
		uses = append(uses, b.psNodeSites(args[r.Arg], rng.Len())...)
	}
	for _, r := range model.Defines {
		if r.Arg >= len(args) {
			continue
		}
		rng := r.Resolve(resolveOperand)
		defs = append(defs, b.psNodeSites(args[r.Arg], rng.Len())...)
	}
	return b.out.AddCall(blk, uses, defs)
}

func worstCaseSite() DefSite {
	return DefSite{Target: NodeId(pointer.UnknownMemory), Offset: offset.Unknown, Len: offset.Unknown}
}

// calleeModel returns the matched function-model name for a direct
// call to a named, bodiless FUNCTION node. Indirect calls and calls
// to functions with their own PS subgraph are not modeled here: the
// former is resolved dynamically by the pointer analysis, the latter
// is handled by memory-SSA's own interprocedural summary.
func (b *Builder) calleeModel(n *ps.Node) (string, bool) {
	if n.Kind() != ps.KindCall {
		return "", false
	}
	for _, op := range n.Operands() {
		tn := b.pg.Node(op)
		if tn.Kind() == ps.KindFunction {
			if _, ok := b.models[tn.FunctionName()]; ok {
				return tn.FunctionName(), true
			}
		}
	}
	return "", false
}

// calleeSubgraphs resolves the PS subgraphs a Call/CallFuncPtr node
// may invoke, by following its paired CALL_RETURN's operand list: the
// frontend wires a direct callee's RETURN node in at construction
// time, and the pointer analysis' function-pointer callback
// (ptranalysis.FunctionPointerCallback) appends an indirect callee's
// RETURN node as it resolves call targets (ps.Graph.ConnectCallReturn).
// Since both ps.Graph and rwgraph.Graph allocate subgraphs in the same
// order the frontend visits them, a ps.SubgraphId and the
// corresponding rwgraph.SubgraphId are numerically identical.
func (b *Builder) calleeSubgraphs(n *ps.Node) []SubgraphId {
	callReturn := n.Paired()
	if callReturn == ps.NoNode {
		return nil
	}
	var out []SubgraphId
	seen := make(map[SubgraphId]bool)
	for _, op := range b.pg.Node(callReturn).Operands() {
		sg := SubgraphId(b.pg.Node(op).Subgraph())
		if sg == SubgraphId(ps.NoSubgraph) || seen[sg] {
			continue
		}
		seen[sg] = true
		out = append(out, sg)
	}
	return out
}

func (b *Builder) buildMemcpy(blk BlockId, n *ps.Node) NodeId {
	src, dst := n.Operands()[0], n.Operands()[1]
	_, length := n.MemcpyRange()
	uses := b.psNodeSites(src, length)
	defs := b.psNodeSites(dst, length)
	id := b.out.AddCall(blk, uses, defs)
	b.out.MarkPassthrough(id)
	return id
}

func (b *Builder) buildInvalidate(blk BlockId, n *ps.Node) NodeId {
	p := n.Operands()[0]
	sites := b.psNodeSites(p, offset.Unknown)
	return b.out.AddStore(blk, sites...)
}

// buildInvalidateLocals synthesizes an "overwrite at UNKNOWN" on
// every local (stack, non-escaping-by-construction) allocation live
// in n's subgraph, matching the function-return local-wipe behaviour
// spec §4.2 step 6 calls for.
func (b *Builder) buildInvalidateLocals(blk BlockId, n *ps.Node) NodeId {
	sg := n.Subgraph()
	var defs []DefSite
	for _, id := range b.pg.Nodes(sg) {
		an := b.pg.Node(id)
		if an.Kind() == ps.KindAlloc && !an.IsGlobal() {
			defs = append(defs, DefSite{Target: NodeId(id), Offset: offset.Unknown, Len: offset.Unknown})
		}
	}
	st := b.out.AddStore(blk)
	for _, d := range defs {
		b.out.AddOverwrite(st, d)
	}
	return st
}
