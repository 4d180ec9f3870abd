// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwgraph

import (
	"fmt"

	"github.com/go-depgraph/depgraph/ps"
)

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Block is an ordered sequence of RWG nodes sharing one straight-line
// control path: no node in the middle of a block can be a branch
// target or have more than one successor.
type Block struct {
	id       BlockId
	subgraph SubgraphId
	nodes    []NodeId
	preds    []BlockId
	succs    []BlockId
}

func (b *Block) Id() BlockId          { return b.id }
func (b *Block) Subgraph() SubgraphId { return b.subgraph }
func (b *Block) Nodes() []NodeId      { return b.nodes }
func (b *Block) Preds() []BlockId     { return b.preds }
func (b *Block) Succs() []BlockId     { return b.succs }

// Subgraph is the read-write graph of a single function.
type Subgraph struct {
	id     SubgraphId
	name   string
	blocks []BlockId
	entry  BlockId
}

func (s *Subgraph) Id() SubgraphId   { return s.id }
func (s *Subgraph) Name() string     { return s.name }
func (s *Subgraph) Blocks() []BlockId { return s.blocks }
func (s *Subgraph) Entry() BlockId   { return s.entry }

// Graph is the arena-allocated container for every RWG node and block,
// across every subgraph (function), mirroring ps.Graph's allocation
// discipline (spec DESIGN NOTES §9: index-based, not pointer-based,
// in the production of the graph; this in-memory form keeps Go
// pointers for simplicity since it is not itself serialized).
type Graph struct {
	nodes     []Node
	blocks    []Block
	subgraphs []*Subgraph
	noCopy    noCopy
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{}
}

func (g *Graph) NumNodes() int { return len(g.nodes) }

func (g *Graph) NumBlocks() int { return len(g.blocks) }

func (g *Graph) Node(id NodeId) *Node {
	if int(id) >= len(g.nodes) {
		panic(fmt.Sprintf("rwgraph: node id %d out of range (have %d nodes)", id, len(g.nodes)))
	}
	return &g.nodes[id]
}

func (g *Graph) Block(id BlockId) *Block {
	if int(id) >= len(g.blocks) {
		panic(fmt.Sprintf("rwgraph: block id %d out of range (have %d blocks)", id, len(g.blocks)))
	}
	return &g.blocks[id]
}

func (g *Graph) Subgraphs() []*Subgraph { return g.subgraphs }

// NewSubgraph starts a new function-level subgraph with a single,
// empty entry block.
func (g *Graph) NewSubgraph(name string) *Subgraph {
	sg := &Subgraph{id: SubgraphId(len(g.subgraphs)), name: name}
	entry := g.newBlock(sg.id)
	sg.entry = entry
	sg.blocks = append(sg.blocks, entry)
	g.subgraphs = append(g.subgraphs, sg)
	return sg
}

func (g *Graph) newBlock(sg SubgraphId) BlockId {
	id := BlockId(len(g.blocks))
	g.blocks = append(g.blocks, Block{id: id, subgraph: sg})
	return id
}

// AddBlock appends a fresh, unconnected block to sg.
func (g *Graph) AddBlock(sg *Subgraph) BlockId {
	b := g.newBlock(sg.id)
	sg.blocks = append(sg.blocks, b)
	return b
}

// Connect records a control-flow edge from -> to. Both blocks must
// belong to the same subgraph.
func (g *Graph) Connect(from, to BlockId) {
	fb := g.Block(from)
	tb := g.Block(to)
	fb.succs = append(fb.succs, to)
	tb.preds = append(tb.preds, from)
}

func (g *Graph) alloc(n Node) NodeId {
	id := NodeId(len(g.nodes))
	n.id = id
	g.nodes = append(g.nodes, n)
	blk := g.Block(n.block)
	blk.nodes = append(blk.nodes, id)
	return id
}

func (g *Graph) addNode(block BlockId, kind Kind) NodeId {
	return g.alloc(Node{kind: kind, block: block, subgraph: g.Block(block).subgraph})
}

// AddAlloc adds a static-allocation site node to block.
func (g *Graph) AddAlloc(block BlockId) NodeId { return g.addNode(block, KindAlloc) }

// AddDynAlloc adds a dynamic (heap) allocation site node to block.
func (g *Graph) AddDynAlloc(block BlockId) NodeId { return g.addNode(block, KindDynAlloc) }

// AddStore adds a write node to block with the given defined ranges.
func (g *Graph) AddStore(block BlockId, defs ...DefSite) NodeId {
	id := g.addNode(block, KindStore)
	n := g.Node(id)
	for _, d := range defs {
		n.defs.Add(d)
	}
	return id
}

// AddLoad adds a read node to block with the given used ranges.
func (g *Graph) AddLoad(block BlockId, uses ...DefSite) NodeId {
	id := g.addNode(block, KindLoad)
	n := g.Node(id)
	for _, u := range uses {
		n.uses.Add(u)
	}
	return id
}

// AddMu adds a MU node: a synthetic use injected at a call or return
// boundary to anchor interprocedural liveness (spec §4.2 step 3).
func (g *Graph) AddMu(block BlockId, uses ...DefSite) NodeId {
	id := g.addNode(block, KindMu)
	n := g.Node(id)
	for _, u := range uses {
		n.uses.Add(u)
	}
	return id
}

// AddPhi adds a memory phi placeholder; memory-SSA fills in its
// operands, so the RWG layer itself carries none.
func (g *Graph) AddPhi(block BlockId) NodeId { return g.addNode(block, KindPhi) }

// AddCall adds a call-site node with the given used ranges (actual
// argument reads) and defined ranges (worst-case or modeled writes
// through pointer arguments, per the function-model table).
func (g *Graph) AddCall(block BlockId, uses, defs []DefSite) NodeId {
	id := g.addNode(block, KindCall)
	n := g.Node(id)
	for _, u := range uses {
		n.uses.Add(u)
	}
	for _, d := range defs {
		n.defs.Add(d)
	}
	return id
}

// AddCallReturn adds the node pairing with a preceding Call, through
// which the callee's defined memory becomes visible to the caller.
func (g *Graph) AddCallReturn(block BlockId) NodeId { return g.addNode(block, KindCallReturn) }

// AddReturn adds a function-return node, used at a Return in the RWG.
func (g *Graph) AddReturn(block BlockId, uses ...DefSite) NodeId {
	id := g.addNode(block, KindReturn)
	n := g.Node(id)
	for _, u := range uses {
		n.uses.Add(u)
	}
	return id
}

// AddFork and AddJoin model thread creation/join boundaries (spec
// Supplemented Features, grounded on ThreadRegions/ in original_source).
func (g *Graph) AddFork(block BlockId) NodeId { return g.addNode(block, KindFork) }
func (g *Graph) AddJoin(block BlockId) NodeId { return g.addNode(block, KindJoin) }

// AddNoop adds a placeholder node with no effect.
func (g *Graph) AddNoop(block BlockId) NodeId { return g.addNode(block, KindNoop) }

// AddOverwrite records that node id fully overwrites def (a strong
// write classification decided by the builder after consulting
// pointer-analysis singleton information, spec §4.2 step 3).
func (g *Graph) AddOverwrite(id NodeId, def DefSite) {
	g.Node(id).overwrites.Add(def)
	g.Node(id).defs.Add(def)
}

// SetPSNode records which pointer-subgraph node produced RWG node id.
func (g *Graph) SetPSNode(id NodeId, psNode ps.NodeId) {
	n := g.Node(id)
	n.psNode = psNode
	n.hasPSNode = true
}

// SetCallees records the subgraphs a Call/CallFuncPtr-derived node may
// invoke, resolved by the builder from the pointer subgraph's
// CALL_RETURN operand chain.
func (g *Graph) SetCallees(id NodeId, callees []SubgraphId) {
	g.Node(id).callees = callees
}

// MarkPassthrough marks id (a MEMCPY-derived Call node) as a
// passthrough node for memssa's def attribution (spec §4.1's memcpy
// transfer function copies rather than originates values).
func (g *Graph) MarkPassthrough(id NodeId) {
	g.Node(id).passthrough = true
}

// PrependPhi adds a memory-SSA-synthesised Phi node to the head of
// block, ahead of every node already present, so that the new phi is
// visible to the rest of the block's local value numbering as though
// it had always been there. Used only by package memssa.
func (g *Graph) PrependPhi(block BlockId) NodeId {
	id := NodeId(len(g.nodes))
	n := Node{id: id, kind: KindPhi, block: block, subgraph: g.Block(block).subgraph}
	g.nodes = append(g.nodes, n)
	blk := g.Block(block)
	blk.nodes = append([]NodeId{id}, blk.nodes...)
	return id
}

// SetPhiDef records that a memory-SSA-synthesised Phi node id is
// itself a (weak) definition of def.Target, covering def's range.
// Used only by package memssa.
func (g *Graph) SetPhiDef(id NodeId, def DefSite) {
	g.Node(id).defs.Add(def)
}
