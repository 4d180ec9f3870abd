// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rwgraph implements the read-write graph (RWG): a
// per-function control-flow graph of read/write effects over
// abstract memory, populated from pointer-analysis results (spec
// §3.5, §4.2).
package rwgraph

import (
	"fmt"

	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/ps"
)

// NodeId identifies an RWG node. Like ps.NodeId it is a newtype over
// a small integer into the owning Graph's arena.
type NodeId uint32

// NoNode marks an absent optional NodeId.
const NoNode NodeId = ^NodeId(0)

// BlockId identifies a basic block within a subgraph.
type BlockId uint32

// NoBlock marks an absent optional BlockId.
const NoBlock BlockId = ^BlockId(0)

// SubgraphId identifies a function-level region of the RWG.
type SubgraphId uint32

// DefSite names a (possibly partial) write or read: the abstract
// memory object Target, the byte offset within it, and the access
// length (spec §3.5). Target normally identifies an Alloc/DynAlloc
// node or the UnknownMemory singleton.
type DefSite struct {
	Target NodeId
	Offset offset.Offset
	Len    offset.Offset
}

func (d DefSite) String() string {
	return fmt.Sprintf("%d%s", d.Target, offset.Range{From: d.Offset, To: d.Offset.Add(d.Len)})
}

// Overlaps reports whether d and other may refer to the same bytes of
// the same target.
func (d DefSite) Overlaps(other DefSite) bool {
	if d.Target != other.Target {
		return false
	}
	return offset.Overlaps(d.Offset, d.Len, other.Offset, other.Len)
}

// Covers reports whether d's range fully covers other's range (used
// for strong-kill classification in the dense reaching-definitions
// solver, spec §4.3).
func (d DefSite) Covers(other DefSite) bool {
	if d.Target != other.Target {
		return false
	}
	if d.Offset.IsUnknown() || d.Len.IsUnknown() {
		return true
	}
	if other.Offset.IsUnknown() || other.Len.IsUnknown() {
		return false
	}
	return d.Offset <= other.Offset && other.Offset.Add(other.Len) <= d.Offset.Add(d.Len)
}

// DefSiteSet is an unordered, deduplicated set of DefSites, kept
// small enough that a slice with linear dedup is the right
// representation (RWG nodes rarely have more than a handful).
type DefSiteSet []DefSite

func (s *DefSiteSet) Add(d DefSite) {
	for _, e := range *s {
		if e == d {
			return
		}
	}
	*s = append(*s, d)
}

func (s DefSiteSet) Contains(d DefSite) bool {
	for _, e := range s {
		if e == d {
			return true
		}
	}
	return false
}

// Kind is the RWG node variant tag.
type Kind int

const (
	KindAlloc Kind = iota
	KindDynAlloc
	KindStore
	KindLoad
	KindMu
	KindPhi
	KindCall
	KindCallReturn
	KindReturn
	KindFork
	KindJoin
	KindNoop
)

func (k Kind) String() string {
	switch k {
	case KindAlloc:
		return "ALLOC"
	case KindDynAlloc:
		return "DYN_ALLOC"
	case KindStore:
		return "STORE"
	case KindLoad:
		return "LOAD"
	case KindMu:
		return "MU"
	case KindPhi:
		return "PHI"
	case KindCall:
		return "CALL"
	case KindCallReturn:
		return "CALL_RETURN"
	case KindReturn:
		return "RETURN"
	case KindFork:
		return "FORK"
	case KindJoin:
		return "JOIN"
	case KindNoop:
		return "NOOP"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is one vertex of the read-write graph.
type Node struct {
	id       NodeId
	kind     Kind
	block    BlockId
	subgraph SubgraphId

	defs       DefSiteSet
	overwrites DefSiteSet
	uses       DefSiteSet

	// psNode is the pointer-subgraph node that produced this RWG
	// node, if any (e.g. a Load/Store pairs 1:1 with a ps.Load/
	// ps.Store; a Phi synthesised later by memory-SSA has none).
	psNode    ps.NodeId
	hasPSNode bool

	// callees are the subgraphs a Call/CallReturn node may invoke,
	// resolved from the pointer subgraph's CALL_RETURN operand
	// chain (direct calls: one entry, wired at PS construction;
	// indirect calls: grows as the pointer analysis resolves more
	// targets). Consulted by memssa's interprocedural call handling
	// (spec §4.4 "Call handling").
	callees []SubgraphId

	// passthrough marks a node (MEMCPY's Call-shaped RWG
	// translation) whose Defs should be attributed to whatever
	// currently defines its Uses, rather than to the node itself --
	// spec §4.1's memcpy transfer function is itself a copy, not an
	// origination, of the pointed-to values.
	passthrough bool
}

func (n *Node) Id() NodeId           { return n.id }
func (n *Node) Kind() Kind           { return n.kind }
func (n *Node) Block() BlockId       { return n.block }
func (n *Node) Subgraph() SubgraphId { return n.subgraph }
func (n *Node) Defs() DefSiteSet       { return n.defs }
func (n *Node) Overwrites() DefSiteSet { return n.overwrites }
func (n *Node) Uses() DefSiteSet       { return n.uses }

// PSNode returns the producing pointer-analysis node, if any.
func (n *Node) PSNode() (ps.NodeId, bool) { return n.psNode, n.hasPSNode }

// Callees returns the subgraphs this Call/CallReturn node may invoke.
func (n *Node) Callees() []SubgraphId { return n.callees }

// IsPassthrough reports whether n's Defs should be attributed to
// whatever defines its Uses (see the passthrough field).
func (n *Node) IsPassthrough() bool { return n.passthrough }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.kind, n.id)
}
