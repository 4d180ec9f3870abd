// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ps

import (
	"fmt"

	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
)

// NodeId identifies a node within a Graph. It is shared with the
// pointer package so that points-to sets can refer to PS nodes
// without that package knowing anything about PS internals.
type NodeId = pointer.NodeId

// NoNode is the zero value used in optional NodeId fields (such as
// Node.Paired) to mean "no such node". It is distinct from the three
// reserved singletons.
const NoNode NodeId = ^NodeId(0)

// SubgraphId identifies one function-level subgraph within a Graph.
type SubgraphId uint32

// NoSubgraph marks nodes (the three singletons) that do not belong to
// any function subgraph.
const NoSubgraph SubgraphId = ^SubgraphId(0)

// Kind is the tag of a pointer-subgraph node, corresponding to the
// variant table in the data model.
type Kind int

const (
	KindNullAddr Kind = iota
	KindUnknownMem
	KindInvalidated
	KindAlloc
	KindDynAlloc
	KindFunction
	KindLoad
	KindStore
	KindGep
	KindCast
	KindPhi
	KindCall
	KindCallFuncPtr
	KindCallReturn
	KindEntry
	KindReturn
	KindNoop
	KindConstant
	KindMemcpy
	KindFree
	KindInvalidateLocals
	KindInvalidateObject
)

func (k Kind) String() string {
	switch k {
	case KindNullAddr:
		return "NULL_ADDR"
	case KindUnknownMem:
		return "UNKNOWN_MEM"
	case KindInvalidated:
		return "INVALIDATED"
	case KindAlloc:
		return "ALLOC"
	case KindDynAlloc:
		return "DYN_ALLOC"
	case KindFunction:
		return "FUNCTION"
	case KindLoad:
		return "LOAD"
	case KindStore:
		return "STORE"
	case KindGep:
		return "GEP"
	case KindCast:
		return "CAST"
	case KindPhi:
		return "PHI"
	case KindCall:
		return "CALL"
	case KindCallFuncPtr:
		return "CALL_FUNCPTR"
	case KindCallReturn:
		return "CALL_RETURN"
	case KindEntry:
		return "ENTRY"
	case KindReturn:
		return "RETURN"
	case KindNoop:
		return "NOOP"
	case KindConstant:
		return "CONSTANT"
	case KindMemcpy:
		return "MEMCPY"
	case KindFree:
		return "FREE"
	case KindInvalidateLocals:
		return "INVALIDATE_LOCALS"
	case KindInvalidateObject:
		return "INVALIDATE_OBJECT"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsAllocation reports whether k is one of the node kinds that stands
// for an abstract memory object (an allocation site).
func (k Kind) IsAllocation() bool {
	switch k {
	case KindAlloc, KindDynAlloc, KindFunction:
		return true
	}
	return false
}

// Node is one vertex of the pointer subgraph. The fields used depend
// on Kind; see the accessors below for the kind-specific payload.
// Node deliberately has no methods that mutate shared state — all
// mutation goes through Graph so the owning container can maintain
// invariants (e.g. allocation nodes pointing to themselves).
type Node struct {
	id       NodeId
	kind     Kind
	subgraph SubgraphId
	operands []NodeId
	paired   NodeId
	pointsTo pointer.PointsToSet
	userData interface{}

	// Kind-specific payload.
	size      int64         // Alloc, DynAlloc
	global    bool          // Alloc: true for a global, false for a stack allocation
	zeroInit  bool          // DynAlloc
	gepOffset offset.Offset // Gep
	mcOffset  offset.Offset // Memcpy
	mcLen     offset.Offset // Memcpy
	name      string        // Function
}

// Id returns the node's stable identifier.
func (n *Node) Id() NodeId { return n.id }

// Kind returns the node's variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Subgraph returns the id of the function subgraph this node belongs
// to, or NoSubgraph for the three cross-subgraph singletons.
func (n *Node) Subgraph() SubgraphId { return n.subgraph }

// Operands returns the node's operand list. Order matters (e.g. Phi
// operand order corresponds to predecessor order).
func (n *Node) Operands() []NodeId { return n.operands }

// Paired returns the id of the node's paired counterpart (CALL <->
// CALL_RETURN), or NoNode if n is not a call-shaped node.
func (n *Node) Paired() NodeId { return n.paired }

// PointsTo returns the node's current points-to set. The returned
// value shares its storage with the node's, so mutating it changes
// the node; use Graph.MergePointsTo/SetPointsTo instead.
func (n *Node) PointsTo() pointer.PointsToSet { return n.pointsTo }

// UserData returns the frontend-supplied opaque payload attached to
// this node, if any.
func (n *Node) UserData() interface{} { return n.userData }

// Size returns the allocation size of an Alloc/DynAlloc node.
func (n *Node) Size() int64 { return n.size }

// ZeroInitialized reports whether a DynAlloc node is known to be
// zero-initialized (affects the Load fallback value, spec §4.1).
func (n *Node) ZeroInitialized() bool { return n.zeroInit }

// IsGlobal reports whether an Alloc node is a global, as opposed to a
// stack allocation. Only stack allocations are invalidated by
// INVALIDATE_LOCALS.
func (n *Node) IsGlobal() bool { return n.global }

// IsHeap reports whether this allocation-like node disqualifies
// strong update because it may summarise more than one concrete
// runtime object (spec §4.1: heap allocations are never must-point-to).
func (n *Node) IsHeap() bool { return n.kind == KindDynAlloc }

// GepOffset returns the offset delta of a Gep node.
func (n *Node) GepOffset() offset.Offset { return n.gepOffset }

// MemcpyRange returns the (offset, length) operated on by a Memcpy
// node, relative to both its source and destination operands.
func (n *Node) MemcpyRange() (off, length offset.Offset) { return n.mcOffset, n.mcLen }

// FunctionName returns the symbol name of a Function node.
func (n *Node) FunctionName() string { return n.name }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.kind, n.id)
}
