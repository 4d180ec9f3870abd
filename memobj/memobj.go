// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memobj implements the memory object store: a per-allocation
// map from offset to PointsToSet, used by the pointer analysis solver
// to represent the current contents of memory. A MemoryObject models
// one abstract allocation; a MemoryMap models the whole heap at one
// program point (one per program point in the flow-sensitive solver
// variants; the flow-insensitive variant keeps a single global
// MemoryMap).
package memobj

import (
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
)

// MemoryObject is the offset -> PointsToSet map for one abstract
// allocation site.
type MemoryObject struct {
	Node     pointer.NodeId // the ps.Node (Alloc/DynAlloc) this object summarises
	Heap     bool           // disqualifies strong update (spec §4.1)
	ZeroInit bool           // drives the Load fallback value

	offsets map[offset.Offset]pointer.PointsToSet
	unknown pointer.PointsToSet // writes at an unknown offset; may alias any concrete offset
}

// New returns an empty memory object for the given allocation node.
func New(node pointer.NodeId, heap, zeroInit bool) *MemoryObject {
	return &MemoryObject{Node: node, Heap: heap, ZeroInit: zeroInit}
}

// Clone returns an independent deep copy of m.
func (m *MemoryObject) Clone() *MemoryObject {
	out := &MemoryObject{Node: m.Node, Heap: m.Heap, ZeroInit: m.ZeroInit, unknown: m.unknown.Clone()}
	if len(m.offsets) > 0 {
		out.offsets = make(map[offset.Offset]pointer.PointsToSet, len(m.offsets))
		for o, pts := range m.offsets {
			out.offsets[o] = pts.Clone()
		}
	}
	return out
}

// Load reads the memory object at offset o. If o is offset.Unknown,
// every concrete offset's contents (plus anything ever written at an
// unknown offset) is unioned together, per spec §4.1's "if o = UNKNOWN,
// all offsets of M(t) contribute". hasEntry is false when nothing has
// ever been written to the read range, letting the caller apply the
// configurable fallback (NULL for zero-initialised memory, or
// UNKNOWN_MEMORY otherwise).
func (m *MemoryObject) Load(o offset.Offset) (result pointer.PointsToSet, hasEntry bool) {
	if o.IsUnknown() {
		var out pointer.PointsToSet
		any := false
		for _, pts := range m.offsets {
			out.Merge(pts)
			any = true
		}
		if !m.unknown.IsEmpty() {
			out.Merge(m.unknown)
			any = true
		}
		return out, any
	}
	var out pointer.PointsToSet
	any := false
	if pts, ok := m.offsets[o]; ok {
		out.Merge(pts)
		any = true
	}
	if !m.unknown.IsEmpty() {
		// A prior write at an unknown offset may have landed here.
		out.Merge(m.unknown)
		any = true
	}
	return out, any
}

// Store writes v into the memory object at offset o. If o is
// offset.Unknown the write is recorded as aliasing every offset
// (spec §4.1's "write P(v) into M(t)[o]" generalised to an unknown
// destination) and is always weak, regardless of the strong
// parameter -- an unknown destination can never be a must-write.
// Strong updates replace the prior contents at a concrete offset;
// weak updates merge with them.
func (m *MemoryObject) Store(o offset.Offset, v pointer.PointsToSet, strong bool) (changed bool) {
	if o.IsUnknown() {
		return m.unknown.Merge(v)
	}
	if m.offsets == nil {
		m.offsets = make(map[offset.Offset]pointer.PointsToSet)
	}
	prev, had := m.offsets[o]
	if strong {
		if had && pointsToEqual(prev, v) {
			return false
		}
		m.offsets[o] = v.Clone()
		return true
	}
	changed = prev.Merge(v)
	m.offsets[o] = prev
	return changed
}

// Invalidate unions pointer.Invalidated into every offset that may be
// touched by a free/lifetime-end of this object, per FREE's transfer
// function (spec §4.1): "union INVALIDATED into M(t) at UNKNOWN for
// every t in P(p)".
func (m *MemoryObject) Invalidate() (changed bool) {
	var inv pointer.PointsToSet
	inv.Add(pointer.Pointer{Target: pointer.Invalidated, Offset: offset.Unknown})
	return m.unknown.Merge(inv)
}

// ForEachOffset calls f for every concrete offset with recorded
// contents, in ascending order (determinism, spec §5).
func (m *MemoryObject) ForEachOffset(f func(offset.Offset, pointer.PointsToSet)) {
	offs := make([]offset.Offset, 0, len(m.offsets))
	for o := range m.offsets {
		offs = append(offs, o)
	}
	sortOffsets(offs)
	for _, o := range offs {
		f(o, m.offsets[o])
	}
}

func sortOffsets(offs []offset.Offset) {
	for i := 1; i < len(offs); i++ {
		for j := i; j > 0 && offs[j-1] > offs[j]; j-- {
			offs[j-1], offs[j] = offs[j], offs[j-1]
		}
	}
}

func pointsToEqual(a, b pointer.PointsToSet) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.ForEach(func(p pointer.Pointer) {
		if !b.Has(p) {
			equal = false
		}
	})
	return equal
}
