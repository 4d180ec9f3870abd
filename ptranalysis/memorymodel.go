// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptranalysis

import (
	"github.com/go-depgraph/depgraph/memobj"
	"github.com/go-depgraph/depgraph/pointer"
	"github.com/go-depgraph/depgraph/ps"
)

// memoryModel abstracts over the three solver variants' handling of
// "where is the memory map for this read/write". The flow-insensitive
// variant has exactly one; the flow-sensitive variants have one per
// program point, propagated along ps.Graph.ControlPreds.
type memoryModel interface {
	// objectForRead returns the memory object visible to node `at`
	// for target t, creating an empty one if needed. It must not be
	// mutated.
	objectForRead(at ps.NodeId, t pointer.NodeId, heap, zeroInit bool) *memobj.MemoryObject
	// objectForWrite is like objectForRead but returns an object
	// that is safe to mutate in place (copy-on-write already
	// applied).
	objectForWrite(at ps.NodeId, t pointer.NodeId, heap, zeroInit bool) *memobj.MemoryObject
	// visibleObjects returns every memory object visible to node
	// `at`, for INVALIDATE_LOCALS.
	visibleObjects(at ps.NodeId) []*memobj.MemoryObject
	// advance propagates state from at's control predecessors into
	// at's own slot, if this variant tracks per-point state. It
	// must be called before objectForRead/objectForWrite for at.
	// It reports nothing back; the worklist re-enqueues based on
	// points-to changes and object readers, not memory-map merges.
	advance(g *ps.Graph, at ps.NodeId)
}

// flowInsensitiveModel is one MemoryMap shared by the whole graph.
type flowInsensitiveModel struct {
	mm *memobj.MemoryMap
}

func newFlowInsensitiveModel() *flowInsensitiveModel {
	return &flowInsensitiveModel{mm: memobj.NewMemoryMap()}
}

func (m *flowInsensitiveModel) objectForRead(_ ps.NodeId, t pointer.NodeId, heap, zeroInit bool) *memobj.MemoryObject {
	return m.mm.GetOrCreate(t, heap, zeroInit)
}

func (m *flowInsensitiveModel) objectForWrite(_ ps.NodeId, t pointer.NodeId, heap, zeroInit bool) *memobj.MemoryObject {
	return m.mm.ForWrite(t, heap, zeroInit)
}

func (m *flowInsensitiveModel) visibleObjects(ps.NodeId) []*memobj.MemoryObject {
	var out []*memobj.MemoryObject
	for _, n := range m.mm.Nodes() {
		obj, _ := m.mm.Get(n)
		out = append(out, obj)
	}
	return out
}

func (m *flowInsensitiveModel) advance(*ps.Graph, ps.NodeId) {}

// flowSensitiveModel keeps one MemoryMap per program point, merged
// lazily from ps.Graph.ControlPreds (spec §4.1: "maintains a
// MemoryMap per program point: merged from predecessors lazily,
// cloned at merge points or at stores ... shared otherwise").
type flowSensitiveModel struct {
	at map[ps.NodeId]*memobj.MemoryMap
}

func newFlowSensitiveModel() *flowSensitiveModel {
	return &flowSensitiveModel{at: make(map[ps.NodeId]*memobj.MemoryMap)}
}

func (m *flowSensitiveModel) stateAt(at ps.NodeId) *memobj.MemoryMap {
	mm, ok := m.at[at]
	if !ok {
		mm = memobj.NewMemoryMap()
		m.at[at] = mm
	}
	return mm
}

func (m *flowSensitiveModel) advance(g *ps.Graph, at ps.NodeId) {
	preds := g.ControlPreds(at)
	if len(preds) == 0 {
		m.stateAt(at) // ensure an (empty) entry exists
		return
	}
	if len(preds) == 1 {
		pred := m.stateAt(preds[0])
		// Single predecessor: share directly (copy-on-write clone
		// happens lazily the first time this point writes).
		m.at[at] = pred.Clone()
		return
	}
	merged := memobj.NewMemoryMap()
	for _, p := range preds {
		merged.MergeFrom(m.stateAt(p))
	}
	m.at[at] = merged
}

func (m *flowSensitiveModel) objectForRead(at ps.NodeId, t pointer.NodeId, heap, zeroInit bool) *memobj.MemoryObject {
	return m.stateAt(at).GetOrCreate(t, heap, zeroInit)
}

func (m *flowSensitiveModel) objectForWrite(at ps.NodeId, t pointer.NodeId, heap, zeroInit bool) *memobj.MemoryObject {
	return m.stateAt(at).ForWrite(t, heap, zeroInit)
}

func (m *flowSensitiveModel) visibleObjects(at ps.NodeId) []*memobj.MemoryObject {
	mm := m.stateAt(at)
	var out []*memobj.MemoryObject
	for _, n := range mm.Nodes() {
		obj, _ := mm.Get(n)
		out = append(out, obj)
	}
	return out
}
