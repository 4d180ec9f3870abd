// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memobj

import (
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
)

// MemoryMap is the collection of MemoryObjects visible at one
// analysis point: the whole heap for the flow-insensitive solver, or
// the per-program-point snapshot for the flow-sensitive ones. Per the
// flow-sensitive fixpoint discipline (spec §4.1), a MemoryMap is
// "cloned at merge points or at stores (for strong update), shared
// otherwise" -- ForWrite implements that copy-on-write rule.
type MemoryMap struct {
	objects map[pointer.NodeId]*MemoryObject
	owned   map[pointer.NodeId]bool
}

// NewMemoryMap returns an empty map.
func NewMemoryMap() *MemoryMap {
	return &MemoryMap{
		objects: make(map[pointer.NodeId]*MemoryObject),
		owned:   make(map[pointer.NodeId]bool),
	}
}

// Get returns the memory object for node, if one has been created.
func (mm *MemoryMap) Get(node pointer.NodeId) (*MemoryObject, bool) {
	obj, ok := mm.objects[node]
	return obj, ok
}

// GetOrCreate returns the memory object for node, creating (and
// taking exclusive ownership of) an empty one if none exists yet.
func (mm *MemoryMap) GetOrCreate(node pointer.NodeId, heap, zeroInit bool) *MemoryObject {
	if obj, ok := mm.objects[node]; ok {
		return obj
	}
	obj := New(node, heap, zeroInit)
	mm.objects[node] = obj
	mm.owned[node] = true
	return obj
}

// ForWrite returns a memory object for node that is safe to mutate in
// place: if the map does not yet exclusively own the object for node
// (e.g. it was inherited, unmodified, from a Clone), it is cloned
// first. Callers must go through ForWrite before calling Store or
// Invalidate.
func (mm *MemoryMap) ForWrite(node pointer.NodeId, heap, zeroInit bool) *MemoryObject {
	obj, ok := mm.objects[node]
	if !ok {
		return mm.GetOrCreate(node, heap, zeroInit)
	}
	if mm.owned[node] {
		return obj
	}
	clone := obj.Clone()
	mm.objects[node] = clone
	mm.owned[node] = true
	return clone
}

// Clone returns a new MemoryMap that shares every MemoryObject with
// mm (copy-on-write: after Clone, neither map exclusively owns a
// shared object any more, so the first write on either side clones
// independently before mutating).
func (mm *MemoryMap) Clone() *MemoryMap {
	out := &MemoryMap{
		objects: make(map[pointer.NodeId]*MemoryObject, len(mm.objects)),
		owned:   make(map[pointer.NodeId]bool, len(mm.objects)),
	}
	for node, obj := range mm.objects {
		out.objects[node] = obj
		mm.owned[node] = false
	}
	return out
}

// MergeFrom unions every object in other into mm (a CFG-join step)
// and reports whether mm changed.
func (mm *MemoryMap) MergeFrom(other *MemoryMap) (changed bool) {
	for node, src := range other.objects {
		dstExisting, ok := mm.objects[node]
		if !ok {
			mm.objects[node] = src
			mm.owned[node] = false
			other.owned[node] = false
			changed = true
			continue
		}
		if dstExisting == src {
			continue
		}
		dst := mm.ForWrite(node, src.Heap, src.ZeroInit)
		var any bool
		src.ForEachOffset(func(o offset.Offset, pts pointer.PointsToSet) {
			if dst.Store(o, pts, false) {
				any = true
			}
		})
		if !src.unknown.IsEmpty() {
			if dst.unknown.Merge(src.unknown) {
				any = true
			}
		}
		if any {
			changed = true
		}
	}
	return changed
}

// Nodes returns the allocation-site node ids with a memory object in
// mm, in a stable (ascending) order for deterministic iteration.
func (mm *MemoryMap) Nodes() []pointer.NodeId {
	out := make([]pointer.NodeId, 0, len(mm.objects))
	for node := range mm.objects {
		out = append(out, node)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
