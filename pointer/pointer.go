// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pointer defines the Pointer and PointsToSet value types
// shared by the pointer subgraph, the pointer analysis solver and the
// read-write graph builder. It has no dependency on any particular
// node representation: NodeId is just an opaque small integer handed
// to it by the ps package.
package pointer

import (
	"fmt"
	"sort"

	"github.com/go-depgraph/depgraph/offset"
)

// NodeId identifies a pointer-subgraph node. It is a newtype over a
// small integer so that pointer sets can be represented as maps keyed
// by plain ints without exposing graph internals.
type NodeId uint32

// Reserved node ids, fixed across every graph container (DESIGN NOTES
// §9): rather than module-level singleton objects, NullAddr,
// UnknownMemory and Invalidated are well-known small ids that every
// ps.Graph allocates first.
const (
	NullAddr      NodeId = 0
	UnknownMemory NodeId = 1
	Invalidated   NodeId = 2
	FirstUserNode NodeId = 3
)

// Pointer is a (target, offset) pair: a pointer value that refers to
// byte offset Offset within the abstract memory object Target.
type Pointer struct {
	Target NodeId
	Offset offset.Offset
}

func (p Pointer) String() string {
	return fmt.Sprintf("(%d,%s)", p.Target, p.Offset)
}

// Less gives Pointer a total order, lexicographic on (Target,
// Offset), used to keep iteration order of derived sets stable
// (spec §5 determinism).
func (p Pointer) Less(q Pointer) bool {
	if p.Target != q.Target {
		return p.Target < q.Target
	}
	return p.Offset < q.Offset
}

// PointsToSet maps a target node to the set of offsets within it that
// may be pointed to. It maintains the absorbing-Unknown invariant: if
// Unknown is a member of a target's offset set, that is the target's
// only member.
type PointsToSet struct {
	m map[NodeId]map[offset.Offset]struct{}
}

// NewPointsToSet returns an empty points-to set.
func NewPointsToSet() PointsToSet {
	return PointsToSet{m: make(map[NodeId]map[offset.Offset]struct{})}
}

// IsEmpty reports whether the set has no members.
func (s PointsToSet) IsEmpty() bool {
	return len(s.m) == 0
}

// Add adds p to the set, enforcing the absorbing-Unknown invariant:
// adding an Unknown offset for a target clears any concrete offsets
// already recorded for it, and adding a concrete offset to a target
// that already has Unknown is a no-op.
func (s *PointsToSet) Add(p Pointer) {
	if s.m == nil {
		s.m = make(map[NodeId]map[offset.Offset]struct{})
	}
	offs, ok := s.m[p.Target]
	if ok {
		if _, unk := offs[offset.Unknown]; unk {
			return
		}
	}
	if p.Offset.IsUnknown() {
		s.m[p.Target] = map[offset.Offset]struct{}{offset.Unknown: {}}
		return
	}
	if !ok {
		offs = make(map[offset.Offset]struct{})
		s.m[p.Target] = offs
	}
	offs[p.Offset] = struct{}{}
}

// Merge unions other into s in place and reports whether s changed,
// which the pointer analysis worklist uses to decide whether to
// re-enqueue dependents.
func (s *PointsToSet) Merge(other PointsToSet) (changed bool) {
	for t, offs := range other.m {
		for o := range offs {
			p := Pointer{t, o}
			if s.Has(p) {
				continue
			}
			s.Add(p)
			changed = true
		}
	}
	return changed
}

func (s PointsToSet) offsetsFor(t NodeId) map[offset.Offset]struct{} {
	if s.m == nil {
		return nil
	}
	return s.m[t]
}

// Has reports whether p is a member of s, honoring the Unknown
// absorption rule (a target recorded with Unknown contains every
// offset).
func (s PointsToSet) Has(p Pointer) bool {
	offs := s.offsetsFor(p.Target)
	if offs == nil {
		return false
	}
	if _, ok := offs[offset.Unknown]; ok {
		return true
	}
	_, ok := offs[p.Offset]
	return ok
}

// HasTarget reports whether s contains any pointer into t.
func (s PointsToSet) HasTarget(t NodeId) bool {
	offs := s.offsetsFor(t)
	return len(offs) > 0
}

// Offsets returns the (sorted) offsets recorded for t.
func (s PointsToSet) Offsets(t NodeId) []offset.Offset {
	offs := s.offsetsFor(t)
	if len(offs) == 0 {
		return nil
	}
	out := make([]offset.Offset, 0, len(offs))
	for o := range offs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsSingleton reports whether s contains exactly one (target, offset)
// pair, and if so returns it. This drives the strong-update decision
// in the pointer analysis (spec §4.1) and in the read-write graph
// overwrite classification (spec §4.2).
func (s PointsToSet) IsSingleton() (Pointer, bool) {
	if len(s.m) != 1 {
		return Pointer{}, false
	}
	for t, offs := range s.m {
		if len(offs) != 1 {
			return Pointer{}, false
		}
		for o := range offs {
			return Pointer{t, o}, true
		}
	}
	return Pointer{}, false
}

// ForEach calls f for every pointer in s, in a stable (sorted) order.
func (s PointsToSet) ForEach(f func(Pointer)) {
	targets := make([]NodeId, 0, len(s.m))
	for t := range s.m {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	for _, t := range targets {
		for _, o := range s.Offsets(t) {
			f(Pointer{t, o})
		}
	}
}

// Len returns the total number of (target, offset) pairs in s.
func (s PointsToSet) Len() int {
	n := 0
	for _, offs := range s.m {
		n += len(offs)
	}
	return n
}

// Clone returns an independent copy of s.
func (s PointsToSet) Clone() PointsToSet {
	out := NewPointsToSet()
	s.ForEach(func(p Pointer) { out.Add(p) })
	return out
}

func (s PointsToSet) String() string {
	var ps []Pointer
	s.ForEach(func(p Pointer) { ps = append(ps, p) })
	return fmt.Sprint(ps)
}
