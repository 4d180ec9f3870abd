// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memssa implements the memory-SSA transformation (spec
// §4.4): an on-demand replacement for the dense reaching-definitions
// fixpoint (package reachdef) whose phi nodes are synthesised lazily,
// at the def-sites a query actually needs. It is the production
// engine; reachdef remains as the reference/cross-check baseline.
package memssa

import (
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/rwgraph"
)

// Def is one reaching definition: the byte range it covers and the
// RWG node that produced it. Unlike reachdef's plain DefSite, a Def
// always carries producer identity, because memssa's whole purpose is
// to answer "which node(s) does this use depend on" (spec §4.5's
// def-use edges need the producer, not just the covered range).
type Def struct {
	Target  rwgraph.NodeId
	Range   offset.Range
	Definer rwgraph.NodeId
}

func (d Def) coversByte(o offset.Offset) bool {
	if d.Range.From.IsUnknown() || d.Range.To.IsUnknown() || o.IsUnknown() {
		return true
	}
	return d.Range.From <= o && o < d.Range.To
}

// state is a block's per-engine-run build state (spec §4.4's state
// table): Unseen -> InLVN -> Finalised. finalizeBlock short-circuits
// only on Finalised: a predecessor edge looping back into a block
// still InLVN runs that block's LVN again in a nested call, and the
// cycle is closed by headFor's provisional phi at the merge; the
// outer run's tail is the one kept. A block's LVN can therefore run
// more than once.
type state int

const (
	stateUnseen state = iota
	stateInLVN
	stateFinalised
)

// blockState is the per-block "Definitions" summary of spec §4.4,
// narrowed to the granularity this port needs: a definer set per
// abstract target, not per sub-byte interval within a target (see
// DESIGN.md's definition-granularity entry -- no spec §8 scenario
// needs finer-than-target resolution, and spec §1 explicitly
// disclaims minimal phi placement). tail holds, for every target
// touched in or before this block, the RWG nodes that may have
// defined it by the time control leaves the block; successors consult
// this as their head state.
type blockState struct {
	state state
	tail  map[rwgraph.NodeId][]rdef

	allDefs []Def
	haveAll bool
}

// headKey identifies one (block, target) merge being resolved by GVN,
// used to detect a predecessor cycle reaching back into a merge still
// in progress -- the "place-phi-before-descend" discipline of DESIGN
// NOTES §9.
type headKey struct {
	block  rwgraph.BlockId
	target rwgraph.NodeId
}

// unionAppend returns a, extended with every element of b not already
// present, preserving a's order and appending new entries in b's
// order. Definer sets are small (handful of entries per target), so
// linear dedup beats a map here, matching pointer.PointsToSet's
// small-set discipline.
func unionAppend(a, b []rwgraph.NodeId) []rwgraph.NodeId {
	for _, n := range b {
		found := false
		for _, e := range a {
			if e == n {
				found = true
				break
			}
		}
		if !found {
			a = append(a, n)
		}
	}
	return a
}

func sameSet(a, b []rwgraph.NodeId) bool {
	if len(a) != len(b) {
		return false
	}
	for _, n := range a {
		found := false
		for _, m := range b {
			if n == m {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
