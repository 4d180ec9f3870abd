// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

// Options configures the memory-SSA engine (spec §4.4 and §7's
// knob table), mirroring ptranalysis.Options's single flat struct
// rather than functional options -- this corpus favours a plain
// struct wherever the caller is expected to read back the defaults.
type Options struct {
	// FieldInsensitive collapses every DefSite's offset/length to
	// "whole object" before it reaches the engine, trading precision
	// for a smaller definer-set blowup on heavily GEP'd aggregates.
	FieldInsensitive bool

	// StrongUpdateUnknown permits a write through the UnknownMemory
	// singleton to strong-kill prior definitions instead of merging
	// with them. It is unsound in general (UnknownMemory may alias
	// only a subset of what it's treated as replacing) and is
	// reported via diag.UnsoundFallback when exercised.
	StrongUpdateUnknown bool

	// UndefinedArePure treats a Call/CallFuncPtr node with no
	// resolvable callee subgraph as having no memory effects at all,
	// rather than the RWG builder's worst-case UnknownMemory
	// read/write fallback. Set for slicing workloads where conflating
	// every unresolved call is too coarse to be useful; left off by
	// default because it is unsound.
	UndefinedArePure bool

	// EntryFunction names an entry subgraph. The engine does not read
	// it: every query names its own RWG node or block, and
	// FindAllReachingDefinitions does not consult it.
	EntryFunction string
}
