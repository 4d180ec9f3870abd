// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ptranalysis implements the pointer analysis solver: a
// worklist fixpoint over a pointer subgraph (ps.Graph), in
// flow-insensitive, flow-sensitive and flow-sensitive-with-invalidation
// variants, all sharing one transfer-function implementation (spec
// §4.1).
package ptranalysis

import "github.com/go-depgraph/depgraph/offset"

// Variant selects which memory model the solver uses.
type Variant int

const (
	// FlowInsensitive keeps one memory map shared by every program
	// point.
	FlowInsensitive Variant = iota
	// FlowSensitive keeps a per-program-point memory map, but does
	// not process FREE (INVALIDATE_* still run when
	// TrackInvalidations is set).
	FlowSensitive
	// FlowSensitiveInvalidate is FlowSensitive plus FREE handling.
	FlowSensitiveInvalidate
)

// Options configures the solver, mirroring the recognised options of
// spec §6.1.
type Options struct {
	// MaxOffset caps the field-sensitivity bound: concrete offsets
	// at or beyond MaxOffset collapse to offset.Unknown. The zero
	// value, like offset.Unknown, means uncapped (New replaces 0 with
	// offset.Unknown).
	MaxOffset offset.Offset

	// TrackInvalidations enables the FREE / INVALIDATE_* transfer
	// functions. FREE additionally requires Variant ==
	// FlowSensitiveInvalidate (spec §4.1: "invalidation variant
	// only").
	TrackInvalidations bool

	// AlwaysUnknownOnMissing forces every missing-entry Load
	// fallback to UNKNOWN_MEMORY, even for zero-initialised
	// allocations where NULL would otherwise be used. This is the
	// "configurable" knob spec §4.1 calls out for the LOAD
	// transfer function.
	AlwaysUnknownOnMissing bool
}
