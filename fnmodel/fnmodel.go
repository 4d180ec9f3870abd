// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fnmodel implements the function model table (spec §3.6):
// per-name declarations of which byte ranges of which arguments a
// library function (memcpy, memset, strcpy, ...) defines and uses,
// for functions that have no body for the read-write graph builder or
// memory-SSA call handling to analyze directly.
package fnmodel

import "github.com/go-depgraph/depgraph/offset"

// Bound is either a literal offset or "the constant value of operand
// i", resolved against a particular call site by the caller (which
// alone knows how to read a constant argument value out of its IR).
type Bound struct {
	Literal  offset.Offset
	IsOperand bool
	Operand   int
}

// Lit returns a literal bound.
func Lit(o offset.Offset) Bound { return Bound{Literal: o} }

// OfOperand returns a bound equal to the constant value of the call's
// i'th actual argument (0-based).
func OfOperand(i int) Bound { return Bound{IsOperand: true, Operand: i} }

// Resolve evaluates b against a call site, using resolveOperand to
// read a constant argument's value (resolveOperand should return
// offset.Unknown if the argument isn't a compile-time constant).
func (b Bound) Resolve(resolveOperand func(i int) offset.Offset) offset.Offset {
	if !b.IsOperand {
		return b.Literal
	}
	return resolveOperand(b.Operand)
}

// Range is a (From, To) byte range within one of the call's pointer
// arguments.
type Range struct {
	Arg      int // which argument's pointee this range is relative to
	From, To Bound
}

// Resolve evaluates r's bounds against a call site.
func (r Range) Resolve(resolveOperand func(i int) offset.Offset) offset.Range {
	return offset.Range{From: r.From.Resolve(resolveOperand), To: r.To.Resolve(resolveOperand)}
}

// Model is the defines/uses contract of one declared (bodiless)
// function, keyed by name in a Table.
type Model struct {
	Defines []Range
	Uses    []Range
}

// Table maps function name to its Model.
type Table map[string]Model

// Defaults returns the function models for memcpy, memmove, memset,
// strcpy, strncpy and strlen, plus effect-free entries for calloc,
// malloc and free.
// Callers extend or override this table via their own Options.FunctionModels.
func Defaults() Table {
	return Table{
		"memcpy": {
			Defines: []Range{{Arg: 0, From: Lit(0), To: OfOperand(2)}},
			Uses:    []Range{{Arg: 1, From: Lit(0), To: OfOperand(2)}},
		},
		"memmove": {
			Defines: []Range{{Arg: 0, From: Lit(0), To: OfOperand(2)}},
			Uses:    []Range{{Arg: 1, From: Lit(0), To: OfOperand(2)}},
		},
		"memset": {
			Defines: []Range{{Arg: 0, From: Lit(0), To: OfOperand(2)}},
		},
		"strcpy": {
			Defines: []Range{{Arg: 0, From: Lit(0), To: Lit(offset.Unknown)}},
			Uses:    []Range{{Arg: 1, From: Lit(0), To: Lit(offset.Unknown)}},
		},
		"strncpy": {
			Defines: []Range{{Arg: 0, From: Lit(0), To: OfOperand(2)}},
			Uses:    []Range{{Arg: 1, From: Lit(0), To: OfOperand(2)}},
		},
		"strlen": {
			Uses: []Range{{Arg: 0, From: Lit(0), To: Lit(offset.Unknown)}},
		},
		"calloc":  {},
		"malloc":  {},
		"free":    {},
	}
}
