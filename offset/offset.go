// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package offset implements the numeric offsets used throughout the
// pointer and memory-SSA analyses, including a distinguished Unknown
// value and saturating arithmetic.
package offset

import "fmt"

// Offset is a non-negative byte offset into an abstract memory
// object, or the distinguished value Unknown, meaning "some offset we
// cannot determine statically". All arithmetic on Offset saturates to
// Unknown rather than overflowing or going negative.
type Offset int64

// Unknown is the distinguished "any offset" value. It absorbs
// arithmetic: any operation involving Unknown yields Unknown.
const Unknown Offset = -1

// Zero is the offset of the base of an allocation.
const Zero Offset = 0

// IsUnknown reports whether o is the Unknown sentinel.
func (o Offset) IsUnknown() bool {
	return o == Unknown
}

// Add returns o+delta, saturating to Unknown if either operand is
// Unknown or the result would be negative.
func (o Offset) Add(delta Offset) Offset {
	if o.IsUnknown() || delta.IsUnknown() {
		return Unknown
	}
	r := o + delta
	if r < 0 {
		return Unknown
	}
	return r
}

// Cap collapses o to Unknown if it reaches or exceeds max. A negative
// or Unknown max means "uncapped".
func (o Offset) Cap(max Offset) Offset {
	if o.IsUnknown() || max.IsUnknown() || max < 0 {
		return o
	}
	if o >= max {
		return Unknown
	}
	return o
}

// InRange reports whether o falls in [a, b). Per the membership rule
// in the data model, if any of a, b, or o is Unknown, membership is
// conservatively assumed true.
func (o Offset) InRange(a, b Offset) bool {
	if o.IsUnknown() || a.IsUnknown() || b.IsUnknown() {
		return true
	}
	return a <= o && o < b
}

// Overlaps reports whether the half-open range [o, o+len) overlaps
// [a, a+alen). Unknown length or offset on either side is
// conservatively treated as overlapping everything.
func Overlaps(o, length, a, alen Offset) bool {
	if o.IsUnknown() || length.IsUnknown() || a.IsUnknown() || alen.IsUnknown() {
		return true
	}
	return o < a+alen && a < o+length
}

func (o Offset) String() string {
	if o.IsUnknown() {
		return "?"
	}
	return fmt.Sprintf("%d", int64(o))
}

// Range is a half-open byte range [From, To) within an abstract
// memory object. Either bound may be Unknown.
type Range struct {
	From, To Offset
}

// Len returns To-From, or Unknown if that can't be computed exactly.
func (r Range) Len() Offset {
	if r.From.IsUnknown() || r.To.IsUnknown() {
		return Unknown
	}
	return r.To - r.From
}

func (r Range) String() string {
	return fmt.Sprintf("[%s,%s)", r.From, r.To)
}
