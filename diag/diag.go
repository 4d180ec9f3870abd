// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag provides the injectable diagnostic sink used by the
// pointer analysis and memory-SSA engines to report the four error
// kinds without using exceptions or printing directly (spec §7). It
// replaces the teacher's ad-hoc fmt.Printf-based warnl/warnp in
// rtcheck/main.go with an interface callers can swap out in tests.
package diag

import "fmt"

// Kind is one of the four error categories distinguished by the
// error-handling design.
type Kind int

const (
	// MalformedInput means the frontend handed the core a graph
	// that violates a structural invariant (missing operand,
	// missing subgraph root). Construction must abort.
	MalformedInput Kind = iota
	// UnsupportedConstruct means the core encountered a construct
	// it does not model precisely (e.g. a non-pointer memcpy
	// source) and fell back to a conservative treatment.
	UnsupportedConstruct
	// UnsoundFallback means the core had to guess in a way that
	// isn't guaranteed sound (empty points-to on a use,
	// strong-update-with-unknown-memory when enabled).
	UnsoundFallback
	// ResourceCapHit means a configured resource cap collapsed a
	// result to its sentinel value (e.g. maxSetSize).
	ResourceCapHit
)

func (k Kind) String() string {
	switch k {
	case MalformedInput:
		return "malformed-input"
	case UnsupportedConstruct:
		return "unsupported-construct"
	case UnsoundFallback:
		return "unsound-fallback"
	case ResourceCapHit:
		return "resource-cap-hit"
	}
	return "unknown-error-kind"
}

// Sink receives non-fatal diagnostics from the analysis. Malformed
// input is never reported through Sink, and no constructor in this
// module returns an error for it either: the constructors do not
// validate their input graphs, and an out-of-range node id panics in
// ps.Graph.Node and rwgraph.Graph.Node.
type Sink interface {
	Warn(kind Kind, where string, format string, args ...interface{})
}

// Nop discards every diagnostic. It is the default sink for library
// callers that don't care about warnings.
type Nop struct{}

func (Nop) Warn(Kind, string, string, ...interface{}) {}

// Collector records every distinct (kind, where, message) diagnostic
// exactly once, matching the "unsupported constructs are reported
// once per construct (de-duplicated)" policy of spec §7. It is safe
// for tests to inspect directly; it is not safe for concurrent use
// (the core itself is single-threaded, spec §5).
type Collector struct {
	seen  map[string]bool
	Items []Diagnostic
}

// Diagnostic is one recorded warning.
type Diagnostic struct {
	Kind    Kind
	Where   string
	Message string
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]bool)}
}

func (c *Collector) Warn(kind Kind, where string, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	key := fmt.Sprintf("%d|%s|%s", kind, where, msg)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.Items = append(c.Items, Diagnostic{Kind: kind, Where: where, Message: msg})
}

// HasKind reports whether any recorded diagnostic has the given kind.
func (c *Collector) HasKind(kind Kind) bool {
	for _, d := range c.Items {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
