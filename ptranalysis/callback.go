// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptranalysis

import "github.com/go-depgraph/depgraph/ps"

// FunctionPointerCallback lets the frontend materialise or connect a
// callee discovered through an indirect call (CALL_FUNCPTR) into the
// pointer subgraph on demand, corresponding to the
// on_function_pointer_call input of spec §6.2.
type FunctionPointerCallback interface {
	// Connect is invoked for every callee function in a
	// CALL_FUNCPTR operand's points-to set each time the solver
	// processes that node, so the same (call site, callee function)
	// pair may be passed more than once. It must ensure calleeFunc's subgraph exists in
	// g (building it lazily if this is the first time it's been
	// seen) and return the id of that subgraph's RETURN node. The
	// solver then wires that return node into the call site's
	// CALL_RETURN via g.ConnectCallReturn, so ok=false should only
	// be returned when calleeFunc genuinely has no body the
	// frontend can supply (e.g. an unimplemented external symbol).
	Connect(g *ps.Graph, call, calleeFunc ps.NodeId) (calleeReturn ps.NodeId, ok bool)
}

// NoCallback rejects every indirect call, which is a sound (if
// maximally conservative) default: the solver will warn via
// UnsupportedConstruct and leave the call's effects unresolved.
type NoCallback struct{}

func (NoCallback) Connect(*ps.Graph, ps.NodeId, ps.NodeId) (ps.NodeId, bool) {
	return ps.NoNode, false
}
