// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ps

// ControlPreds returns the nodes whose execution the flow-sensitive
// pointer analysis must consider to have already happened before id.
// For a Phi node that is exactly its operand list (each operand is a
// distinct incoming control-flow path, by the variant's own
// definition). For every other node it is the single node allocated
// immediately before it in the same subgraph -- the frontend is
// expected to append PS nodes to a subgraph in execution order, so
// allocation order doubles as a control-flow order except at joins,
// which Phi makes explicit.
//
// ENTRY has no control predecessor.
func (g *Graph) ControlPreds(id NodeId) []NodeId {
	n := g.Node(id)
	if n.kind == KindPhi {
		return n.operands
	}
	if n.kind == KindEntry || n.subgraph == NoSubgraph {
		return nil
	}
	if id == 0 {
		return nil
	}
	prev := g.Node(id - 1)
	if prev.subgraph != n.subgraph {
		return nil
	}
	return []NodeId{prev.id}
}
