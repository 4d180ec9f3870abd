// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ps

import (
	"testing"

	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
)

func TestReservedSingletons(t *testing.T) {
	g := New()
	if g.Node(pointer.NullAddr).Kind() != KindNullAddr {
		t.Fatal("node 0 should be NULL_ADDR")
	}
	if g.Node(pointer.UnknownMemory).Kind() != KindUnknownMem {
		t.Fatal("node 1 should be UNKNOWN_MEM")
	}
	if g.Node(pointer.Invalidated).Kind() != KindInvalidated {
		t.Fatal("node 2 should be INVALIDATED")
	}
}

func TestAllocPointsToSelf(t *testing.T) {
	g := New()
	sg := g.NewSubgraph("f")
	a := g.AddAlloc(sg.Id(), 8, false)
	pts := g.Node(a).PointsTo()
	if !pts.Has(pointer.Pointer{Target: a, Offset: offset.Zero}) {
		t.Fatal("alloc node should point to itself at offset 0")
	}
}

func TestCallPairing(t *testing.T) {
	g := New()
	sg := g.NewSubgraph("f")
	call, ret := g.AddCall(sg.Id())
	if g.Node(call).Paired() != ret {
		t.Fatal("call's paired node should be its call-return")
	}
	if g.Node(ret).Paired() != call {
		t.Fatal("call-return's paired node should be its call")
	}
}

func TestSubgraphMembership(t *testing.T) {
	g := New()
	sg1 := g.NewSubgraph("f")
	sg2 := g.NewSubgraph("g")
	g.AddNoop(sg1.Id())
	g.AddNoop(sg2.Id())
	nodes1 := g.Nodes(sg1.Id())
	for _, id := range nodes1 {
		if g.Node(id).Subgraph() != sg1.Id() {
			t.Fatalf("node %d leaked from subgraph %d", id, sg2.Id())
		}
	}
}
