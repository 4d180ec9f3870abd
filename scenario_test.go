// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Scenario tests build spec.md §8's six literal end-to-end programs
// directly against the PS/RWG builder APIs, the way a real frontend
// would, and check the exact membership spec.md's table promises. No
// frontend package dependency is needed for these: PS and RWG are
// small enough to build in-memory by hand.
package depgraph_test

import (
	"context"
	"testing"

	"github.com/go-depgraph/depgraph/memssa"
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
	"github.com/go-depgraph/depgraph/ps"
	"github.com/go-depgraph/depgraph/ptranalysis"
	"github.com/go-depgraph/depgraph/rwgraph"
)

// Scenario 1: p = alloc A; store &x into p; q = load p.
// pointsTo(q) == {(&x,0)}.
func TestScenario1StoreThenLoad(t *testing.T) {
	g := ps.New()
	sg := g.NewSubgraph("f")
	x := g.AddAlloc(sg.Id(), 8, false)
	p := g.AddAlloc(sg.Id(), 8, false)
	g.AddStore(sg.Id(), x, p)
	q := g.AddLoad(sg.Id(), p)

	s := ptranalysis.New(g, ptranalysis.FlowInsensitive, ptranalysis.Options{}, nil, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	pts := s.PointsTo(q)
	if pts.Len() != 1 || !pts.Has(pointer.Pointer{Target: x, Offset: offset.Zero}) {
		t.Fatalf("pointsTo(q) = %v, want exactly {(&x,0)}", pts)
	}
}

// Scenario 2: if(c) p=&x else p=&y; q=*p.
// pointsTo(q) == {(&x,0),(&y,0)}. As in scenario 1, "p=&x" stores &x
// into the cell p; the joined value v = phi(x, y) is what is stored.
func TestScenario2PhiJoin(t *testing.T) {
	g := ps.New()
	sg := g.NewSubgraph("f")
	x := g.AddAlloc(sg.Id(), 8, false)
	y := g.AddAlloc(sg.Id(), 8, false)
	v := g.AddPhi(sg.Id(), x, y)
	p := g.AddAlloc(sg.Id(), 8, false)
	g.AddStore(sg.Id(), v, p)
	q := g.AddLoad(sg.Id(), p)

	s := ptranalysis.New(g, ptranalysis.FlowInsensitive, ptranalysis.Options{}, nil, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	pts := s.PointsTo(q)
	want := []pointer.Pointer{{Target: x, Offset: offset.Zero}, {Target: y, Offset: offset.Zero}}
	if pts.Len() != len(want) {
		t.Fatalf("pointsTo(q) = %v, want %v", pts, want)
	}
	for _, w := range want {
		if !pts.Has(w) {
			t.Errorf("pointsTo(q) = %v, missing %v", pts, w)
		}
	}
}

func site(target rwgraph.NodeId) rwgraph.DefSite {
	return rwgraph.DefSite{Target: target, Offset: offset.Zero, Len: offset.Offset(8)}
}

// Scenario 3: a = alloc; b = alloc; *a=1; *b=2; r=*a.
// defs(r) == {store *a=1}: two independent stack allocations never
// interfere with each other's defs, strong update kills nothing else.
func TestScenario3IndependentAllocsDoNotInterfere(t *testing.T) {
	g := rwgraph.New()
	globals := g.NewSubgraph("globals")
	a := g.AddAlloc(globals.Entry())
	b := g.AddAlloc(globals.Entry())

	sg := g.NewSubgraph("f")
	blk := sg.Entry()
	storeA := g.AddStore(blk, site(a))
	g.AddOverwrite(storeA, site(a))
	storeB := g.AddStore(blk, site(b))
	g.AddOverwrite(storeB, site(b))
	r := g.AddLoad(blk, site(a))

	res := memssa.New(g, memssa.Options{}, nil)
	defs := res.GetDefinitionsOfUse(r)
	if len(defs) != 1 || defs[0].Definer != storeA {
		t.Fatalf("defs(r) = %v, want exactly {storeA=%d}", defs, storeA)
	}
}

// Scenario 4: p = malloc; *p=1; q = malloc; *q=2; r=*p.
// defs(r) == {*p=1, *q=2}: both calls to the allocator merge to one
// abstract heap object (allocation-site merging), and heap writes are
// never strong-killing, so both stores remain live definers of r.
func TestScenario4HeapNotStronglyUpdated(t *testing.T) {
	g := rwgraph.New()
	globals := g.NewSubgraph("globals")
	heap := g.AddDynAlloc(globals.Entry())

	sg := g.NewSubgraph("f")
	blk := sg.Entry()
	storeP := g.AddStore(blk, site(heap))
	storeQ := g.AddStore(blk, site(heap))
	r := g.AddLoad(blk, site(heap))

	res := memssa.New(g, memssa.Options{}, nil)
	defs := res.GetDefinitionsOfUse(r)
	if !defsContain(defs, storeP) || !defsContain(defs, storeQ) {
		t.Fatalf("defs(r) = %v, want both storeP=%d and storeQ=%d", defs, storeP, storeQ)
	}
}

// Scenario 5: memcpy(dst,src,0,16); r = load dst+4.
// defs(r) == {last write to src+4 before memcpy}: the memcpy is a
// passthrough that attributes dst's definer to src's.
func TestScenario5MemcpyPassthrough(t *testing.T) {
	g := rwgraph.New()
	globals := g.NewSubgraph("globals")
	src := g.AddAlloc(globals.Entry())
	dst := g.AddAlloc(globals.Entry())

	sg := g.NewSubgraph("f")
	blk := sg.Entry()
	storeSrc := g.AddStore(blk, site(src))
	g.AddOverwrite(storeSrc, site(src))
	memcpyCall := g.AddCall(blk, []rwgraph.DefSite{site(src)}, []rwgraph.DefSite{site(dst)})
	g.MarkPassthrough(memcpyCall)
	r := g.AddLoad(blk, site(dst))

	res := memssa.New(g, memssa.Options{}, nil)
	defs := res.GetDefinitionsOfUse(r)
	if !defsContain(defs, storeSrc) {
		t.Fatalf("defs(r) = %v, want it to include src's store (%d)", defs, storeSrc)
	}
	if defsContain(defs, memcpyCall) {
		t.Errorf("defs(r) = %v, the memcpy call node itself should not be a definer", defs)
	}
}

// Scenario 6: mutually recursive f/g each storing through the same
// global. defs(load of global after call to f) is the closure of both
// stores under the summary fixpoint.
func TestScenario6MutualRecursionClosure(t *testing.T) {
	g := rwgraph.New()
	globals := g.NewSubgraph("globals")
	target := g.AddAlloc(globals.Entry())

	sgF := g.NewSubgraph("f")
	sgG := g.NewSubgraph("g")
	blkF, blkG := sgF.Entry(), sgG.Entry()

	storeF := g.AddStore(blkF, site(target))
	g.AddOverwrite(storeF, site(target))
	callFtoG := g.AddCall(blkF, nil, nil)
	g.SetCallees(callFtoG, []rwgraph.SubgraphId{sgG.Id()})
	loadAfterCall := g.AddLoad(blkF, site(target))

	storeG := g.AddStore(blkG, site(target))
	g.AddOverwrite(storeG, site(target))
	callGtoF := g.AddCall(blkG, nil, nil)
	g.SetCallees(callGtoF, []rwgraph.SubgraphId{sgF.Id()})

	res := memssa.New(g, memssa.Options{}, nil)
	defs := res.GetDefinitionsOfUse(loadAfterCall)
	if !defsContain(defs, storeF) || !defsContain(defs, callFtoG) {
		t.Fatalf("defs(load) = %v, want storeF=%d and the call to g=%d (carrying g's closure)", defs, storeF, callFtoG)
	}
}

func defsContain(defs []memssa.Def, id rwgraph.NodeId) bool {
	for _, d := range defs {
		if d.Definer == id {
			return true
		}
	}
	return false
}
