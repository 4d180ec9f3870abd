// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwgraph

import (
	"context"
	"testing"

	"github.com/go-depgraph/depgraph/diag"
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
	"github.com/go-depgraph/depgraph/ps"
	"github.com/go-depgraph/depgraph/ptranalysis"
)

// p = alloc x; store &x into p; q = load p -- the RWG builder should
// emit a Store node defining x's object and a Load node using it.
func TestBuildStoreLoad(t *testing.T) {
	g := ps.New()
	sg := g.NewSubgraph("f")
	x := g.AddAlloc(sg.Id(), 8, false)
	p := g.AddAlloc(sg.Id(), 8, false)
	g.AddStore(sg.Id(), x, p)
	g.AddLoad(sg.Id(), p)

	s := ptranalysis.New(g, ptranalysis.FlowInsensitive, ptranalysis.Options{}, nil, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(g, s, Options{}, nil)
	out := b.Build()

	var storeFound, loadFound bool
	for i := 0; i < out.NumNodes(); i++ {
		n := out.Node(NodeId(i))
		switch n.Kind() {
		case KindStore:
			for _, d := range n.Overwrites() {
				if d.Target == NodeId(p) {
					storeFound = true
				}
			}
		case KindLoad:
			for _, u := range n.Uses() {
				if u.Target == NodeId(p) {
					loadFound = true
				}
			}
		}
	}
	if !storeFound {
		t.Error("expected a Store overwriting p's allocation")
	}
	if !loadFound {
		t.Error("expected a Load using p's allocation")
	}
}

// A PS MEMCPY node should translate into a (passthrough) Call node
// whose Uses/Defs reflect the source/destination ranges, not a
// worst-case UNKNOWN_MEMORY fallback.
func TestBuildMemcpyCall(t *testing.T) {
	g := ps.New()
	sg := g.NewSubgraph("f")
	src := g.AddAlloc(sg.Id(), 16, false)
	dst := g.AddAlloc(sg.Id(), 16, false)
	g.AddMemcpy(sg.Id(), src, dst, offset.Zero, offset.Offset(16))

	s := ptranalysis.New(g, ptranalysis.FlowInsensitive, ptranalysis.Options{}, nil, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(g, s, Options{}, nil)
	out := b.Build()

	var sawSrc, sawDst bool
	for i := 0; i < out.NumNodes(); i++ {
		n := out.Node(NodeId(i))
		if n.Kind() != KindCall {
			continue
		}
		for _, u := range n.Uses() {
			if u.Target == NodeId(src) {
				sawSrc = true
			}
		}
		for _, d := range n.Defs() {
			if d.Target == NodeId(dst) {
				sawDst = true
			}
		}
	}
	if !sawSrc || !sawDst {
		t.Errorf("memcpy call node missing expected use/def of src/dst, sawSrc=%v sawDst=%v", sawSrc, sawDst)
	}
}

// An unmodeled, bodiless function call falls back to a worst-case
// UNKNOWN_MEMORY read/write.
func TestBuildUnmodeledCallFallsBackToUnknown(t *testing.T) {
	g := ps.New()
	sg := g.NewSubgraph("f")
	fn := g.AddFunction("mystery")
	call, _ := g.AddCall(sg.Id(), fn)
	_ = call

	s := ptranalysis.New(g, ptranalysis.FlowInsensitive, ptranalysis.Options{}, nil, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	collector := diag.NewCollector()
	b := NewBuilder(g, s, Options{}, collector)
	out := b.Build()

	var sawUnknown bool
	for i := 0; i < out.NumNodes(); i++ {
		n := out.Node(NodeId(i))
		if n.Kind() != KindCall {
			continue
		}
		for _, d := range n.Defs() {
			if d.Target == NodeId(pointer.UnknownMemory) {
				sawUnknown = true
			}
		}
	}
	if !sawUnknown {
		t.Error("expected worst-case UNKNOWN_MEMORY def for unmodeled call")
	}
	if !collector.HasKind(diag.UnsupportedConstruct) {
		t.Error("expected an UnsupportedConstruct diagnostic for the unmodeled call")
	}
}
