// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reachdef

import (
	"testing"

	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/rwgraph"
)

// block0: store a[0:8)        (full-width overwrite)
// block0: store a[0:4)        (overwrite, kills only the low half)
// block0: load  a[0:8)        should reach both the high-half survivor
//                              of the first store and the second store.
func TestPartialOverwriteKillsOnlyCoveredRange(t *testing.T) {
	g := rwgraph.New()
	sg := g.NewSubgraph("f")
	a := g.AddAlloc(sg.Entry())
	d1 := rwgraph.DefSite{Target: a, Offset: offset.Zero, Len: offset.Offset(8)}
	d2 := rwgraph.DefSite{Target: a, Offset: offset.Zero, Len: offset.Offset(4)}
	s1 := g.AddStore(sg.Entry(), d1)
	g.AddOverwrite(s1, d1)
	s2 := g.AddStore(sg.Entry(), d2)
	g.AddOverwrite(s2, d2)
	use := g.AddLoad(sg.Entry(), d1)

	r := Run(g, Options{}, nil)
	out := r.Out(use)
	if len(out) != 2 {
		t.Fatalf("Out(use) = %v, want both the surviving wide def and the narrow overwrite", out)
	}
	if !out.Contains(d1) || !out.Contains(d2) {
		t.Fatalf("Out(use) = %v, want {%v, %v}", out, d1, d2)
	}
}

// A second store covering the exact same range as the first kills it
// outright.
func TestFullOverwriteKillsPriorDef(t *testing.T) {
	g := rwgraph.New()
	sg := g.NewSubgraph("f")
	a := g.AddAlloc(sg.Entry())
	b := g.AddAlloc(sg.Entry())
	d1 := rwgraph.DefSite{Target: a, Offset: offset.Zero, Len: offset.Offset(8)}
	other := rwgraph.DefSite{Target: b, Offset: offset.Zero, Len: offset.Offset(8)}
	s1 := g.AddStore(sg.Entry(), d1)
	g.AddOverwrite(s1, d1)
	g.AddStore(sg.Entry(), other)
	s3 := g.AddStore(sg.Entry(), d1)
	g.AddOverwrite(s3, d1)
	use := g.AddLoad(sg.Entry(), d1, other)

	r := Run(g, Options{}, nil)
	out := r.Out(use)
	if len(out) != 2 {
		t.Fatalf("Out(use) = %v, want exactly the live def of a and of b", out)
	}
}

// Resource cap: a node whose live set exceeds MaxSetSize collapses to
// the sentinel.
func TestMaxSetSizeCollapse(t *testing.T) {
	g := rwgraph.New()
	sg := g.NewSubgraph("f")
	a := g.AddAlloc(sg.Entry())
	b := g.AddAlloc(sg.Entry())
	g.AddStore(sg.Entry(), rwgraph.DefSite{Target: a, Offset: offset.Zero, Len: offset.Offset(4)})
	last := g.AddStore(sg.Entry(), rwgraph.DefSite{Target: b, Offset: offset.Zero, Len: offset.Offset(4)})

	r := Run(g, Options{MaxSetSize: 1}, nil)
	out := r.Out(last)
	if len(out) != 1 || out[0] != Sentinel {
		t.Fatalf("Out(last) = %v, want collapsed sentinel", out)
	}
}
