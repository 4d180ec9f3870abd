// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memobj

import (
	"testing"

	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
)

func ptsOf(ps ...pointer.Pointer) pointer.PointsToSet {
	var s pointer.PointsToSet
	for _, p := range ps {
		s.Add(p)
	}
	return s
}

func TestStrongUpdateReplaces(t *testing.T) {
	m := New(1, false, false)
	m.Store(0, ptsOf(pointer.Pointer{Target: 10, Offset: 0}), true)
	m.Store(0, ptsOf(pointer.Pointer{Target: 20, Offset: 0}), true)
	got, _ := m.Load(0)
	if got.HasTarget(10) {
		t.Fatal("strong update should have replaced the prior definer")
	}
	if !got.HasTarget(20) {
		t.Fatal("strong update should record the new definer")
	}
}

func TestWeakUpdateMerges(t *testing.T) {
	m := New(1, true, false)
	m.Store(0, ptsOf(pointer.Pointer{Target: 10, Offset: 0}), false)
	m.Store(0, ptsOf(pointer.Pointer{Target: 20, Offset: 0}), false)
	got, _ := m.Load(0)
	if !got.HasTarget(10) || !got.HasTarget(20) {
		t.Fatal("weak update should merge with the prior definer")
	}
}

func TestLoadMissingEntry(t *testing.T) {
	m := New(1, false, false)
	_, has := m.Load(4)
	if has {
		t.Fatal("unwritten offset should report no entry")
	}
}

func TestLoadUnknownUnionsAll(t *testing.T) {
	m := New(1, false, false)
	m.Store(0, ptsOf(pointer.Pointer{Target: 10, Offset: 0}), true)
	m.Store(8, ptsOf(pointer.Pointer{Target: 20, Offset: 0}), true)
	got, has := m.Load(offset.Unknown)
	if !has {
		t.Fatal("expected an entry")
	}
	if !got.HasTarget(10) || !got.HasTarget(20) {
		t.Fatal("loading at Unknown should union every offset")
	}
}

func TestMemoryMapCopyOnWrite(t *testing.T) {
	a := NewMemoryMap()
	a.ForWrite(1, false, false).Store(0, ptsOf(pointer.Pointer{Target: 10, Offset: 0}), true)

	b := a.Clone()
	b.ForWrite(1, false, false).Store(0, ptsOf(pointer.Pointer{Target: 20, Offset: 0}), true)

	gotA, _ := a.objects[1].Load(0)
	gotB, _ := b.objects[1].Load(0)
	if !gotA.HasTarget(10) || gotA.HasTarget(20) {
		t.Fatal("writing through b should not affect a's clone-on-write object")
	}
	if !gotB.HasTarget(20) {
		t.Fatal("b should see its own write")
	}
}

func TestMemoryMapMergeFrom(t *testing.T) {
	a := NewMemoryMap()
	a.ForWrite(1, false, false).Store(0, ptsOf(pointer.Pointer{Target: 10, Offset: 0}), true)
	b := NewMemoryMap()
	b.ForWrite(1, false, false).Store(0, ptsOf(pointer.Pointer{Target: 20, Offset: 0}), true)

	changed := a.MergeFrom(b)
	if !changed {
		t.Fatal("merge should report a change")
	}
	got, _ := a.objects[1].Load(0)
	if !got.HasTarget(10) || !got.HasTarget(20) {
		t.Fatal("merge at a join point should union both predecessors' contents")
	}
}
