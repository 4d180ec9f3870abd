// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pointer

import (
	"testing"

	"github.com/go-depgraph/depgraph/offset"
)

func TestAddAbsorption(t *testing.T) {
	var s PointsToSet
	s.Add(Pointer{10, 0})
	s.Add(Pointer{10, 4})
	if offs := s.Offsets(10); len(offs) != 2 {
		t.Fatalf("expected 2 offsets, got %v", offs)
	}
	s.Add(Pointer{10, offset.Unknown})
	offs := s.Offsets(10)
	if len(offs) != 1 || offs[0] != offset.Unknown {
		t.Fatalf("Unknown should absorb concrete offsets, got %v", offs)
	}
	// Adding a concrete offset after Unknown is a no-op.
	s.Add(Pointer{10, 99})
	offs = s.Offsets(10)
	if len(offs) != 1 || offs[0] != offset.Unknown {
		t.Fatalf("Unknown should stay absorbing, got %v", offs)
	}
}

func TestMergeChanged(t *testing.T) {
	var a, b PointsToSet
	a.Add(Pointer{1, 0})
	b.Add(Pointer{1, 0})
	b.Add(Pointer{2, 0})
	if changed := a.Merge(b); !changed {
		t.Fatal("merge should report a change")
	}
	if changed := a.Merge(b); changed {
		t.Fatal("second identical merge should report no change")
	}
	if !a.Has(Pointer{2, 0}) {
		t.Fatal("merged set should contain (2,0)")
	}
}

func TestIsSingleton(t *testing.T) {
	var s PointsToSet
	if _, ok := s.IsSingleton(); ok {
		t.Fatal("empty set should not be a singleton")
	}
	s.Add(Pointer{5, 1})
	p, ok := s.IsSingleton()
	if !ok || p != (Pointer{5, 1}) {
		t.Fatalf("expected singleton (5,1), got %v ok=%v", p, ok)
	}
	s.Add(Pointer{6, 1})
	if _, ok := s.IsSingleton(); ok {
		t.Fatal("two-target set should not be a singleton")
	}
}

func TestForEachOrderStable(t *testing.T) {
	var s PointsToSet
	s.Add(Pointer{3, 5})
	s.Add(Pointer{1, 0})
	s.Add(Pointer{1, 9})
	var got []Pointer
	s.ForEach(func(p Pointer) { got = append(got, p) })
	want := []Pointer{{1, 0}, {1, 9}, {3, 5}}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
