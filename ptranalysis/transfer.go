// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptranalysis

import (
	"fmt"

	"github.com/go-depgraph/depgraph/diag"
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
	"github.com/go-depgraph/depgraph/ps"
)

// transfer applies node n's transfer function (spec §4.1) and reports
// whether n's own points-to set changed. It may also mutate memory
// objects held by s.model, which is how LOAD/STORE/MEMCPY/
// FREE/INVALIDATE_* communicate with the rest of the graph: those
// writes don't directly change n's points-to, so the transfer
// functions that write an object re-enqueue its readers themselves
// via s.touch (see solver.go).
func (s *Solver) transfer(n *ps.Node) bool {
	g := s.g
	s.model.advance(g, n.Id())
	switch n.Kind() {
	case ps.KindAlloc, ps.KindDynAlloc, ps.KindFunction, ps.KindConstant,
		ps.KindEntry, ps.KindNoop, ps.KindNullAddr, ps.KindUnknownMem, ps.KindInvalidated:
		// Points-to is fixed at construction; nothing to do.
		return false

	case ps.KindCast, ps.KindPhi, ps.KindReturn, ps.KindCallReturn:
		var merged pointer.PointsToSet
		for _, op := range n.Operands() {
			merged.Merge(g.Node(op).PointsTo())
		}
		return g.MergePointsTo(n.Id(), merged)

	case ps.KindGep:
		p := n.Operands()[0]
		var out pointer.PointsToSet
		g.Node(p).PointsTo().ForEach(func(ptr pointer.Pointer) {
			no := ptr.Offset.Add(n.GepOffset()).Cap(s.opts.MaxOffset)
			out.Add(pointer.Pointer{Target: ptr.Target, Offset: no})
		})
		return g.MergePointsTo(n.Id(), out)

	case ps.KindLoad:
		return s.transferLoad(n)

	case ps.KindStore:
		s.transferStore(n)
		return false

	case ps.KindCall:
		// A direct call's own points-to is not meaningful; its
		// effects arrive at the paired CALL_RETURN via whatever
		// connected the callee (the frontend, for direct calls,
		// wires the callee's RETURN node directly as a
		// CALL_RETURN operand at construction time).
		return false

	case ps.KindCallFuncPtr:
		s.transferCallFuncPtr(n)
		return false

	case ps.KindMemcpy:
		s.transferMemcpy(n)
		return false

	case ps.KindFree:
		if s.variant == FlowSensitiveInvalidate && s.opts.TrackInvalidations {
			s.transferFree(n)
		}
		return false

	case ps.KindInvalidateObject:
		if s.opts.TrackInvalidations {
			s.transferFree(n)
		}
		return false

	case ps.KindInvalidateLocals:
		if s.opts.TrackInvalidations {
			s.transferInvalidateLocals(n)
		}
		return false
	}
	panic(fmt.Sprintf("ptranalysis: unhandled node kind %v", n.Kind()))
}

func (s *Solver) heapAndZero(t pointer.NodeId) (heap, zeroInit bool) {
	if t == pointer.NullAddr || t == pointer.UnknownMemory || t == pointer.Invalidated {
		return false, false
	}
	tn := s.g.Node(t)
	return tn.IsHeap(), tn.ZeroInitialized()
}

func (s *Solver) transferLoad(n *ps.Node) bool {
	p := n.Operands()[0]
	pts := s.g.Node(p).PointsTo()
	var out pointer.PointsToSet
	if pts.IsEmpty() {
		s.sink.Warn(diag.UnsoundFallback, n.String(), "load through empty points-to set, falling back to unknown memory")
		out.Add(pointer.Pointer{Target: pointer.UnknownMemory, Offset: offset.Unknown})
		return s.g.MergePointsTo(n.Id(), out)
	}
	pts.ForEach(func(ptr pointer.Pointer) {
		heap, zeroInit := s.heapAndZero(ptr.Target)
		obj := s.readObject(n.Id(), ptr.Target, heap, zeroInit)
		result, has := obj.Load(ptr.Offset)
		if !has {
			if !s.opts.AlwaysUnknownOnMissing && zeroInit {
				out.Add(pointer.Pointer{Target: pointer.NullAddr, Offset: offset.Zero})
			} else {
				out.Add(pointer.Pointer{Target: pointer.UnknownMemory, Offset: offset.Unknown})
			}
			s.sink.Warn(diag.UnsoundFallback, n.String(), "read of never-written offset %s in node %d", ptr.Offset, ptr.Target)
			return
		}
		out.Merge(result)
	})
	return s.g.MergePointsTo(n.Id(), out)
}

func (s *Solver) transferStore(n *ps.Node) {
	v, p := n.Operands()[0], n.Operands()[1]
	pts := s.g.Node(p).PointsTo()
	if pts.IsEmpty() {
		s.sink.Warn(diag.UnsoundFallback, n.String(), "store through empty points-to set, dropped")
		return
	}
	vpts := s.g.Node(v).PointsTo()
	singleton, isSingleton := pts.IsSingleton()
	pts.ForEach(func(ptr pointer.Pointer) {
		heap, zeroInit := s.heapAndZero(ptr.Target)
		strong := isSingleton && singleton == ptr && !heap
		obj := s.model.objectForWrite(n.Id(), ptr.Target, heap, zeroInit)
		if obj.Store(ptr.Offset, vpts, strong) {
			s.touch(ptr.Target)
		}
	})
}

func (s *Solver) transferMemcpy(n *ps.Node) {
	src, dst := n.Operands()[0], n.Operands()[1]
	off, length := n.MemcpyRange()
	srcPts := s.g.Node(src).PointsTo()
	dstPts := s.g.Node(dst).PointsTo()
	if srcPts.IsEmpty() || dstPts.IsEmpty() {
		s.sink.Warn(diag.UnsupportedConstruct, n.String(), "memcpy with empty source or destination points-to")
		return
	}
	srcPts.ForEach(func(sp pointer.Pointer) {
		sHeap, sZero := s.heapAndZero(sp.Target)
		srcObj := s.readObject(n.Id(), sp.Target, sHeap, sZero)
		copyOne := func(srcOff offset.Offset, val pointer.PointsToSet) {
			dstPts.ForEach(func(dp pointer.Pointer) {
				dHeap, dZero := s.heapAndZero(dp.Target)
				dstObj := s.model.objectForWrite(n.Id(), dp.Target, dHeap, dZero)
				var destOff offset.Offset
				if off.IsUnknown() || srcOff.IsUnknown() || dp.Offset.IsUnknown() {
					destOff = offset.Unknown
				} else {
					destOff = dp.Offset.Add(srcOff - off)
				}
				// Memcpy never performs a strong update,
				// per the decision recorded for the "strong
				// update through memcpy" open question.
				if dstObj.Store(destOff, val, false) {
					s.touch(dp.Target)
				}
			})
		}
		if off.IsUnknown() || length.IsUnknown() {
			val, has := srcObj.Load(offset.Unknown)
			if has {
				copyOne(offset.Unknown, val)
			}
			return
		}
		srcObj.ForEachOffset(func(o offset.Offset, val pointer.PointsToSet) {
			if o.InRange(off, off.Add(length)) {
				copyOne(o, val)
			}
		})
	})
}

func (s *Solver) transferCallFuncPtr(n *ps.Node) {
	p := n.Operands()[0]
	pts := s.g.Node(p).PointsTo()
	callReturn := n.Paired()
	if callReturn == ps.NoNode {
		return
	}
	found := false
	pts.ForEach(func(ptr pointer.Pointer) {
		tn := s.g.Node(ptr.Target)
		if tn.Kind() != ps.KindFunction {
			return
		}
		found = true
		calleeReturn, ok := s.callback.Connect(s.g, n.Id(), ptr.Target)
		if !ok {
			s.sink.Warn(diag.UnsupportedConstruct, n.String(), "could not connect indirect callee %s", tn.FunctionName())
			return
		}
		if s.g.ConnectCallReturn(callReturn, calleeReturn) {
			s.addDependent(calleeReturn, callReturn)
			s.enqueue(callReturn)
		}
	})
	if !found {
		s.sink.Warn(diag.UnsoundFallback, n.String(), "indirect call target set contains no function")
	}
}

func (s *Solver) transferFree(n *ps.Node) {
	p := n.Operands()[0]
	pts := s.g.Node(p).PointsTo()
	pts.ForEach(func(ptr pointer.Pointer) {
		if ptr.Target == pointer.NullAddr {
			return
		}
		heap, zeroInit := s.heapAndZero(ptr.Target)
		obj := s.model.objectForWrite(n.Id(), ptr.Target, heap, zeroInit)
		if obj.Invalidate() {
			s.touch(ptr.Target)
		}
	})
}

func (s *Solver) transferInvalidateLocals(n *ps.Node) {
	sg := n.Subgraph()
	isLocal := func(t pointer.NodeId) bool {
		if t == pointer.NullAddr || t == pointer.UnknownMemory || t == pointer.Invalidated {
			return false
		}
		tn := s.g.Node(t)
		return tn.Kind() == ps.KindAlloc && !tn.IsGlobal() && tn.Subgraph() == sg
	}
	for _, obj := range s.model.visibleObjects(n.Id()) {
		if isLocal(obj.Node) {
			continue // never reparent/invalidate the object's own identity
		}
		changed := false
		rewrite := func(o offset.Offset, pts pointer.PointsToSet) {
			var repl pointer.PointsToSet
			dirty := false
			pts.ForEach(func(ptr pointer.Pointer) {
				if isLocal(ptr.Target) {
					repl.Add(pointer.Pointer{Target: pointer.Invalidated, Offset: offset.Unknown})
					dirty = true
				} else {
					repl.Add(ptr)
				}
			})
			if dirty {
				if obj.Store(o, repl, true) {
					changed = true
				}
			}
		}
		obj.ForEachOffset(rewrite)
		if changed {
			s.touch(obj.Node)
		}
	}
}
