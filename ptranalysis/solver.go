// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptranalysis

import (
	"context"

	"github.com/go-depgraph/depgraph/diag"
	"github.com/go-depgraph/depgraph/memobj"
	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/pointer"
	"github.com/go-depgraph/depgraph/ps"
)

// Solver is the worklist fixpoint engine described in spec §4.1. A
// Solver is bound to one ps.Graph and is not safe for concurrent use
// (spec §5: the core is single-threaded cooperative).
type Solver struct {
	g        *ps.Graph
	opts     Options
	variant  Variant
	sink     diag.Sink
	callback FunctionPointerCallback
	model    memoryModel

	queue   []ps.NodeId
	inQueue map[ps.NodeId]bool

	// dependents[n] are nodes whose transfer function reads n's
	// points-to set as an operand; they must be re-examined when
	// n's points-to set changes.
	dependents map[ps.NodeId][]ps.NodeId
	// readers[t] are nodes that have read memory object t; they
	// must be re-examined when t's contents change.
	readers map[pointer.NodeId][]ps.NodeId

	ran       bool
	processed int
}

// Stats reports worklist fixpoint counters for the run, the way the
// original's PointerAnalysis.cpp tracks iteration counts and nodes
// processed (spec.md's supplemented-features §9; see internal/stats).
type Stats struct {
	// Processed is the number of worklist items dequeued and run
	// through the transfer function, including re-enqueues.
	Processed int
	// Nodes is the number of distinct graph nodes the solver ran
	// over (the worklist's initial seed size).
	Nodes int
}

// Stats returns the run's worklist counters. Valid after Run returns.
func (s *Solver) Stats() Stats {
	return Stats{Processed: s.processed, Nodes: s.g.NumNodes()}
}

// New returns a solver for g using the given variant, options,
// diagnostic sink and function-pointer callback. A nil sink defaults
// to diag.Nop{}; a nil callback defaults to NoCallback{}.
func New(g *ps.Graph, variant Variant, opts Options, sink diag.Sink, callback FunctionPointerCallback) *Solver {
	if sink == nil {
		sink = diag.Nop{}
	}
	if callback == nil {
		callback = NoCallback{}
	}
	if opts.MaxOffset == 0 {
		opts.MaxOffset = offset.Unknown
	}
	var model memoryModel
	switch variant {
	case FlowInsensitive:
		model = newFlowInsensitiveModel()
	default:
		model = newFlowSensitiveModel()
	}
	return &Solver{
		g:          g,
		opts:       opts,
		variant:    variant,
		sink:       sink,
		callback:   callback,
		model:      model,
		inQueue:    make(map[ps.NodeId]bool),
		dependents: make(map[ps.NodeId][]ps.NodeId),
		readers:    make(map[pointer.NodeId][]ps.NodeId),
	}
}

// Run drives the worklist to a fixpoint. It can be called at most
// once per Solver. ctx is checked between worklist items so a caller
// that wants a timeout can cancel it (spec §5: "Timeouts, if desired,
// must be enforced at the entry points by the host").
func (s *Solver) Run(ctx context.Context) error {
	if s.ran {
		panic("ptranalysis: Solver.Run called twice")
	}
	s.ran = true

	ids := s.g.AllNodeIds()
	s.buildInitialDependents(ids)
	for _, id := range ids {
		s.enqueue(id)
	}

	for len(s.queue) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		id := s.queue[0]
		s.queue = s.queue[1:]
		s.inQueue[id] = false
		s.processed++

		n := s.g.Node(id)
		if s.transfer(n) {
			for _, dep := range s.dependents[id] {
				s.enqueue(dep)
			}
		}
	}
	return nil
}

// buildInitialDependents scans every node's static operand list to
// seed the n -> dependents[n] reverse edges. Dynamic edges added later
// (CALL_FUNCPTR connecting a callee) are added incrementally via
// addDependent.
func (s *Solver) buildInitialDependents(ids []ps.NodeId) {
	for _, id := range ids {
		n := s.g.Node(id)
		for _, op := range n.Operands() {
			s.addDependent(op, id)
		}
	}
}

func (s *Solver) addDependent(operand, dependent ps.NodeId) {
	for _, d := range s.dependents[operand] {
		if d == dependent {
			return
		}
	}
	s.dependents[operand] = append(s.dependents[operand], dependent)
}

func (s *Solver) enqueue(id ps.NodeId) {
	if s.inQueue[id] {
		return
	}
	s.inQueue[id] = true
	s.queue = append(s.queue, id)
}

// touch re-enqueues every node that has read memory object target, in
// response to a write to that object.
func (s *Solver) touch(target pointer.NodeId) {
	for _, r := range s.readers[target] {
		s.enqueue(r)
	}
}

func (s *Solver) readObject(at ps.NodeId, target pointer.NodeId, heap, zeroInit bool) *memobj.MemoryObject {
	s.registerReader(at, target)
	return s.model.objectForRead(at, target, heap, zeroInit)
}

func (s *Solver) registerReader(at ps.NodeId, target pointer.NodeId) {
	for _, r := range s.readers[target] {
		if r == at {
			return
		}
	}
	s.readers[target] = append(s.readers[target], at)
}

// PointsTo returns node id's current points-to set. Valid after Run
// returns (or, for nodes already stabilised, during Run).
func (s *Solver) PointsTo(id ps.NodeId) pointer.PointsToSet {
	return s.g.Node(id).PointsTo()
}

// MemoryObjects returns the writable memory objects visible at
// program point `where` for every target named by ptr's points-to
// resolution -- i.e. exactly the objects LOAD/STORE at that point
// would touch for pointer ptr (spec §4.1's getMemoryObjects).
func (s *Solver) MemoryObjects(where ps.NodeId, ptr pointer.Pointer) []*memobj.MemoryObject {
	heap, zeroInit := s.heapAndZero(ptr.Target)
	obj := s.model.objectForWrite(where, ptr.Target, heap, zeroInit)
	return []*memobj.MemoryObject{obj}
}

// MaxOffsetFieldBound is exposed for callers that need the configured
// field-sensitivity bound without reaching into Options.
func (s *Solver) MaxOffsetFieldBound() offset.Offset { return s.opts.MaxOffset }
