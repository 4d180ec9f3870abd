// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frontend lowers real Go source into a pointer subgraph
// (package ps), the way a production frontend feeding this library
// would, using exactly the golang.org/x/tools/go/{loader,ssa,ssautil,
// buildutil} pipeline rtcheck/main.go builds its own SSA program
// with: an in-memory overlay (no files touch disk), loader.Config,
// ssautil.CreateProgram, prog.Build(). Only the subset of SSA that
// carries pointer values is lowered -- everything else (arithmetic,
// strings, interfaces beyond method-less use) is out of scope for a
// pointer/memory-dependence library, matching spec.md §1's
// "no source-level type reconstruction" non-goal.
package frontend

import (
	"fmt"
	"go/build"
	"go/token"
	gotypes "go/types"

	"golang.org/x/tools/go/buildutil"
	"golang.org/x/tools/go/loader"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/go-depgraph/depgraph/offset"
	"github.com/go-depgraph/depgraph/ps"
)

var sizes = gotypes.SizesFor("gc", "amd64")

// Program wraps the loaded and SSA-built x/tools program alongside
// the pointer subgraph lowered from it, so callers (tests,
// cmd/depgraph-dump) can go from Go source straight to something
// ptranalysis.Solver and rwgraph.Builder can consume.
type Program struct {
	SSA *ssa.Program
	PS  *ps.Graph

	valueNode map[ssa.Value]ps.NodeId
}

// BuildFromSource type-checks and SSA-builds a single in-memory Go
// file (path is a virtual name only, nothing is read from or written
// to disk) and lowers every function it defines into PS subgraphs.
func BuildFromSource(path, src string) (*Program, error) {
	overlay := map[string][]byte{path: []byte(src)}
	ctxt := buildutil.OverlayContext(&build.Default, overlay)

	conf := loader.Config{Build: ctxt}
	if err := conf.CreateFromFilenames("main", path); err != nil {
		return nil, fmt.Errorf("frontend: typecheck: %w", err)
	}
	lprog, err := conf.Load()
	if err != nil {
		return nil, fmt.Errorf("frontend: load: %w", err)
	}

	prog := ssautil.CreateProgram(lprog, ssa.SanityCheckFunctions)
	prog.Build()

	p := &Program{SSA: prog, PS: ps.New(), valueNode: make(map[ssa.Value]ps.NodeId)}
	for _, info := range lprog.InitialPackages() {
		pkg := prog.Package(info.Pkg)
		if pkg == nil {
			continue
		}
		for _, member := range pkg.Members {
			if fn, ok := member.(*ssa.Function); ok {
				p.lowerFunction(fn)
			}
		}
	}
	return p, nil
}

// lowerFunction translates one ssa.Function's instructions into a PS
// subgraph, in block order (ssa already emits blocks in reverse
// postorder, which is what ps.Graph.ControlPreds's allocation-order
// convention needs).
func (p *Program) lowerFunction(fn *ssa.Function) {
	if fn.Blocks == nil {
		return // external/declared-only function, no body to lower
	}
	sg := p.PS.NewSubgraph(fn.String())
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			p.lowerInstr(sg, instr)
		}
	}
}

func (p *Program) lowerInstr(sg *ps.Subgraph, instr ssa.Instruction) {
	switch v := instr.(type) {
	case *ssa.Alloc:
		size := elemSize(v.Type())
		var id ps.NodeId
		if v.Heap {
			id = p.PS.AddDynAlloc(sg.Id(), size, false)
		} else {
			id = p.PS.AddAlloc(sg.Id(), size, false)
		}
		p.valueNode[v] = id

	case *ssa.Store:
		if !isPointerLike(v.Val.Type()) {
			return
		}
		addr, ok := p.operand(v.Addr)
		if !ok {
			return
		}
		val, ok := p.operand(v.Val)
		if !ok {
			return
		}
		p.PS.AddStore(sg.Id(), val, addr)

	case *ssa.UnOp:
		if v.Op != token.MUL || !isPointerLike(v.Type()) {
			return
		}
		operand, ok := p.operand(v.X)
		if !ok {
			return
		}
		p.valueNode[v] = p.PS.AddLoad(sg.Id(), operand)

	case *ssa.FieldAddr:
		base, ok := p.operand(v.X)
		if !ok {
			return
		}
		p.valueNode[v] = p.PS.AddGep(sg.Id(), base, offset.Unknown)

	case *ssa.IndexAddr:
		base, ok := p.operand(v.X)
		if !ok {
			return
		}
		p.valueNode[v] = p.PS.AddGep(sg.Id(), base, offset.Unknown)

	case *ssa.Phi:
		if !isPointerLike(v.Type()) {
			return
		}
		var ops []ps.NodeId
		for _, edge := range v.Edges {
			if id, ok := p.operand(edge); ok {
				ops = append(ops, id)
			}
		}
		if len(ops) > 0 {
			p.valueNode[v] = p.PS.AddPhi(sg.Id(), ops...)
		}

	case *ssa.Call:
		if !isPointerLike(v.Type()) && len(v.Call.Args) == 0 {
			return
		}
		var args []ps.NodeId
		for _, a := range v.Call.Args {
			if id, ok := p.operand(a); ok {
				args = append(args, id)
			}
		}
		_, ret := p.PS.AddCall(sg.Id(), args...)
		if isPointerLike(v.Type()) {
			p.valueNode[v] = ret
		}
	}
}

// operand resolves an ssa.Value that was lowered earlier to its PS
// node id. Constants and values this frontend does not lower (plain
// arithmetic, strings) report ok=false; callers skip the edge, which
// is conservative only in the sense that an unmodeled pointer source
// is invisible to the solver -- acceptable for the minimal lowering
// path this package implements (see package doc).
func (p *Program) operand(v ssa.Value) (ps.NodeId, bool) {
	id, ok := p.valueNode[v]
	return id, ok
}

func isPointerLike(t gotypes.Type) bool {
	switch t.Underlying().(type) {
	case *gotypes.Pointer, *gotypes.Slice, *gotypes.Map, *gotypes.Chan, *gotypes.Interface:
		return true
	}
	return false
}

func elemSize(t gotypes.Type) int64 {
	if p, ok := t.Underlying().(*gotypes.Pointer); ok {
		return sizes.Sizeof(p.Elem())
	}
	return sizes.Sizeof(t)
}
