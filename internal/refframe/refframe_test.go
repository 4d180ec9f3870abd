// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refframe_test

import (
	"testing"

	"golang.org/x/tools/go/ssa"

	"github.com/go-depgraph/depgraph/frontend"
	"github.com/go-depgraph/depgraph/internal/refframe"
)

const callSrc = `package main

func f() int { return 1 }

func main() { f() }
`

// The upstream call graph should agree that main calls f, the
// representative cross-check SPEC_FULL.md §3 commits internal/refframe
// to for memssa's call-summary fixpoint.
func TestOracleAgreesMainCallsF(t *testing.T) {
	p, err := frontend.BuildFromSource("callprog.go", callSrc)
	if err != nil {
		t.Fatalf("BuildFromSource: %v", err)
	}

	var mainPkg *ssa.Package
	for _, pkg := range p.SSA.AllPackages() {
		if pkg != nil && pkg.Pkg.Name() == "main" {
			mainPkg = pkg
		}
	}
	if mainPkg == nil {
		t.Fatal("no main package in the built program")
	}

	mainFn, _ := mainPkg.Members["main"].(*ssa.Function)
	fFn, _ := mainPkg.Members["f"].(*ssa.Function)
	if mainFn == nil || fFn == nil {
		t.Fatal("expected main and f functions in the lowered package")
	}

	oracle, err := refframe.NewOracle(mainPkg)
	if err != nil {
		t.Fatalf("NewOracle: %v", err)
	}

	var sawF bool
	for _, callee := range oracle.Callees(mainFn) {
		if callee == fFn {
			sawF = true
		}
	}
	if !sawF {
		t.Error("expected the reference call graph to resolve main -> f")
	}
}
