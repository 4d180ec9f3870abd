// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command depgraph-dump is a debug utility over the depgraph
// library: it lowers a single Go source file into a pointer subgraph,
// runs the pointer analysis and memory-SSA passes, and optionally
// dumps the resulting read-write graph as a dot file (spec.md §6.3:
// dot output is a debug aid, never part of the library's contract).
// Its flag style follows rtcheck/main.go's flag.StringVar block.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/exec"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/go-depgraph/depgraph/defuse"
	"github.com/go-depgraph/depgraph/frontend"
	"github.com/go-depgraph/depgraph/internal/dotdump"
	"github.com/go-depgraph/depgraph/internal/stats"
	"github.com/go-depgraph/depgraph/memssa"
	"github.com/go-depgraph/depgraph/ptranalysis"
	"github.com/go-depgraph/depgraph/reachdef"
	"github.com/go-depgraph/depgraph/rwgraph"
)

func main() {
	var (
		dotOut    string
		dotViewer string
		showStats bool
	)
	flag.StringVar(&dotOut, "dot", "", "write the read-write graph in dot format to `file`")
	flag.StringVar(&dotViewer, "dot-viewer", "", "shell command to launch after writing -dot, with the dot file path appended (e.g. \"xdot\")")
	flag.BoolVar(&showStats, "stats", false, "print worklist iteration stats to stdout")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: depgraph-dump [flags] file.go")
		flag.Usage()
		os.Exit(2)
	}
	if dotViewer != "" && dotOut == "" {
		log.Fatal("-dot-viewer requires -dot")
	}

	path := flag.Arg(0)
	src, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	prog, err := frontend.BuildFromSource(path, string(src))
	if err != nil {
		log.Fatal(err)
	}

	solver := ptranalysis.New(prog.PS, ptranalysis.FlowInsensitive, ptranalysis.Options{}, nil, nil)
	if err := solver.Run(context.Background()); err != nil {
		log.Fatal(err)
	}

	builder := rwgraph.NewBuilder(prog.PS, solver, rwgraph.Options{}, nil)
	g := builder.Build()

	ssaResult := memssa.New(g, memssa.Options{}, nil)
	edges := defuse.Edges(g, ssaResult)

	if showStats {
		rd := reachdef.Run(g, reachdef.Options{}, nil)
		run := stats.FromPointerSolver(path, solver).WithReachDef(rd)
		stats.Fprint(os.Stdout, []stats.Run{run})
	}

	if dotOut == "" {
		dotdump.WriteSummary(os.Stdout, g, edges)
		return
	}
	if err := dotdump.WriteToFile(dotOut, g, edges); err != nil {
		log.Fatal(err)
	}

	if dotViewer != "" {
		launchViewer(dotViewer, dotOut)
	}
}

// launchViewer parses viewerCmd with shellquote, the way it should
// have been done all along for a user-configurable command line
// instead of a naive whitespace split (the gap in the teacher's own
// benchmany/cmdrun.go, which builds its -buildcmd exec.Command
// arguments with strings.Fields and so cannot accept a quoted
// argument), and appends dotFile as the final argument.
func launchViewer(viewerCmd, dotFile string) {
	args, err := shellquote.Split(viewerCmd)
	if err != nil {
		log.Fatalf("parsing -dot-viewer %q: %v", viewerCmd, err)
	}
	if len(args) == 0 {
		log.Fatalf("-dot-viewer %q parsed to no command", viewerCmd)
	}
	args = append(args, dotFile)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		log.Fatalf("running %s: %v", strings.Join(args, " "), err)
	}
}
