// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dotdump writes the read-write graph and its def-use edges
// as a Graphviz dot graph, for the debug utility cmd/depgraph-dump.
// Per spec.md §6.3 this is a debug aid, not a contract: nothing in the
// core packages depends on it. The emission style (delegate to a
// private writer, build node labels up front, one Fprintf per edge)
// follows the teacher's own LockOrder.WriteToDot in rtcheck/order.go.
package dotdump

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/go-depgraph/depgraph/defuse"
	"github.com/go-depgraph/depgraph/rwgraph"
)

// WriteGraph writes g, with defuse's derived edges overlaid, to w as
// a dot digraph. Node labels are each RWG node's Kind plus its block
// and subgraph, matching the compact label style order.go uses for
// lock nodes.
func WriteGraph(w io.Writer, g *rwgraph.Graph, edges []defuse.Edge) {
	fmt.Fprintln(w, "digraph rwgraph {")
	for i := 0; i < g.NumNodes(); i++ {
		nid := rwgraph.NodeId(i)
		n := g.Node(nid)
		fmt.Fprintf(w, "\t%q [label=%q];\n", nodeName(nid), nodeLabel(g, n))
	}
	for _, e := range edges {
		fmt.Fprintf(w, "\t%q -> %q [label=%q];\n", nodeName(e.From), nodeName(e.To), e.Kind.String())
	}
	fmt.Fprintln(w, "}")
}

func nodeName(id rwgraph.NodeId) string {
	return fmt.Sprintf("n%d", id)
}

func nodeLabel(g *rwgraph.Graph, n *rwgraph.Node) string {
	sg := "?"
	for _, s := range g.Subgraphs() {
		if s.Id() == n.Subgraph() {
			sg = s.Name()
		}
	}
	return fmt.Sprintf("%s\\n%s/b%d", n.Kind(), sg, n.Block())
}

// WriteToFile opens path for writing and calls WriteGraph with it,
// following the teacher's withWriter helper in rtcheck/main.go:
// open, defer a checked Close, hand the caller an io.Writer.
func WriteToFile(path string, g *rwgraph.Graph, edges []defuse.Edge) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	WriteGraph(f, g, edges)
	return err
}

// IsInteractive reports whether fd is attached to a terminal, the way
// benchmany's status reporter gates ANSI progress output off TERM and
// terminal.IsTerminal before deciding whether to print a plain dot
// dump (redirected to a file or pipe) or a short human summary.
func IsInteractive(fd uintptr) bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return terminal.IsTerminal(int(fd))
}

// WriteSummary prints a short human-readable graph summary to w
// (subgraph, node and edge counts only), whatever kind of writer w
// is; WriteGraph produces the full dot output instead.
func WriteSummary(w io.Writer, g *rwgraph.Graph, edges []defuse.Edge) {
	fmt.Fprintf(w, "%d subgraphs, %d nodes, %d def-use edges\n",
		len(g.Subgraphs()), g.NumNodes(), len(edges))
}
