package stg

import (
	"fmt"
	"io"
	"strings"

	"github.com/rfielding/boolnet-ctl/digraph"
)

// WriteDOT writes a Graphviz DOT representation of a state graph. States in
// highlight are filled, states in init get an arrow from an invisible start node.
func WriteDOT(w io.Writer, g *digraph.Graph, init, highlight digraph.NodeSet) error {
	var sb strings.Builder

	sb.WriteString("digraph STG {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	sb.WriteString("\n")

	if len(init) > 0 {
		sb.WriteString("  start [shape=point];\n")
		for _, s := range init.Sorted() {
			sb.WriteString(fmt.Sprintf("  start -> \"%s\";\n", s))
		}
		sb.WriteString("\n")
	}

	for _, s := range g.Nodes {
		if highlight.Has(s) {
			sb.WriteString(fmt.Sprintf("  \"%s\" [style=filled, fillcolor=lightblue];\n", s))
		} else {
			sb.WriteString(fmt.Sprintf("  \"%s\";\n", s))
		}
	}
	sb.WriteString("\n")

	for _, from := range g.Nodes {
		for _, to := range g.Succ[from] {
			sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", from, to))
		}
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteMermaid writes a Mermaid stateDiagram-v2 representation of a state graph.
// Mermaid ids may not start with a digit, so every state is prefixed with "s".
func WriteMermaid(w io.Writer, g *digraph.Graph, init digraph.NodeSet) error {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	for _, s := range init.Sorted() {
		sb.WriteString(fmt.Sprintf("  [*] --> s%s\n", s))
	}
	sb.WriteString("\n")

	for _, from := range g.Nodes {
		for _, to := range g.Succ[from] {
			sb.WriteString(fmt.Sprintf("  s%s --> s%s\n", from, to))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
