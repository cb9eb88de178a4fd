// Package dot renders flowcharts as canonical Graphviz DOT text and
// parses that text back into graphs. The canonical form is the
// system's single source of truth for flowchart structure, so the
// serializer is deterministic: graph attributes first, then nodes in
// insertion order, then edges in insertion order.
package dot

import (
	"fmt"
	"strings"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

// GraphName is the digraph name emitted for every serialized flowchart.
const GraphName = "flowchart"

// shapeByKind maps flowchart kinds onto Graphviz node shapes. Every
// kind gets a distinct shape so parsing canonical text is lossless.
var shapeByKind = map[flow.Kind]string{
	flow.KindStart:    "ellipse",
	flow.KindProcess:  "box",
	flow.KindDecision: "diamond",
	flow.KindEnd:      "doublecircle",
}

var kindByShape = map[string]flow.Kind{
	"ellipse":      flow.KindStart,
	"box":          flow.KindProcess,
	"diamond":      flow.KindDecision,
	"doublecircle": flow.KindEnd,
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}

// Serialize renders g as canonical DOT text. A nil graph serializes
// like an empty one.
func Serialize(g *flow.Graph) string {
	var b strings.Builder
	b.WriteString("digraph " + GraphName + " {\n")
	b.WriteString("    rankdir=\"TB\";\n")

	if g != nil {
		nodes := g.Nodes()
		edges := g.Edges()
		for _, n := range nodes {
			fmt.Fprintf(&b, "    %s [label=\"%s\", shape=%s];\n", n.ID, escapeLabel(n.Label), shapeByKind[n.Kind])
		}
		if len(nodes) > 0 && len(edges) > 0 {
			b.WriteString("\n")
		}
		for _, e := range edges {
			if e.Label != "" {
				fmt.Fprintf(&b, "    %s -> %s [label=\"%s\"];\n", e.From, e.To, escapeLabel(e.Label))
			} else {
				fmt.Fprintf(&b, "    %s -> %s;\n", e.From, e.To)
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}
