package dot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

func orderGraph(t *testing.T) *flow.Graph {
	t.Helper()
	g := flow.NewGraph()
	receive, err := g.AddNode("Receive Order", flow.KindStart)
	require.NoError(t, err)
	check, err := g.AddNode("Check Stock", flow.KindDecision)
	require.NoError(t, err)
	ship, err := g.AddNode("Ship Item", flow.KindProcess)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(receive.ID, check.ID, ""))
	require.NoError(t, g.AddEdge(check.ID, ship.ID, "In Stock"))
	return g
}

func TestSerialize(t *testing.T) {
	t.Run("canonical order", func(t *testing.T) {
		want := `digraph flowchart {
    rankdir="TB";
    n1 [label="Receive Order", shape=ellipse];
    n2 [label="Check Stock", shape=diamond];
    n3 [label="Ship Item", shape=box];

    n1 -> n2;
    n2 -> n3 [label="In Stock"];
}
`
		assert.Equal(t, want, Serialize(orderGraph(t)))
	})

	t.Run("empty graph", func(t *testing.T) {
		want := "digraph flowchart {\n    rankdir=\"TB\";\n}\n"
		assert.Equal(t, want, Serialize(flow.NewGraph()))
		assert.Equal(t, want, Serialize(nil))
	})

	t.Run("escapes quotes and newlines", func(t *testing.T) {
		g := flow.NewGraph()
		_, err := g.AddNode("Say \"done\"\nand stop", flow.KindStart)
		require.NoError(t, err)
		out := Serialize(g)
		assert.Contains(t, out, `n1 [label="Say \"done\"\nand stop", shape=ellipse];`)
	})

	t.Run("deterministic", func(t *testing.T) {
		g := orderGraph(t)
		assert.Equal(t, Serialize(g), Serialize(g))
	})
}

func TestParse_RoundTrip(t *testing.T) {
	g := orderGraph(t)
	back, err := g.AddNode("Backorder", flow.KindProcess)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge("n2", back.ID, "Out of Stock"))
	done, err := g.AddNode("Notify \"VIP\"\ncustomer", flow.KindEnd)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(back.ID, done.ID, ""))

	parsed, err := Parse(Serialize(g))
	require.NoError(t, err)
	assert.True(t, g.Equal(parsed), "round trip must preserve structure")

	// The ID sequence resumes, so editing keeps working after a reload.
	n, err := parsed.AddNode("Archive Order", flow.KindProcess)
	require.NoError(t, err)
	assert.Equal(t, "n6", n.ID)
}

func TestParse_Templates(t *testing.T) {
	t.Run("styling and defaults are skipped", func(t *testing.T) {
		text := `// Order fulfillment starter
digraph order_flow {
    rankdir="TB";
    bgcolor="white";
    node [shape=box, style=filled];

    start_here [label="Receive Order", shape=ellipse, fillcolor="lightblue"];
    check [label="Check Stock", shape=diamond];
    start_here -> check;
}
`
		g, err := Parse(text)
		require.NoError(t, err)
		require.Equal(t, 2, g.Len())
		nodes := g.Nodes()
		assert.Equal(t, "start_here", nodes[0].ID)
		assert.Equal(t, flow.KindStart, nodes[0].Kind)
		assert.Equal(t, flow.KindDecision, nodes[1].Kind)
	})

	t.Run("bare declarations default to process", func(t *testing.T) {
		g, err := Parse("digraph g {\n    intake;\n}\n")
		require.NoError(t, err)
		n, ok := g.NodeByID("intake")
		require.True(t, ok)
		assert.Equal(t, "intake", n.Label)
		assert.Equal(t, flow.KindProcess, n.Kind)
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine int
	}{
		{
			name:     "missing header",
			text:     "graph flowchart {\n}\n",
			wantLine: 1,
		},
		{
			name:     "empty input",
			text:     "",
			wantLine: 1,
		},
		{
			name:     "missing closing brace",
			text:     "digraph flowchart {\n    n1 [label=\"Start\", shape=ellipse];\n",
			wantLine: 2,
		},
		{
			name:     "malformed statement",
			text:     "digraph flowchart {\n    n1 ->\n}\n",
			wantLine: 2,
		},
		{
			name:     "edge references undeclared node",
			text:     "digraph flowchart {\n    n1 [label=\"Start\", shape=ellipse];\n    n1 -> n2;\n}\n",
			wantLine: 3,
		},
		{
			name:     "unknown shape",
			text:     "digraph flowchart {\n    n1 [label=\"Start\", shape=hexagon];\n}\n",
			wantLine: 2,
		},
		{
			name:     "node redeclared",
			text:     "digraph flowchart {\n    n1 [label=\"Start\", shape=ellipse];\n    n1 [label=\"Again\", shape=box];\n}\n",
			wantLine: 3,
		},
		{
			name:     "content after closing brace",
			text:     "digraph flowchart {\n}\nextra\n",
			wantLine: 3,
		},
		{
			name:     "unterminated label",
			text:     "digraph flowchart {\n    n1 [label=\"Start];\n}\n",
			wantLine: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantLine, perr.Line)
			assert.NotEmpty(t, perr.Reason)
		})
	}
}

func TestParse_StructuralErrors(t *testing.T) {
	// Syntactically clean input that breaks a graph invariant surfaces
	// the graph error, not a ParseError.
	text := `digraph flowchart {
    n1 [label="Receive Order", shape=ellipse];
    n2 [label="Audit", shape=box];
}
`
	_, err := Parse(text)
	assert.ErrorIs(t, err, flow.ErrMultipleEntries)

	var perr *ParseError
	assert.False(t, errors.As(err, &perr))
}
