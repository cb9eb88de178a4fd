// Package flow provides the core flowchart graph entity
// built up incrementally from merged instruction deltas, with
// zero external dependencies.
package flow

import (
	"regexp"
	"strconv"
	"strings"
)

// identPattern matches node IDs that can be emitted as bare DOT identifiers.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// genIDPattern matches generated node IDs of the form n<seq>.
var genIDPattern = regexp.MustCompile(`^n([0-9]+)$`)

// Graph represents a flowchart as an ordered collection of nodes and
// directed edges. Nodes keep their insertion order, node IDs are never
// reused within a live graph, and every mutating operation either keeps
// the graph consistent or leaves it untouched.
type Graph struct {
	nodes []*Node
	byID  map[string]*Node
	edges []*Edge
	in    map[string]int
	out   map[string]int
	seq   int
}

// NewGraph creates an empty flowchart.
func NewGraph() *Graph {
	return &Graph{
		byID: make(map[string]*Node),
		in:   make(map[string]int),
		out:  make(map[string]int),
	}
}

// NewGraphFrom rebuilds a flowchart from explicit nodes and edges, as
// produced by parsing canonical text. Node order is preserved, IDs must
// be bare identifiers, and the result must satisfy every graph
// invariant. The ID sequence resumes after the highest generated ID so
// later AddNode calls never collide.
func NewGraphFrom(nodes []Node, edges []Edge) (*Graph, error) {
	g := NewGraph()
	for i := range nodes {
		n := nodes[i]
		n.Label = strings.TrimSpace(n.Label)
		if err := n.Validate(); err != nil {
			return nil, err
		}
		if !identPattern.MatchString(n.ID) {
			return nil, ErrInvalidNodeID
		}
		if _, exists := g.byID[n.ID]; exists {
			return nil, ErrDuplicateNode
		}
		g.nodes = append(g.nodes, &n)
		g.byID[n.ID] = &n
		if m := genIDPattern.FindStringSubmatch(n.ID); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && v > g.seq {
				g.seq = v
			}
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To, e.Label); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return append([]*Edge(nil), g.edges...)
}

// NodeByID looks up a node by its ID.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// MatchLabel returns every node whose label matches label
// case-insensitively, in insertion order.
func (g *Graph) MatchLabel(label string) []*Node {
	var matches []*Node
	for _, n := range g.nodes {
		if n.LabelMatches(label) {
			matches = append(matches, n)
		}
	}
	return matches
}

// Entry returns the single node ID with no incoming edges. The second
// return value is false for an empty graph or when no such node exists.
func (g *Graph) Entry() (string, bool) {
	for _, n := range g.nodes {
		if g.in[n.ID] == 0 {
			return n.ID, true
		}
	}
	return "", false
}

// Frontier returns the IDs of all open ends, the nodes without outgoing
// edges, in node insertion order. It is derived from the current edge
// set on every call so it can never go stale.
func (g *Graph) Frontier() []string {
	var ids []string
	for _, n := range g.nodes {
		if g.out[n.ID] == 0 {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// InDegree returns the number of edges pointing at id.
func (g *Graph) InDegree(id string) int {
	return g.in[id]
}

// OutDegree returns the number of edges leaving id.
func (g *Graph) OutDegree(id string) int {
	return g.out[id]
}

// Successors returns the target IDs of all edges leaving id, in edge
// insertion order.
func (g *Graph) Successors(id string) []string {
	var ids []string
	for _, e := range g.edges {
		if e.From == id {
			ids = append(ids, e.To)
		}
	}
	return ids
}

// Hops returns the forward hop distance from the closest of the given
// source IDs to every reachable node. Sources themselves are at
// distance zero; unreachable nodes are absent from the map.
func (g *Graph) Hops(from []string) map[string]int {
	dist := make(map[string]int)
	var queue []string
	for _, id := range from {
		if _, ok := g.byID[id]; !ok {
			continue
		}
		if _, seen := dist[id]; seen {
			continue
		}
		dist[id] = 0
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.edges {
			if e.From != id {
				continue
			}
			if _, seen := dist[e.To]; seen {
				continue
			}
			dist[e.To] = dist[id] + 1
			queue = append(queue, e.To)
		}
	}
	return dist
}

// AddNode appends a new node with a generated ID and returns it.
func (g *Graph) AddNode(label string, kind Kind) (*Node, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrInvalidNodeLabel
	}
	if !kind.Valid() {
		return nil, ErrInvalidNodeKind
	}
	n := &Node{ID: g.nextID(), Label: label, Kind: kind}
	g.nodes = append(g.nodes, n)
	g.byID[n.ID] = n
	return n, nil
}

// AddEdge connects two existing nodes. A decision node may fan out
// into any number of edges as long as every edge past the first
// carries a branch label that is unique for that node; any other kind
// is limited to a single unlabeled outgoing edge.
func (g *Graph) AddEdge(from, to, label string) error {
	e := &Edge{From: from, To: to, Label: strings.TrimSpace(label)}
	if err := e.Validate(); err != nil {
		return err
	}
	src, ok := g.byID[e.From]
	if !ok {
		return ErrNodeNotFound
	}
	if _, ok := g.byID[e.To]; !ok {
		return ErrNodeNotFound
	}
	for _, existing := range g.edges {
		if existing.From == e.From && existing.To == e.To && existing.Label == e.Label {
			return ErrDuplicateEdge
		}
	}
	if src.IsDecision() {
		if e.Label == "" {
			if g.out[e.From] > 0 {
				return ErrBranchLabelRequired
			}
		} else {
			for _, existing := range g.edges {
				if existing.From != e.From {
					continue
				}
				if existing.Label == "" {
					return ErrBranchLabelRequired
				}
				if strings.EqualFold(existing.Label, e.Label) {
					return ErrDuplicateBranchLabel
				}
			}
		}
	} else {
		if e.Label != "" {
			return ErrInvalidBranch
		}
		if g.out[e.From] > 0 {
			return ErrInvalidBranch
		}
	}
	g.edges = append(g.edges, e)
	g.out[e.From]++
	g.in[e.To]++
	return nil
}

// RemoveNode deletes a node and every edge referencing it. The
// operation is rejected, leaving the graph untouched, when the
// remainder would violate a graph invariant. The removed ID is never
// reused.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.byID[id]; !ok {
		return ErrNodeNotFound
	}
	c := g.Clone()
	c.removeNode(id)
	if err := c.Validate(); err != nil {
		return err
	}
	*g = *c
	return nil
}

func (g *Graph) removeNode(id string) {
	nodes := g.nodes[:0]
	for _, n := range g.nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	g.nodes = nodes
	delete(g.byID, id)

	edges := g.edges[:0]
	for _, e := range g.edges {
		if e.From != id && e.To != id {
			edges = append(edges, e)
		}
	}
	g.edges = edges

	g.in = make(map[string]int)
	g.out = make(map[string]int)
	for _, e := range g.edges {
		g.out[e.From]++
		g.in[e.To]++
	}
}

// Clone returns a deep copy sharing no state with the receiver.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	c.seq = g.seq
	for _, n := range g.nodes {
		cp := *n
		c.nodes = append(c.nodes, &cp)
		c.byID[cp.ID] = &cp
	}
	for _, e := range g.edges {
		cp := *e
		c.edges = append(c.edges, &cp)
	}
	for id, d := range g.in {
		c.in[id] = d
	}
	for id, d := range g.out {
		c.out[id] = d
	}
	return c
}

// Equal reports whether two graphs hold the same nodes and edges in the
// same order.
func (g *Graph) Equal(other *Graph) bool {
	if g == nil || other == nil {
		return g == other
	}
	if len(g.nodes) != len(other.nodes) || len(g.edges) != len(other.edges) {
		return false
	}
	for i, n := range g.nodes {
		o := other.nodes[i]
		if n.ID != o.ID || n.Label != o.Label || n.Kind != o.Kind {
			return false
		}
	}
	for i, e := range g.edges {
		o := other.edges[i]
		if e.From != o.From || e.To != o.To || e.Label != o.Label {
			return false
		}
	}
	return true
}

// Validate ensures graph integrity: unique labels are not required, but
// a non-empty graph must have exactly one entry node, at least one open
// end, and branch-labeled edges only out of decision nodes.
func (g *Graph) Validate() error {
	if len(g.nodes) == 0 {
		return nil
	}
	for _, n := range g.nodes {
		if err := n.Validate(); err != nil {
			return err
		}
	}
	for _, e := range g.edges {
		if _, ok := g.byID[e.From]; !ok {
			return ErrNodeNotFound
		}
		if _, ok := g.byID[e.To]; !ok {
			return ErrNodeNotFound
		}
	}
	entries := 0
	for _, n := range g.nodes {
		if g.in[n.ID] == 0 {
			entries++
		}
	}
	if entries == 0 {
		return ErrNoEntry
	}
	if entries > 1 {
		return ErrMultipleEntries
	}
	for _, n := range g.nodes {
		if err := g.validateBranches(n); err != nil {
			return err
		}
	}
	if len(g.Frontier()) == 0 {
		return ErrEmptyFrontier
	}
	return nil
}

func (g *Graph) validateBranches(n *Node) error {
	var outs []*Edge
	for _, e := range g.edges {
		if e.From == n.ID {
			outs = append(outs, e)
		}
	}
	if n.IsDecision() {
		if len(outs) < 2 {
			return nil
		}
		seen := make(map[string]bool)
		for _, e := range outs {
			if e.Label == "" {
				return ErrBranchLabelRequired
			}
			key := strings.ToLower(e.Label)
			if seen[key] {
				return ErrDuplicateBranchLabel
			}
			seen[key] = true
		}
		return nil
	}
	if len(outs) > 1 {
		return ErrInvalidBranch
	}
	for _, e := range outs {
		if e.Label != "" {
			return ErrInvalidBranch
		}
	}
	return nil
}

func (g *Graph) nextID() string {
	for {
		g.seq++
		id := "n" + strconv.Itoa(g.seq)
		if _, exists := g.byID[id]; !exists {
			return id
		}
	}
}
