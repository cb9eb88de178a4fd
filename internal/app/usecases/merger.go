package usecases

import (
	"fmt"
	"math"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

// Merger folds interpreted instruction deltas into flowchart graphs.
// It is stateless and safe for concurrent use.
type Merger struct{}

// NewMerger creates a merge engine.
func NewMerger() *Merger {
	return &Merger{}
}

// Merge applies d to base and returns the merged graph. The base graph
// is never mutated: all work happens on a clone that is only returned
// once every step has landed and the result validates, so on error the
// caller still holds a consistent graph.
//
// Steps resolve in order. A step whose label already exists in the
// graph reuses that node instead of creating a duplicate, which makes
// re-issued instructions idempotent. A new sequential step receives
// one incoming edge from every current attach point; a new branch step
// receives a labeled edge from the nearest sequential anchor, which
// must be a decision node. Either way the step becomes the sole attach
// point for the step after it.
func (m *Merger) Merge(base *flow.Graph, d *delta.Delta) (*flow.Graph, error) {
	if base == nil {
		base = flow.NewGraph()
	}
	if d == nil {
		return nil, delta.ErrEmptyDelta
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	next := base.Clone()

	// Resolve initial attach points: the attachTo hint when it names a
	// node, otherwise the frontier.
	anchors := resolveAttachPoints(next, d.AttachTo)

	// Branch steps hang off the last sequential anchor rather than the
	// chain cursor, so consecutive branch steps share one decision.
	branchAnchor := ""
	if len(anchors) == 1 {
		branchAnchor = anchors[0]
	}

	for i := range d.Steps {
		step := &d.Steps[i]

		if existing := matchExisting(next, anchors, step.Label); existing != nil {
			anchors = []string{existing.ID}
			if !step.IsBranch() {
				branchAnchor = existing.ID
			}
			continue
		}

		if step.IsBranch() {
			if branchAnchor == "" {
				return nil, fmt.Errorf("step %d: %w", i+1, flow.ErrInvalidBranch)
			}
			node, err := next.AddNode(step.Label, step.Kind)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			if err := next.AddEdge(branchAnchor, node.ID, step.BranchLabel); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			anchors = []string{node.ID}
			continue
		}

		node, err := next.AddNode(step.Label, step.Kind)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		for _, anchor := range anchors {
			if err := next.AddEdge(anchor, node.ID, ""); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		anchors = []string{node.ID}
		branchAnchor = node.ID
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// resolveAttachPoints picks the nodes new steps connect from. An
// attachTo hint wins when it names a node by ID or by a unique
// case-insensitive label; a hint that matches nothing (or matches
// ambiguously) falls back to the frontier.
func resolveAttachPoints(g *flow.Graph, attachTo string) []string {
	if attachTo != "" {
		if _, ok := g.NodeByID(attachTo); ok {
			return []string{attachTo}
		}
		if matches := g.MatchLabel(attachTo); len(matches) == 1 {
			return []string{matches[0].ID}
		}
	}
	return g.Frontier()
}

// matchExisting implements the de-duplication rule: a step label that
// case-insensitively matches an existing node resolves to that node.
// Among several matches the one with the fewest forward hops from the
// attach points wins, and on equal distance the most recently created
// one.
func matchExisting(g *flow.Graph, anchors []string, label string) *flow.Node {
	matches := g.MatchLabel(label)
	if len(matches) == 0 {
		return nil
	}
	dist := g.Hops(anchors)
	hops := func(id string) int {
		if h, ok := dist[id]; ok {
			return h
		}
		return math.MaxInt
	}
	best := matches[0]
	bestHops := hops(best.ID)
	for _, cand := range matches[1:] {
		// matches come in creation order, so on a tie the later
		// candidate replaces the earlier one.
		if h := hops(cand.ID); h <= bestHops {
			best = cand
			bestHops = h
		}
	}
	return best
}
