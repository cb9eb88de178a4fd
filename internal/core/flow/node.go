// Package flow provides node definitions
package flow

import "strings"

// Kind classifies a flowchart node.
type Kind string

const (
	// KindStart represents the entry step of a flowchart
	KindStart Kind = "start"
	// KindProcess represents an ordinary action step
	KindProcess Kind = "process"
	// KindDecision represents a branching question step
	KindDecision Kind = "decision"
	// KindEnd represents a terminal step
	KindEnd Kind = "end"
)

// Valid reports whether k is one of the four flowchart kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindStart, KindProcess, KindDecision, KindEnd:
		return true
	}
	return false
}

// Node represents a single flowchart step.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
}

// Validate ensures node integrity.
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if strings.TrimSpace(n.Label) == "" {
		return ErrInvalidNodeLabel
	}
	if !n.Kind.Valid() {
		return ErrInvalidNodeKind
	}
	return nil
}

// IsDecision checks if the node is a decision step.
func (n *Node) IsDecision() bool {
	return n.Kind == KindDecision
}

// LabelMatches reports whether the node label equals label,
// ignoring case and surrounding whitespace.
func (n *Node) LabelMatches(label string) bool {
	return strings.EqualFold(strings.TrimSpace(n.Label), strings.TrimSpace(label))
}
