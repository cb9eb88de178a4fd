// Package flow provides edge definitions
package flow

// Edge represents a directed connection between two flowchart steps.
// Label carries the branch condition and is only set on edges that
// leave a decision node.
type Edge struct {
	From  string `json:"from"`  // Source node ID
	To    string `json:"to"`    // Target node ID
	Label string `json:"label,omitempty"`
}

// Validate ensures edge integrity.
func (e *Edge) Validate() error {
	if e.From == "" {
		return ErrInvalidEdgeSource
	}
	if e.To == "" {
		return ErrInvalidEdgeTarget
	}
	if e.From == e.To {
		return ErrSelfLoop
	}
	return nil
}

// IsBranch checks if the edge carries a branch condition.
func (e *Edge) IsBranch() bool {
	return e.Label != ""
}
