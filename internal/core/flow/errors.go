// Package flow defines domain-specific errors
package flow

import "errors"

var (
	// Graph errors
	ErrNoEntry         = errors.New("no entry node")
	ErrMultipleEntries = errors.New("multiple entry nodes")
	ErrEmptyFrontier   = errors.New("no open ends in non-empty flowchart")

	// Node errors
	ErrInvalidNodeID    = errors.New("invalid node ID")
	ErrInvalidNodeLabel = errors.New("invalid node label")
	ErrInvalidNodeKind  = errors.New("invalid node kind")
	ErrNodeNotFound     = errors.New("node not found")
	ErrDuplicateNode    = errors.New("duplicate node ID")

	// Edge errors
	ErrInvalidEdgeSource = errors.New("invalid edge source")
	ErrInvalidEdgeTarget = errors.New("invalid edge target")
	ErrDuplicateEdge     = errors.New("duplicate edge")
	ErrSelfLoop          = errors.New("self-loops are not allowed")

	// Branch errors
	ErrInvalidBranch        = errors.New("branch from non-decision node")
	ErrBranchLabelRequired  = errors.New("decision branch requires a label")
	ErrDuplicateBranchLabel = errors.New("duplicate branch label")
)

// IsIntegrityError reports whether err is a structural invariant
// violation, as opposed to a lookup or input failure. Callers use it to
// classify merge rejections.
func IsIntegrityError(err error) bool {
	for _, target := range []error{
		ErrNoEntry, ErrMultipleEntries, ErrEmptyFrontier,
		ErrDuplicateNode, ErrDuplicateEdge, ErrSelfLoop,
		ErrInvalidBranch, ErrBranchLabelRequired, ErrDuplicateBranchLabel,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
