// Package delta provides the structured edit commands produced by the
// instruction interpreter and consumed by the merge engine.
package delta

import (
	"fmt"
	"strings"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

// Step describes one flowchart step requested by an instruction.
// BranchLabel marks the step as a decision branch and carries the
// branch condition.
type Step struct {
	Label       string    `json:"label"`
	Kind        flow.Kind `json:"kind"`
	BranchLabel string    `json:"branch_label,omitempty"`
}

// IsBranch checks if the step attaches as a decision branch.
func (s *Step) IsBranch() bool {
	return s.BranchLabel != ""
}

// Delta represents one interpreted instruction: an ordered list of
// steps to merge, plus an optional node reference (ID or label) that
// overrides the default attach points.
type Delta struct {
	Steps    []Step `json:"new_steps"`
	AttachTo string `json:"attach_to,omitempty"`
}

// Normalize trims whitespace and lowercases step kinds in place so
// that interpreter output with cosmetic variation validates cleanly.
func (d *Delta) Normalize() {
	d.AttachTo = strings.TrimSpace(d.AttachTo)
	for i := range d.Steps {
		s := &d.Steps[i]
		s.Label = strings.TrimSpace(s.Label)
		s.BranchLabel = strings.TrimSpace(s.BranchLabel)
		s.Kind = flow.Kind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
	}
}

// Validate ensures the delta is structurally sound.
func (d *Delta) Validate() error {
	if len(d.Steps) == 0 {
		return ErrEmptyDelta
	}
	for i := range d.Steps {
		s := &d.Steps[i]
		if s.Label == "" {
			return fmt.Errorf("step %d: %w", i+1, ErrMissingLabel)
		}
		if !s.Kind.Valid() {
			return fmt.Errorf("step %d: %w %q", i+1, ErrUnknownKind, s.Kind)
		}
	}
	return nil
}
