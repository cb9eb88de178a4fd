package dto

import (
	"time"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

// CreateSessionRequest opens (or returns) a flowchart session for a user.
// A prompt, when present, is interpreted and applied as the first step;
// a template seeds a fresh session instead. RenderFormat asks for an
// image of the result (empty skips rendering).
type CreateSessionRequest struct {
	UserEmail    string `json:"user_email" binding:"required,email"`
	Prompt       string `json:"prompt,omitempty"`
	Template     string `json:"template,omitempty" binding:"omitempty,template_id"`
	RenderFormat string `json:"render_format,omitempty" binding:"omitempty,oneof=png svg pdf"`
}

// AddStepRequest appends spoken or typed steps to an existing session.
type AddStepRequest struct {
	UserEmail    string `json:"user_email" binding:"required,email"`
	Prompt       string `json:"prompt" binding:"required,min=1"`
	RenderFormat string `json:"render_format,omitempty" binding:"omitempty,oneof=png svg pdf"`
}

// ApplyDeltaRequest applies a pre-interpreted delta directly, bypassing
// the instruction interpreter. Voice front-ends that parse locally and
// the integration tests use this path.
type ApplyDeltaRequest struct {
	UserEmail    string   `json:"user_email" binding:"required,email"`
	Instruction  string   `json:"instruction" binding:"required,min=1"`
	Delta        RawDelta `json:"delta" binding:"required"`
	RenderFormat string   `json:"render_format,omitempty" binding:"omitempty,oneof=png svg pdf"`
}

// RawDelta is the wire form of a graph delta.
type RawDelta struct {
	NewSteps []RawStep `json:"new_steps" binding:"required,min=1,dive"`
	AttachTo string    `json:"attach_to,omitempty"`
}

// RawStep is the wire form of one delta step.
type RawStep struct {
	Label       string `json:"label" binding:"required,min=1"`
	Kind        string `json:"kind" binding:"required,step_kind"`
	BranchLabel string `json:"branch_label,omitempty"`
}

// Delta converts the wire form into a normalized, validated core delta.
func (r RawDelta) Delta() (*delta.Delta, error) {
	d := &delta.Delta{AttachTo: r.AttachTo}
	for _, s := range r.NewSteps {
		d.Steps = append(d.Steps, delta.Step{
			Label:       s.Label,
			Kind:        flow.Kind(s.Kind),
			BranchLabel: s.BranchLabel,
		})
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadTemplateRequest replaces the session graph with a named template.
type LoadTemplateRequest struct {
	UserEmail    string `json:"user_email" binding:"required,email"`
	TemplateID   string `json:"template_id" binding:"required,template_id"`
	RenderFormat string `json:"render_format,omitempty" binding:"omitempty,oneof=png svg pdf"`
}

// UndoRequest rolls the session back to the graph before the last change.
type UndoRequest struct {
	UserEmail    string `json:"user_email" binding:"required,email"`
	RenderFormat string `json:"render_format,omitempty" binding:"omitempty,oneof=png svg pdf"`
}

// CloneSessionRequest copies one user's flowchart to another user.
type CloneSessionRequest struct {
	UserEmail   string `json:"user_email" binding:"required,email"`
	TargetEmail string `json:"target_email" binding:"required,email"`
}

// SessionState is a point-in-time snapshot of a session. The graph pointer
// is immutable once handed out; later edits replace it rather than mutate it.
type SessionState struct {
	Key          string      `json:"session_key"`
	Graph        *flow.Graph `json:"-"`
	Text         string      `json:"graph"`
	History      []string    `json:"history"`
	TemplateName string      `json:"template_name,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TemplateInfo describes one template available for loading.
type TemplateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FrontierNode is an attachable node surfaced to clients.
type FrontierNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SessionResponse is the common envelope for session-mutating endpoints.
type SessionResponse struct {
	Status         string         `json:"status"`
	SessionKey     string         `json:"session_key"`
	Message        string         `json:"message,omitempty"`
	Graph          string         `json:"graph"`
	Frontier       []FrontierNode `json:"frontier"`
	History        []string       `json:"history"`
	TemplateName   string         `json:"template_name,omitempty"`
	OutputFilename string         `json:"output_filename,omitempty"`
}

// NewSessionResponse builds the response envelope from a session snapshot.
func NewSessionResponse(status string, st *SessionState) SessionResponse {
	resp := SessionResponse{
		Status:       status,
		SessionKey:   st.Key,
		Graph:        st.Text,
		Frontier:     []FrontierNode{},
		History:      st.History,
		TemplateName: st.TemplateName,
	}
	if st.History == nil {
		resp.History = []string{}
	}
	if st.Graph != nil {
		for _, id := range st.Graph.Frontier() {
			if n, ok := st.Graph.NodeByID(id); ok {
				resp.Frontier = append(resp.Frontier, FrontierNode{ID: n.ID, Label: n.Label})
			}
		}
	}
	return resp
}
