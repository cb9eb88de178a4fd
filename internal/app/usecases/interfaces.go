package usecases

import (
	"context"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/dto"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
)

// SessionRepository defines the interface for live session storage
type SessionRepository interface {
	// Save stores or replaces a session by key
	Save(ctx context.Context, s *session.Session) error

	// Get returns the session for a key, or session.ErrNotFound
	Get(ctx context.Context, key string) (*session.Session, error)

	// List returns all live sessions
	List(ctx context.Context) ([]*session.Session, error)

	// Delete removes a session, or returns session.ErrNotFound
	Delete(ctx context.Context, key string) error
}

// Interpreter turns a natural-language instruction into a graph delta.
// The current graph is supplied so the interpreter can reference existing
// node labels when choosing attach points.
type Interpreter interface {
	Interpret(ctx context.Context, instruction string, current *flow.Graph) (*delta.Delta, error)
}

// TemplateSource defines the interface for named starter flowcharts
type TemplateSource interface {
	// List returns the available templates
	List(ctx context.Context) ([]dto.TemplateInfo, error)

	// Load parses a template into a fresh graph, or returns dto.ErrTemplateNotFound
	Load(ctx context.Context, id string) (*flow.Graph, error)
}

// Renderer draws a graph to an image file and returns the file name.
type Renderer interface {
	Render(ctx context.Context, g *flow.Graph, format string) (string, error)
}
