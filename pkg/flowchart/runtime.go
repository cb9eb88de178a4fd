package flowchart

import (
	"context"
	"errors"

	sessionrepo "github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/repository/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/dto"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/usecases"
	coredelta "github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

// Re-export core flowchart types for convenience
type Graph = flow.Graph
type Node = flow.Node
type Edge = flow.Edge
type Kind = flow.Kind
type Delta = coredelta.Delta
type Step = coredelta.Step
type State = dto.SessionState

// Interpreter turns a natural-language instruction into a delta. The
// OpenAI-backed implementation lives in internal/adapters/interpreter;
// callers may plug in their own.
type Interpreter = usecases.Interpreter

// Step kinds accepted in deltas.
const (
	KindStart    = flow.KindStart
	KindProcess  = flow.KindProcess
	KindDecision = flow.KindDecision
	KindEnd      = flow.KindEnd
)

// ErrNoInterpreter is returned by Speak when the runtime was built
// without an interpreter.
var ErrNoInterpreter = errors.New("no interpreter configured")

// Runtime is a simple façade to build flowcharts without importing
// internal packages directly. The default runtime keeps sessions in
// memory and is suitable for local usage and tests.
type Runtime struct {
	sessions *usecases.SessionService
	interp   Interpreter
}

// NewRuntime constructs a default runtime with in-memory session storage.
func NewRuntime() *Runtime {
	svc := usecases.NewSessionService(sessionrepo.NewInMemorySessionRepository(), usecases.NewMerger(), nil, nil)
	return &Runtime{sessions: svc}
}

// NewRuntimeWithInterpreter is NewRuntime with instruction interpretation
// delegated to interp, enabling Speak.
func NewRuntimeWithInterpreter(interp Interpreter) *Runtime {
	rt := NewRuntime()
	rt.interp = interp
	return rt
}

// Open returns the session for key, creating an empty one on first use.
func (rt *Runtime) Open(ctx context.Context, key string) (*State, error) {
	return rt.sessions.GetOrCreate(ctx, key, "")
}

// Apply merges a pre-built delta into the session graph and records
// instruction in the history.
func (rt *Runtime) Apply(ctx context.Context, key, instruction string, d *Delta) (*State, error) {
	return rt.sessions.Apply(ctx, key, instruction, d)
}

// Speak interprets a natural-language instruction against the current
// graph and applies the resulting delta.
func (rt *Runtime) Speak(ctx context.Context, key, instruction string) (*State, error) {
	if rt.interp == nil {
		return nil, ErrNoInterpreter
	}
	st, err := rt.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	d, err := rt.interp.Interpret(ctx, instruction, st.Graph)
	if err != nil {
		return nil, err
	}
	return rt.sessions.Apply(ctx, key, instruction, d)
}

// Undo rolls the session back to the graph before the last instruction.
func (rt *Runtime) Undo(ctx context.Context, key string) (*State, error) {
	return rt.sessions.Undo(ctx, key)
}

// DOT returns the canonical DOT text of the session graph.
func (rt *Runtime) DOT(ctx context.Context, key string) (string, error) {
	st, err := rt.sessions.State(ctx, key)
	if err != nil {
		return "", err
	}
	return st.Text, nil
}

// Build opens the session (if needed) and applies each step as its own
// instruction, so a whole sequential flowchart comes up in one call.
func (rt *Runtime) Build(ctx context.Context, key string, steps ...Step) (*State, error) {
	st, err := rt.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	for i := range steps {
		d := &Delta{Steps: []Step{steps[i]}}
		st, err = rt.sessions.Apply(ctx, key, steps[i].Label, d)
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}
