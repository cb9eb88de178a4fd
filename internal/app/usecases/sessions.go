package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/dto"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/dot"
)

// SessionService coordinates session lifecycle, merging, and persistence.
// Every mutating operation serializes on a per-session mutex, so two
// instructions for the same user apply one after the other while
// different users proceed in parallel.
//
// The saver and template source are optional; a nil saver keeps sessions
// purely in memory.
type SessionService struct {
	repo      SessionRepository
	merger    *Merger
	saver     session.Saver
	templates TemplateSource

	locks sync.Map // session key -> *sync.Mutex

	// applyHook, when set, runs at the top of every locked section.
	applyHook func()
}

// NewSessionService wires a session service. repo and merger are
// required; saver and templates may be nil.
func NewSessionService(repo SessionRepository, merger *Merger, saver session.Saver, templates TemplateSource) *SessionService {
	return &SessionService{
		repo:      repo,
		merger:    merger,
		saver:     saver,
		templates: templates,
	}
}

func (s *SessionService) lockFor(key string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// GetOrCreate returns the live session for key, rehydrating it from the
// saver if the process restarted, or creating an empty one. A template
// seeds only brand-new sessions; existing ones are returned untouched.
func (s *SessionService) GetOrCreate(ctx context.Context, key, templateID string) (*dto.SessionState, error) {
	if !session.ValidKey(key) {
		return nil, session.ErrInvalidKey
	}
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	if s.applyHook != nil {
		s.applyHook()
	}

	if sess, err := s.repo.Get(ctx, key); err == nil {
		return snapshot(sess, dot.Serialize(sess.Graph)), nil
	} else if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}

	if s.saver != nil {
		rec, err := s.saver.Load(ctx, key)
		switch {
		case err == nil:
			sess, rerr := rehydrate(rec)
			if rerr != nil {
				return nil, rerr
			}
			if err := s.repo.Save(ctx, sess); err != nil {
				return nil, err
			}
			return snapshot(sess, rec.GraphText), nil
		case !errors.Is(err, session.ErrNotFound):
			return nil, fmt.Errorf("load session %q: %w", key, err)
		}
	}

	sess, err := session.New(key)
	if err != nil {
		return nil, err
	}
	if templateID != "" {
		g, err := s.loadTemplateGraph(ctx, templateID)
		if err != nil {
			return nil, err
		}
		sess.Graph = g
		sess.TemplateName = templateID
	}
	text := dot.Serialize(sess.Graph)
	if s.saver != nil {
		if err := s.saver.Save(ctx, sess.Record(text)); err != nil {
			return nil, fmt.Errorf("persist session %q: %w", key, err)
		}
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return snapshot(sess, text), nil
}

// Apply merges an interpreted delta into the session graph and records
// the instruction in the history. The merge runs on a clone, and the
// record is persisted before the in-memory session is touched, so any
// failure leaves the session exactly as it was.
func (s *SessionService) Apply(ctx context.Context, key, instruction string, d *delta.Delta) (*dto.SessionState, error) {
	if !session.ValidKey(key) {
		return nil, session.ErrInvalidKey
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, dto.ErrEmptyInstruction
	}
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	if s.applyHook != nil {
		s.applyHook()
	}

	sess, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	next, err := s.merger.Merge(sess.Graph, d)
	if err != nil {
		return nil, err
	}

	text := dot.Serialize(next)
	now := time.Now().UTC()
	hist := append(append([]string(nil), sess.History...), instruction)
	if s.saver != nil {
		rec := &session.Record{
			Key:          key,
			GraphText:    text,
			History:      hist,
			TemplateName: sess.TemplateName,
			UpdatedAt:    now,
		}
		if err := s.saver.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist session %q: %w", key, err)
		}
	}

	sess.Previous = sess.Graph
	sess.Graph = next
	sess.History = hist
	sess.UpdatedAt = now
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return snapshot(sess, text), nil
}

// Undo restores the graph from before the most recent Apply. Only one
// level is kept; a second consecutive undo fails with
// dto.ErrNothingToUndo.
func (s *SessionService) Undo(ctx context.Context, key string) (*dto.SessionState, error) {
	if !session.ValidKey(key) {
		return nil, session.ErrInvalidKey
	}
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	if s.applyHook != nil {
		s.applyHook()
	}

	sess, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.Previous == nil {
		return nil, dto.ErrNothingToUndo
	}

	prev := sess.Previous
	text := dot.Serialize(prev)
	now := time.Now().UTC()
	hist := append([]string(nil), sess.History...)
	if len(hist) > 0 {
		hist = hist[:len(hist)-1]
	}
	if s.saver != nil {
		rec := &session.Record{
			Key:          key,
			GraphText:    text,
			History:      hist,
			TemplateName: sess.TemplateName,
			UpdatedAt:    now,
		}
		if err := s.saver.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist session %q: %w", key, err)
		}
	}

	sess.Graph = prev
	sess.Previous = nil
	sess.History = hist
	sess.UpdatedAt = now
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return snapshot(sess, text), nil
}

// LoadTemplate replaces the session graph with a named template,
// clearing the history and the undo slot. The session is created on the
// fly when it does not exist yet.
func (s *SessionService) LoadTemplate(ctx context.Context, key, templateID string) (*dto.SessionState, error) {
	if !session.ValidKey(key) {
		return nil, session.ErrInvalidKey
	}
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	if s.applyHook != nil {
		s.applyHook()
	}

	sess, err := s.repo.Get(ctx, key)
	if errors.Is(err, session.ErrNotFound) {
		sess, err = session.New(key)
	}
	if err != nil {
		return nil, err
	}

	g, err := s.loadTemplateGraph(ctx, templateID)
	if err != nil {
		return nil, err
	}

	text := dot.Serialize(g)
	now := time.Now().UTC()
	if s.saver != nil {
		rec := &session.Record{
			Key:          key,
			GraphText:    text,
			TemplateName: templateID,
			UpdatedAt:    now,
		}
		if err := s.saver.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist session %q: %w", key, err)
		}
	}

	sess.Graph = g
	sess.Previous = nil
	sess.History = nil
	sess.TemplateName = templateID
	sess.UpdatedAt = now
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return snapshot(sess, text), nil
}

// Clone copies an existing session's graph, history, and template name
// under a new key. The destination key must be free on both the live
// repository and the durable store. Committed graphs are never mutated
// in place, so the source snapshot stays consistent even though its
// lock is released before the destination is written.
func (s *SessionService) Clone(ctx context.Context, srcKey, dstKey string) (*dto.SessionState, error) {
	if !session.ValidKey(srcKey) || !session.ValidKey(dstKey) {
		return nil, session.ErrInvalidKey
	}
	if srcKey == dstKey {
		return nil, fmt.Errorf("clone session %q onto itself: %w", srcKey, session.ErrAlreadyExists)
	}

	src, err := s.State(ctx, srcKey)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(dstKey)
	mu.Lock()
	defer mu.Unlock()
	if s.applyHook != nil {
		s.applyHook()
	}

	if _, err := s.repo.Get(ctx, dstKey); err == nil {
		return nil, fmt.Errorf("clone to session %q: %w", dstKey, session.ErrAlreadyExists)
	} else if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}
	if s.saver != nil {
		if _, err := s.saver.Load(ctx, dstKey); err == nil {
			return nil, fmt.Errorf("clone to session %q: %w", dstKey, session.ErrAlreadyExists)
		} else if !errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("load session %q: %w", dstKey, err)
		}
	}

	sess, err := session.New(dstKey)
	if err != nil {
		return nil, err
	}
	sess.Graph = src.Graph.Clone()
	sess.History = append([]string(nil), src.History...)
	sess.TemplateName = src.TemplateName

	text := dot.Serialize(sess.Graph)
	if s.saver != nil {
		if err := s.saver.Save(ctx, sess.Record(text)); err != nil {
			return nil, fmt.Errorf("persist session %q: %w", dstKey, err)
		}
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return snapshot(sess, text), nil
}

// State returns a consistent snapshot of the live session.
func (s *SessionService) State(ctx context.Context, key string) (*dto.SessionState, error) {
	if !session.ValidKey(key) {
		return nil, session.ErrInvalidKey
	}
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	if s.applyHook != nil {
		s.applyHook()
	}

	sess, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return snapshot(sess, dot.Serialize(sess.Graph)), nil
}

// Sessions snapshots every live session, most useful for diagnostics.
// Each session is snapshotted under its own lock.
func (s *SessionService) Sessions(ctx context.Context) ([]*dto.SessionState, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]*dto.SessionState, 0, len(all))
	for _, sess := range all {
		st, err := s.State(ctx, sess.Key)
		if errors.Is(err, session.ErrNotFound) {
			continue // deleted between List and State
		}
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, nil
}

// Count reports the number of live sessions.
func (s *SessionService) Count(ctx context.Context) (int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Delete removes the session from memory and, when a saver is
// configured, from durable storage. It returns session.ErrNotFound only
// when neither side had it.
func (s *SessionService) Delete(ctx context.Context, key string) error {
	if !session.ValidKey(key) {
		return session.ErrInvalidKey
	}
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	if s.applyHook != nil {
		s.applyHook()
	}

	err := s.repo.Delete(ctx, key)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	missing := errors.Is(err, session.ErrNotFound)
	if s.saver != nil {
		switch serr := s.saver.Delete(ctx, key); {
		case serr == nil:
			missing = false
		case errors.Is(serr, session.ErrNotFound):
		default:
			return fmt.Errorf("delete session %q: %w", key, serr)
		}
	}
	if missing {
		return session.ErrNotFound
	}
	return nil
}

// loadTemplateGraph resolves a template id through the configured
// source.
func (s *SessionService) loadTemplateGraph(ctx context.Context, templateID string) (*flow.Graph, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("template %q: %w", templateID, dto.ErrTemplateNotFound)
	}
	g, err := s.templates.Load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// rehydrate rebuilds a live session from its persisted record.
func rehydrate(rec *session.Record) (*session.Session, error) {
	g, err := dot.Parse(rec.GraphText)
	if err != nil {
		return nil, fmt.Errorf("rehydrate session %q: %w", rec.Key, err)
	}
	return &session.Session{
		Key:          rec.Key,
		Graph:        g,
		History:      append([]string(nil), rec.History...),
		TemplateName: rec.TemplateName,
		CreatedAt:    rec.UpdatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

func snapshot(sess *session.Session, text string) *dto.SessionState {
	return &dto.SessionState{
		Key:          sess.Key,
		Graph:        sess.Graph,
		Text:         text,
		History:      append([]string(nil), sess.History...),
		TemplateName: sess.TemplateName,
		UpdatedAt:    sess.UpdatedAt,
	}
}
