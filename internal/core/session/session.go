// Package session provides the core editing-session domain entities
// and persistence interfaces with zero external dependencies.
package session

import (
	"regexp"
	"strings"
	"time"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

// keyPattern matches sanitized session keys, which double as
// filesystem- and SQL-safe identifiers.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// unsafeKeyChars matches everything KeyFromEmail replaces.
var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// KeyFromEmail derives a session key from a user email address by
// replacing every character outside [a-zA-Z0-9_-] with an underscore.
// Distinct emails can collide after sanitizing; the caller owns that
// trade-off.
func KeyFromEmail(email string) string {
	return unsafeKeyChars.ReplaceAllString(strings.TrimSpace(email), "_")
}

// ValidKey reports whether key is a usable sanitized session key.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Session represents one user's live flowchart editing session. The
// graph pointer is replaced wholesale on every successful merge, so a
// previously returned graph is never mutated behind a reader's back.
// Previous holds the pre-merge graph for single-level undo.
type Session struct {
	Key          string      `json:"key"`
	Graph        *flow.Graph `json:"-"`
	Previous     *flow.Graph `json:"-"`
	History      []string    `json:"history"`
	TemplateName string      `json:"template_name,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// New creates an empty session for the given sanitized key.
func New(key string) (*Session, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}
	now := time.Now().UTC()
	return &Session{
		Key:       key,
		Graph:     flow.NewGraph(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate ensures session integrity.
func (s *Session) Validate() error {
	if !ValidKey(s.Key) {
		return ErrInvalidKey
	}
	if s.Graph == nil {
		return ErrNilGraph
	}
	return nil
}

// Record builds the persisted form of the session around the given
// canonical graph text. History is copied so later edits to the
// session cannot leak into a record already handed to a saver.
func (s *Session) Record(graphText string) *Record {
	return &Record{
		Key:          s.Key,
		GraphText:    graphText,
		History:      append([]string(nil), s.History...),
		TemplateName: s.TemplateName,
		UpdatedAt:    s.UpdatedAt,
	}
}
