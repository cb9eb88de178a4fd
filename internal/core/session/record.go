package session

import (
	"context"
	"time"
)

// Record is the durable form of a session: the canonical graph text
// plus the instruction history that produced it.
type Record struct {
	Key          string    `json:"key"`
	GraphText    string    `json:"graph_text"`
	History      []string  `json:"history,omitempty"`
	TemplateName string    `json:"template_name,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate ensures record integrity.
func (r *Record) Validate() error {
	if !ValidKey(r.Key) {
		return ErrInvalidKey
	}
	if r.GraphText == "" {
		return ErrEmptyGraphText
	}
	return nil
}

// Saver persists session records across process restarts.
type Saver interface {
	// Save upserts a record under its key.
	Save(ctx context.Context, record *Record) error

	// Load retrieves a record by session key.
	Load(ctx context.Context, key string) (*Record, error)

	// List returns records matching the filter, most recent first.
	List(ctx context.Context, filter Filter) ([]*Record, error)

	// Delete removes a record by session key.
	Delete(ctx context.Context, key string) error
}

// Filter narrows List queries.
type Filter struct {
	KeyPrefix    string     `json:"key_prefix,omitempty"`
	UpdatedSince *time.Time `json:"updated_since,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// Validate ensures filter parameters are valid.
func (f *Filter) Validate() error {
	if f.Limit < 0 {
		return ErrInvalidLimit
	}
	if f.Offset < 0 {
		return ErrInvalidOffset
	}
	return nil
}
