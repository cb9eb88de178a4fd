package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/codec"
)

// SessionSaver implements session.Saver on PostgreSQL for deployments
// where several server instances share one durable store. Graph text
// stays a plain TEXT column; the history is packed through the
// configured serializer into BYTEA.
type SessionSaver struct {
	pool       *pgxpool.Pool
	serializer *codec.Serializer
	tableName  string
}

// NewSessionSaver creates a PostgreSQL session saver on an open pool.
func NewSessionSaver(pool *pgxpool.Pool, serializer *codec.Serializer) *SessionSaver {
	return &SessionSaver{
		pool:       pool,
		serializer: serializer,
		tableName:  "sessions",
	}
}

// Connect dials PostgreSQL and returns a saver with its table in place.
func Connect(ctx context.Context, dsn string, serializer *codec.Serializer) (*SessionSaver, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s := NewSessionSaver(pool, serializer)
	if err := s.CreateTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Save upserts a session record.
func (s *SessionSaver) Save(ctx context.Context, rec *session.Record) error {
	if rec == nil {
		return session.ErrInvalidKey
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	history, err := s.serializer.Serialize(rec.History)
	if err != nil {
		return fmt.Errorf("failed to serialize session history: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, graph_text, history, template_name, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			graph_text = EXCLUDED.graph_text,
			history = EXCLUDED.history,
			template_name = EXCLUDED.template_name,
			updated_at = EXCLUDED.updated_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		rec.Key, rec.GraphText, history, rec.TemplateName, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrSaveFailed, err)
	}
	return nil
}

// Load retrieves a session record by key.
func (s *SessionSaver) Load(ctx context.Context, key string) (*session.Record, error) {
	if key == "" {
		return nil, session.ErrInvalidKey
	}

	query := fmt.Sprintf(`
		SELECT key, graph_text, history, template_name, updated_at
		FROM %s
		WHERE key = $1
	`, s.tableName)

	var rec session.Record
	var history []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&rec.Key, &rec.GraphText, &history, &rec.TemplateName, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", session.ErrLoadFailed, err)
	}

	if len(history) > 0 {
		if err := s.serializer.Deserialize(history, &rec.History); err != nil {
			return nil, fmt.Errorf("failed to deserialize session history: %w", err)
		}
	}
	return &rec, nil
}

// List retrieves session records matching the filter, newest first.
func (s *SessionSaver) List(ctx context.Context, filter session.Filter) ([]*session.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query, args := s.buildListQuery(filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrLoadFailed, err)
	}
	defer rows.Close()

	var records []*session.Record
	for rows.Next() {
		var rec session.Record
		var history []byte
		if err := rows.Scan(&rec.Key, &rec.GraphText, &history, &rec.TemplateName, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", session.ErrLoadFailed, err)
		}
		if len(history) > 0 {
			if err := s.serializer.Deserialize(history, &rec.History); err != nil {
				return nil, fmt.Errorf("failed to deserialize session history: %w", err)
			}
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrLoadFailed, err)
	}
	return records, nil
}

// Delete removes a session record by key.
func (s *SessionSaver) Delete(ctx context.Context, key string) error {
	if key == "" {
		return session.ErrInvalidKey
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.tableName)
	result, err := s.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrDeleteFailed, err)
	}
	if result.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// CreateTables creates the session table and its indexes.
func (s *SessionSaver) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key VARCHAR(320) PRIMARY KEY,
			graph_text TEXT NOT NULL,
			history BYTEA,
			template_name VARCHAR(255) NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// buildListQuery constructs the filtered SELECT with $N placeholders.
func (s *SessionSaver) buildListQuery(filter session.Filter) (string, []interface{}) {
	query := fmt.Sprintf("SELECT key, graph_text, history, template_name, updated_at FROM %s WHERE 1=1", s.tableName)
	args := make([]interface{}, 0)
	argCount := 0

	if filter.KeyPrefix != "" {
		argCount++
		query += fmt.Sprintf(` AND key LIKE $%d ESCAPE '\'`, argCount)
		args = append(args, escapeLike(filter.KeyPrefix)+"%")
	}
	if filter.UpdatedSince != nil {
		argCount++
		query += fmt.Sprintf(" AND updated_at > $%d", argCount)
		args = append(args, *filter.UpdatedSince)
	}

	query += " ORDER BY updated_at DESC"

	if filter.Limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		argCount++
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	return query, args
}

// escapeLike neutralizes LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Close closes the connection pool.
func (s *SessionSaver) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
