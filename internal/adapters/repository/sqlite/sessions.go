package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/codec"
)

// SessionSaver implements session.Saver on SQLite. The graph text is
// stored as-is so the table stays inspectable with the sqlite3 shell;
// the instruction history is packed through the configured serializer.
type SessionSaver struct {
	db         *sql.DB
	serializer *codec.Serializer
	tableName  string
}

// NewSessionSaver creates a SQLite session saver on an open database.
func NewSessionSaver(db *sql.DB, serializer *codec.Serializer) *SessionSaver {
	return &SessionSaver{
		db:         db,
		serializer: serializer,
		tableName:  "sessions",
	}
}

// Open opens (or creates) a SQLite database file and returns a saver
// with its table in place.
func Open(ctx context.Context, path string, serializer *codec.Serializer) (*SessionSaver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	s := NewSessionSaver(db, serializer)
	if err := s.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// WithTableName overrides the default table name. Only alphanumerics
// and underscore are accepted so the identifier cannot smuggle SQL.
func (s *SessionSaver) WithTableName(name string) *SessionSaver {
	if isSafeIdent(name) {
		s.tableName = name
	}
	return s
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return false
	}
	return true
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
		INSERT OR REPLACE INTO %s (key, graph_text, history, template_name, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		rec.Key, rec.GraphText, history, rec.TemplateName, rec.UpdatedAt.Unix())
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
		WHERE key = ?
	`, s.tableName)

	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", session.ErrLoadFailed, err)
	}
	return rec, nil
}

// List retrieves session records matching the filter, newest first.
func (s *SessionSaver) List(ctx context.Context, filter session.Filter) ([]*session.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query, args := s.buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrLoadFailed, err)
	}
	defer rows.Close()

	var records []*session.Record
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", session.ErrLoadFailed, err)
		}
		records = append(records, rec)
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

	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", s.tableName)
	result, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrDeleteFailed, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrDeleteFailed, err)
	}
	if affected == 0 {
		return session.ErrNotFound
	}
	return nil
}

// CreateTables creates the session table and its indexes.
func (s *SessionSaver) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			graph_text TEXT NOT NULL,
			history BLOB,
			template_name TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SessionSaver) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SessionSaver) scanRecord(row rowScanner) (*session.Record, error) {
	var rec session.Record
	var history []byte
	var updatedAt int64

	if err := row.Scan(&rec.Key, &rec.GraphText, &history, &rec.TemplateName, &updatedAt); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if len(history) > 0 {
		if err := s.serializer.Deserialize(history, &rec.History); err != nil {
			return nil, fmt.Errorf("failed to deserialize session history: %w", err)
		}
	}
	return &rec, nil
}

// buildListQuery constructs the filtered SELECT. SQLite accepts OFFSET
// only after a LIMIT, hence the LIMIT -1 placeholder.
func (s *SessionSaver) buildListQuery(filter session.Filter) (string, []interface{}) {
	query := fmt.Sprintf("SELECT key, graph_text, history, template_name, updated_at FROM %s WHERE 1=1", s.tableName)
	args := make([]interface{}, 0)

	if filter.KeyPrefix != "" {
		query += ` AND key LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(filter.KeyPrefix)+"%")
	}
	if filter.UpdatedSince != nil {
		query += " AND updated_at > ?"
		args = append(args, filter.UpdatedSince.Unix())
	}

	query += " ORDER BY updated_at DESC"

	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	return query, args
}

// escapeLike neutralizes LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
