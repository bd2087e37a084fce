// Package history keeps a flat log of answered questions in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ragagent/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT    NOT NULL,
	query      TEXT    NOT NULL,
	decision   TEXT    NOT NULL,
	tool_used  TEXT,
	answer     TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS history_created_at ON history (created_at);
`

// Entry is one logged question.
type Entry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Query     string    `json:"query"`
	Decision  string    `json:"decision"`
	ToolUsed  string    `json:"tool_used,omitempty"`
	Answer    string    `json:"answer"`
}

// Store is a SQLite-backed history log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the log at path. ":memory:" gives a private
// in-memory log.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=3000;"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append logs a processed query.
func (s *Store) Append(ctx context.Context, r domain.QueryResult) error {
	var tool sql.NullString
	if r.ToolUsed != nil {
		tool = sql.NullString{String: *r.ToolUsed, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (created_at, query, decision, tool_used, answer)
		VALUES (?, ?, ?, ?, ?)
	`, s.now().UTC().Format(time.RFC3339Nano), r.Query, r.Decision, tool, r.Answer)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, query, decision, tool_used, answer
		FROM history
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
			tool    sql.NullString
		)
		if err := rows.Scan(&e.ID, &created, &e.Query, &e.Decision, &tool, &e.Answer); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", e.ID, err)
		}
		e.ToolUsed = tool.String
		out = append(out, e)
	}
	return out, rows.Err()
}
