// Package history keeps a SQLite log of extraction requests.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tinyland-inc/dokbot/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	channel       TEXT    NOT NULL DEFAULT '',
	chat_id       TEXT    NOT NULL DEFAULT '',
	document_type TEXT    NOT NULL,
	status        TEXT    NOT NULL,
	code          INTEGER NOT NULL DEFAULT 0,
	message       TEXT    NOT NULL DEFAULT '',
	owner_name    TEXT    NOT NULL DEFAULT '',
	export_path   TEXT    NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS extractions_created_at ON extractions(created_at);
`

// Entry is one recorded extraction.
type Entry struct {
	ID           int64
	Channel      string
	ChatID       string
	DocumentType string
	Status       string
	Code         int
	Message      string
	OwnerName    string
	ExportPath   string
	CreatedAt    time.Time
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	logger.InfoCF("history", "History store opened", map[string]any{"path": path})
	return &Store{db: db}, nil
}

// Record stores e. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (channel, chat_id, document_type, status, code, message, owner_name, export_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Channel, e.ChatID, e.DocumentType, e.Status, e.Code, e.Message, e.OwnerName, e.ExportPath, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, chat_id, document_type, status, code, message, owner_name, export_path, created_at
		 FROM extractions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Channel, &e.ChatID, &e.DocumentType, &e.Status, &e.Code,
			&e.Message, &e.OwnerName, &e.ExportPath, &ms); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
