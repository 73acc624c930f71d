// Package history keeps a SQLite log of served translations.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one served translation.
type Entry struct {
	ID             int64     `json:"id"`
	SourceLang     string    `json:"source_lang"`
	TargetLang     string    `json:"target_lang"`
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	Engine         string    `json:"engine"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists entries.
type Store struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS translations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	source_lang     TEXT NOT NULL,
	target_lang     TEXT NOT NULL,
	original_text   TEXT NOT NULL,
	translated_text TEXT NOT NULL,
	engine          TEXT NOT NULL,
	created_at      INTEGER NOT NULL
)`

// Open opens (creating if needed) the database at path. ":memory:" gives a
// throwaway store.
func Open(path string) (*Store, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand history path: %w", err)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends e. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (source_lang, target_lang, original_text, translated_text, engine, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.SourceLang, e.TargetLang, e.OriginalText, e.TranslatedText, e.Engine, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record translation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_lang, target_lang, original_text, translated_text, engine, created_at
		 FROM translations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := []Entry{}
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.OriginalText, &e.TranslatedText, &e.Engine, &ms); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ms)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
