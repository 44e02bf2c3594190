// ============================================================================
// descent - Recursive-Descent Front End
// ============================================================================
//
// Package:     store
// Description: SQLite persistence for parse history
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	dserror "github.com/msto63/descent/foundation/core/error"
)

// Record is one front-end run
type Record struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	Success    bool            `json:"success"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Error      string          `json:"error,omitempty"`
	Position   *int            `json:"position,omitempty"`
	TokenCount int             `json:"token_count"`
	NodeCount  int             `json:"node_count"`
	AST        json.RawMessage `json:"ast,omitempty"`
	Duration   time.Duration   `json:"duration_ns"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Statistics summarises the stored history
type Statistics struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	ByCode    map[string]int `json:"by_code"`
}

// HistoryStore defines the interface for parse history persistence
type HistoryStore interface {
	Add(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, limit, offset int) ([]*Record, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Statistics(ctx context.Context) (*Statistics, error)
	Close() error
}

// SQLiteHistoryStore implements HistoryStore using SQLite
type SQLiteHistoryStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	limit int
}

// SQLiteHistoryConfig holds configuration for the SQLite store
type SQLiteHistoryConfig struct {
	Path string
	// Limit is the number of records kept; older ones are pruned on insert
	Limit int
}

// DefaultHistoryConfig returns default configuration
func DefaultHistoryConfig() SQLiteHistoryConfig {
	return SQLiteHistoryConfig{
		Path:  "./data/history.db",
		Limit: 100,
	}
}

// NewSQLiteHistoryStore opens (and if needed creates) the history database
func NewSQLiteHistoryStore(cfg SQLiteHistoryConfig) (*SQLiteHistoryStore, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultHistoryConfig().Path
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultHistoryConfig().Limit
	}

	dsn := cfg.Path
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, dbError(err, "failed to create directory", "store.Open")
		}
		dsn += "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, dbError(err, "failed to open database", "store.Open")
	}
	// One connection keeps :memory: databases shared and writes serialised
	db.SetMaxOpenConns(1)

	store := &SQLiteHistoryStore{db: db, limit: cfg.Limit}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema", "store.Open")
	}
	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteHistoryStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS parses (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		success INTEGER NOT NULL,
		error_code TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		position INTEGER,
		token_count INTEGER NOT NULL DEFAULT 0,
		node_count INTEGER NOT NULL DEFAULT 0,
		ast TEXT,
		duration_ns INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_parses_error_code ON parses(error_code);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Add stores a record, assigning an ID and timestamp when missing, and
// prunes the history down to the configured limit
func (s *SQLiteHistoryStore) Add(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var position sql.NullInt64
	if rec.Position != nil {
		position = sql.NullInt64{Int64: int64(*rec.Position), Valid: true}
	}
	var ast sql.NullString
	if len(rec.AST) > 0 {
		ast = sql.NullString{String: string(rec.AST), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction", "store.Add")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO parses (id, source, success, error_code, error, position,
			token_count, node_count, ast, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Source, rec.Success, rec.ErrorCode, rec.Error, position,
		rec.TokenCount, rec.NodeCount, ast, int64(rec.Duration), rec.CreatedAt)
	if err != nil {
		return dbError(err, "failed to add record", "store.Add")
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM parses WHERE seq NOT IN (
			SELECT seq FROM parses ORDER BY seq DESC LIMIT ?
		)
	`, s.limit)
	if err != nil {
		return dbError(err, "failed to prune history", "store.Add")
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit record", "store.Add")
	}
	return nil
}

const selectColumns = `
	SELECT id, source, success, error_code, error, position,
		token_count, node_count, ast, duration_ns, created_at
	FROM parses`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var position sql.NullInt64
	var ast sql.NullString
	var duration int64

	err := row.Scan(&rec.ID, &rec.Source, &rec.Success, &rec.ErrorCode, &rec.Error, &position,
		&rec.TokenCount, &rec.NodeCount, &ast, &duration, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if position.Valid {
		p := int(position.Int64)
		rec.Position = &p
	}
	if ast.Valid {
		rec.AST = json.RawMessage(ast.String)
	}
	rec.Duration = time.Duration(duration)
	return &rec, nil
}

// Get retrieves a record by ID
func (s *SQLiteHistoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dserror.Newf("record not found: %s", id).
			WithCode(dserror.CodeNotFound).
			WithOperation("store.Get").
			WithDetail("id", id)
	}
	if err != nil {
		return nil, dbError(err, "failed to get record", "store.Get")
	}
	return rec, nil
}

// List returns records newest first
func (s *SQLiteHistoryStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = s.limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY seq DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, dbError(err, "failed to list records", "store.List")
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, dbError(err, "failed to scan record", "store.List")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to list records", "store.List")
	}
	return records, nil
}

// Delete removes a record
func (s *SQLiteHistoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM parses WHERE id = ?`, id)
	if err != nil {
		return dbError(err, "failed to delete record", "store.Delete")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return dserror.Newf("record not found: %s", id).
			WithCode(dserror.CodeNotFound).
			WithOperation("store.Delete").
			WithDetail("id", id)
	}
	return nil
}

// Clear removes all records
func (s *SQLiteHistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM parses`); err != nil {
		return dbError(err, "failed to clear history", "store.Clear")
	}
	return nil
}

// Statistics counts records by outcome and error code
func (s *SQLiteHistoryStore) Statistics(ctx context.Context) (*Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Statistics{ByCode: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT success, error_code, COUNT(*) FROM parses GROUP BY success, error_code
	`)
	if err != nil {
		return nil, dbError(err, "failed to collect statistics", "store.Statistics")
	}
	defer rows.Close()

	for rows.Next() {
		var success bool
		var code string
		var count int
		if err := rows.Scan(&success, &code, &count); err != nil {
			return nil, dbError(err, "failed to scan statistics", "store.Statistics")
		}
		stats.Total += count
		if success {
			stats.Succeeded += count
		} else {
			stats.Failed += count
			stats.ByCode[code] += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to collect statistics", "store.Statistics")
	}
	return stats, nil
}

// Close closes the database
func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}

func dbError(err error, message, operation string) error {
	return dserror.Wrap(err, message).
		WithCode(dserror.CodeDatabaseError).
		WithOperation(operation)
}
