package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore keeps every record in a single SQLite table, with the full
// record stored as a JSON payload.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "cabida.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		request_key TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create calculations table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS calculations_request_key ON calculations(request_key)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create request key index: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Put replaces any earlier record for the same request key.
func (s *SQLiteStore) Put(ctx context.Context, rec Record) (retErr error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calculations WHERE request_key = ?`, rec.Key); err != nil {
		return fmt.Errorf("delete previous %s: %w", rec.Key, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO calculations(id, request_key, created_at, payload) VALUES(?,?,?,?)`,
		rec.ID.String(), rec.Key, rec.CreatedAt.UnixNano(), payload,
	); err != nil {
		return fmt.Errorf("insert %s: %w", rec.ID, err)
	}
	return tx.Commit()
}

// Lookup returns the newest record stored for key.
func (s *SQLiteStore) Lookup(ctx context.Context, key string) (Record, error) {
	return s.one(ctx, `SELECT payload FROM calculations WHERE request_key = ? ORDER BY created_at DESC LIMIT 1`, key)
}

// Get returns the record with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	return s.one(ctx, `SELECT payload FROM calculations WHERE id = ?`, id.String())
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM calculations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) one(ctx context.Context, query string, arg any) (Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select record: %w", err)
	}
	return decode(payload)
}

func decode(payload []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// Path returns the configured database path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
