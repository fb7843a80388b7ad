// Package store keeps a sqlite history of locate runs.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrLocked is returned by Open when another process holds the store.
	ErrLocked = errors.New("store: database is locked by another process")

	// ErrNotFound is returned when no matching record exists.
	ErrNotFound = errors.New("store: record not found")
)

// Record is one locate run.
type Record struct {
	ID          uuid.UUID `json:"id"`
	PostingName string    `json:"posting_name"`
	PostingSHA  string    `json:"posting_sha256"`
	PlaceID     string    `json:"place_id,omitempty"`
	Answer      string    `json:"answer,omitempty"`
	Error       string    `json:"error,omitempty"`
	Model       string    `json:"model"`
	Turns       int       `json:"turns"`
	CreatedAt   time.Time `json:"created_at"`
}

// OK reports whether the run produced a place ID.
func (r Record) OK() bool {
	return r.Error == "" && r.PlaceID != ""
}

// PostingSHA returns the hex sha256 of a posting text.
func PostingSHA(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SQLiteStore records runs in a sqlite database guarded by an exclusive
// file lock on <path>.lock.
type SQLiteStore struct {
	db   *sql.DB
	lock *flock.Flock
}

// Open opens (or creates) the database at path and takes the lock. It fails
// with ErrLocked when another process already holds it.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking store: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		posting_name TEXT NOT NULL,
		posting_sha  TEXT NOT NULL,
		place_id     TEXT NOT NULL DEFAULT '',
		answer       TEXT NOT NULL DEFAULT '',
		error        TEXT NOT NULL DEFAULT '',
		model        TEXT NOT NULL DEFAULT '',
		turns        INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS runs_posting_sha ON runs (posting_sha, created_at)`
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("creating runs table: %w", err)
	}

	return &SQLiteStore{db: db, lock: lock}, nil
}

// Save inserts rec, filling in ID and CreatedAt when unset.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, posting_name, posting_sha, place_id, answer, error, model, turns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.PostingName, rec.PostingSHA, rec.PlaceID, rec.Answer,
		rec.Error, rec.Model, rec.Turns, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", rec.ID, err)
	}
	return nil
}

const selectRuns = `SELECT id, posting_name, posting_sha, place_id, answer, error, model, turns, created_at FROM runs`

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestFor returns the newest successful record for a posting hash.
func (s *SQLiteStore) LatestFor(ctx context.Context, sha string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		selectRuns+` WHERE posting_sha = ? AND place_id != '' AND error = '' ORDER BY created_at DESC LIMIT 1`, sha)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec       Record
		id        string
		createdAt string
	)
	if err := sc.Scan(&id, &rec.PostingName, &rec.PostingSHA, &rec.PlaceID, &rec.Answer,
		&rec.Error, &rec.Model, &rec.Turns, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scanning run: %w", err)
	}

	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("parsing run id %q: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Record{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	return rec, nil
}

// Close closes the database and releases the lock.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	err := s.db.Close()
	if uerr := s.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}
