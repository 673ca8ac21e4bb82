// Package history records runs in a SQLite database so callers can list and
// replay earlier programs.
package history

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	"github.com/anubad-lang/anubad"
)

// ErrNotFound is returned by Get for an unknown record ID
var ErrNotFound = errors.New("history record not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	digest     TEXT NOT NULL,
	source     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	display    TEXT NOT NULL,
	line       INTEGER NOT NULL DEFAULT 0,
	steps      INTEGER NOT NULL DEFAULT 0,
	elapsed_ns INTEGER NOT NULL DEFAULT 0,
	created_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created ON runs (created_ns);
CREATE INDEX IF NOT EXISTS runs_digest ON runs (digest);
`

// Record is one stored run
type Record struct {
	ID        string
	Digest    string
	Source    string
	Kind      string
	Display   string
	Line      int
	Steps     int64
	Elapsed   time.Duration
	CreatedAt time.Time
}

// Store is a run history backed by a SQLite file
type Store struct {
	db     *sql.DB
	logger *anubad.Logger
}

// Open opens (creating if needed) the history database at path
func Open(path string, logger *anubad.Logger) (*Store, error) {
	if logger == nil {
		logger = anubad.NewLoggerTo(io.Discard, false)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	logger.Debug(anubad.CatHistory, "Opened history database %s", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Digest returns the hex BLAKE3 digest of source, after NFC normalization
func Digest(source string) string {
	sum := blake3.Sum256([]byte(anubad.NormalizeSource(source)))
	return hex.EncodeToString(sum[:])
}

// Record stores one finished run and returns it with its new ID
func (s *Store) Record(ctx context.Context, source string, result anubad.Result, elapsed time.Duration) (*Record, error) {
	rec := &Record{
		ID:        uuid.New().String(),
		Digest:    Digest(source),
		Source:    source,
		Kind:      anubad.ResultKind(result),
		Display:   anubad.Format(result),
		Line:      anubad.ResultLine(result),
		Elapsed:   elapsed,
		CreatedAt: time.Now(),
	}
	switch r := result.(type) {
	case *anubad.Output:
		rec.Steps = r.Steps
	case *anubad.TimeoutError:
		rec.Steps = r.Steps
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, digest, source, kind, display, line, steps, elapsed_ns, created_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Digest, rec.Source, rec.Kind, rec.Display, rec.Line, rec.Steps,
		int64(rec.Elapsed), rec.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	s.logger.Debug(anubad.CatHistory, "Recorded run %s (%s)", rec.ID, rec.Kind)
	return rec, nil
}

const selectColumns = `SELECT id, digest, source, kind, display, line, steps, elapsed_ns, created_ns FROM runs`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec       Record
		elapsed   int64
		createdNs int64
	)
	if err := row.Scan(&rec.ID, &rec.Digest, &rec.Source, &rec.Kind, &rec.Display, &rec.Line, &rec.Steps, &elapsed, &createdNs); err != nil {
		return nil, err
	}
	rec.Elapsed = time.Duration(elapsed)
	rec.CreatedAt = time.Unix(0, createdNs)
	return &rec, nil
}

// Get returns the record with the given ID. A unique prefix of the ID is
// also accepted; it is matched literally.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	id = strings.ToLower(id)
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE substr(id, 1, length(?)) = ? ORDER BY created_ns DESC LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	records, err := collect(rows)
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return records[0], nil
	}
	return nil, fmt.Errorf("history ID prefix %q is ambiguous", id)
}

// Recent returns up to limit records, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// ByDigest returns every run of the same source text, newest first
func (s *Store) ByDigest(ctx context.Context, digest string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE digest = ? ORDER BY created_ns DESC`, digest)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return records, nil
}
