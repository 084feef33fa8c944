package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/serial"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	params     INTEGER NOT NULL,
	free       INTEGER NOT NULL,
	reparam    TEXT NOT NULL DEFAULT '',
	note       TEXT NOT NULL DEFAULT '',
	snapshot   BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_params (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	value       REAL NOT NULL,
	free        INTEGER NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);`

// SQLite keeps snapshots in a single database file.
type SQLite struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLite) Save(ctx context.Context, m *model.Model, note string) (Metadata, error) {
	snap, err := serial.Take(m)
	if err != nil {
		return Metadata{}, err
	}
	blob, err := json.Marshal(snap)
	if err != nil {
		return Metadata{}, err
	}
	meta := newMetadata(m, note)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, model, created_at, params, free, reparam, note, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Model, toMillis(meta.Timestamp), meta.Params, meta.Free, meta.Reparam, meta.Note, blob,
	)
	if err != nil {
		return Metadata{}, fmt.Errorf("insert snapshot: %w", err)
	}
	for i, r := range paramRows(m) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_params (snapshot_id, position, name, value, free) VALUES (?, ?, ?, ?, ?)`,
			meta.ID, i, r.Name, r.Value, boolToInt(r.Free),
		)
		if err != nil {
			return Metadata{}, fmt.Errorf("insert param %s: %w", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Metadata{}, fmt.Errorf("commit: %w", err)
	}
	return meta, nil
}

func (s *SQLite) List(ctx context.Context) ([]Metadata, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, model, created_at, params, free, reparam, note FROM snapshots ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]Metadata, 0)
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner, extra ...any) (Metadata, error) {
	var meta Metadata
	var created int64
	dest := append([]any{&meta.ID, &meta.Model, &created, &meta.Params, &meta.Free, &meta.Reparam, &meta.Note}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Metadata{}, err
	}
	meta.Timestamp = fromMillis(created)
	return meta, nil
}

func (s *SQLite) Load(ctx context.Context, id string) (*serial.Snapshot, Metadata, error) {
	var blob []byte
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, model, created_at, params, free, reparam, note, snapshot FROM snapshots WHERE id = ?`, id)
	meta, err := scanMetadata(row, &blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, Metadata{}, fmt.Errorf("load snapshot: %w", err)
	}

	var snap serial.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %v", serial.ErrMalformed, err)
	}
	return &snap, meta, nil
}

// LoadParams reads the working parameter table stored with a snapshot.
func (s *SQLite) LoadParams(ctx context.Context, id string) ([]ParamRow, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, value, free FROM snapshot_params WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}
	defer rows.Close()

	out := make([]ParamRow, 0)
	for rows.Next() {
		var r ParamRow
		var free int
		if err := rows.Scan(&r.Name, &r.Value, &free); err != nil {
			return nil, err
		}
		r.Free = free != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
