package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db         *sql.DB
	quotaBytes int64
}

// NewSQLiteStore opens (creating if needed) the store at dbPath. quotaKB <= 0
// disables the quota.
func NewSQLiteStore(dbPath string, quotaKB int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db, quotaBytes: int64(quotaKB) * 1024}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := decode(key, payload, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	payload, err := encode(key, value)
	if err != nil {
		return err
	}
	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write %s: %w", key, err)
	}
	defer func() { _ = txn.Rollback() }()

	if s.quotaBytes > 0 {
		var others int64
		const sizeOthers = `SELECT COALESCE(SUM(length(key) + length(value)), 0) FROM kv WHERE key <> ?`
		if err := txn.QueryRowContext(ctx, sizeOthers, key).Scan(&others); err != nil {
			return fmt.Errorf("measure store: %w", err)
		}
		if others+int64(len(key)+len(payload)) > s.quotaBytes {
			return fmt.Errorf("write %s: %w", key, ErrQuotaExceeded)
		}
	}

	const upsert = `
INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value;
`
	if _, err := txn.ExecContext(ctx, upsert, key, payload); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ApproximateSizeKB(ctx context.Context) (float64, error) {
	var total int64
	const q = `SELECT COALESCE(SUM(length(key) + length(value)), 0) FROM kv`
	if err := s.db.QueryRowContext(ctx, q).Scan(&total); err != nil {
		return 0, fmt.Errorf("measure store: %w", err)
	}
	return toKB(total), nil
}
