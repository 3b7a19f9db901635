package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"study-quiz/internal/domain"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// cacheField is one hash field row.
type cacheField struct {
	Key       string `db:"cache_key"`
	Field     string `db:"field"`
	Value     string `db:"value"`
	ExpiresAt int64  `db:"expires_at_ms"`
}

// SQLiteCacheAdapter implements domain.Cache in a local SQLite file. The CLI
// uses it so a stored credential and the last upload survive between runs.
type SQLiteCacheAdapter struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLiteCacheAdapter opens (creating if needed) the store at path.
func NewSQLiteCacheAdapter(path string) (*SQLiteCacheAdapter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite store path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := newSQLiteCacheAdapter(db)
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func newSQLiteCacheAdapter(db *sqlx.DB) *SQLiteCacheAdapter {
	return &SQLiteCacheAdapter{db: db, now: time.Now}
}

func (s *SQLiteCacheAdapter) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cache_fields (
			cache_key TEXT NOT NULL,
			field TEXT NOT NULL,
			value TEXT NOT NULL,
			-- 0 means no expiry
			expires_at_ms INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (cache_key, field)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cache_fields_expiry ON cache_fields(expires_at_ms);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteCacheAdapter) Close() error {
	return s.db.Close()
}

// purge drops the expired rows of key.
func (s *SQLiteCacheAdapter) purge(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_fields WHERE cache_key = ? AND expires_at_ms != 0 AND expires_at_ms <= ?`,
		key, s.now().UnixMilli())
	return err
}

func (s *SQLiteCacheAdapter) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_fields WHERE cache_key = ?`, key)
	return err
}

func (s *SQLiteCacheAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// HGet returns domain.ErrCacheMiss for a missing or expired field.
func (s *SQLiteCacheAdapter) HGet(ctx context.Context, key, field string) (string, error) {
	if err := s.purge(ctx, key); err != nil {
		return "", err
	}
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM cache_fields WHERE cache_key = ? AND field = ?`, key, field)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLiteCacheAdapter) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if err := s.purge(ctx, key); err != nil {
		return nil, err
	}
	var rows []cacheField
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT cache_key, field, value, expires_at_ms FROM cache_fields WHERE cache_key = ?`, key); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Field] = row.Value
	}
	return out, nil
}

// HSet keeps the expiry the key already has, as Redis does.
func (s *SQLiteCacheAdapter) HSet(ctx context.Context, key string, field string, value string) error {
	if err := s.purge(ctx, key); err != nil {
		return err
	}
	query := `INSERT INTO cache_fields (cache_key, field, value, expires_at_ms)
		VALUES (:cache_key, :field, :value,
			COALESCE((SELECT MAX(expires_at_ms) FROM cache_fields WHERE cache_key = :cache_key), 0))
		ON CONFLICT(cache_key, field) DO UPDATE SET value = excluded.value`
	_, err := s.db.NamedExecContext(ctx, query, cacheField{Key: key, Field: field, Value: value})
	return err
}

// Expire mirrors Redis: a non-positive duration removes the key.
func (s *SQLiteCacheAdapter) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if expiration <= 0 {
		return s.Delete(ctx, key)
	}
	if err := s.purge(ctx, key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE cache_fields SET expires_at_ms = ? WHERE cache_key = ?`,
		s.now().Add(expiration).UnixMilli(), key)
	return err
}
