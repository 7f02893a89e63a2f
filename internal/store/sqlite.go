package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cache is a local SQLite cache for Places API responses. Nearby searches
// are slow and metered, so each (location, radius, kind) query is cached
// with a TTL.
type Cache struct {
	db *sql.DB
}

// NewCache opens a SQLite database at the given path and configures WAL mode.
func NewCache(dsn string) (*Cache, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			_ = sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &Cache{db: sqlDB}, nil
}

const cacheMigration = `
CREATE TABLE IF NOT EXISTS places_cache (
	id         TEXT PRIMARY KEY,
	cache_key  TEXT NOT NULL UNIQUE,
	data       TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_places_cache_key ON places_cache(cache_key);
CREATE INDEX IF NOT EXISTS idx_places_cache_expires ON places_cache(expires_at);
`

func (c *Cache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, cacheMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached payload for key, or ok=false when the entry is
// missing or expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM places_cache WHERE cache_key = ? AND expires_at > ?`,
		key, time.Now().UTC(),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, eris.Wrapf(err, "sqlite: get %s", key)
	}
	return data, true, nil
}

// Put stores a payload under key with the given TTL, replacing any
// previous entry.
func (c *Cache) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO places_cache (id, cache_key, data, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET data = excluded.data,
		   cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		uuid.New().String(), key, data, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: put %s", key)
}

// Purge deletes expired entries and reports how many were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM places_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge rows affected")
	}
	return int(n), nil
}
