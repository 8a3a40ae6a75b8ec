package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"folio-server/src/query"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createSnapshotTable = `
	CREATE TABLE IF NOT EXISTS cache_snapshots (
		key      TEXT PRIMARY KEY,
		data     JSONB NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL
	)
`

func EnsureSnapshotTable(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createSnapshotTable); err != nil {
		return fmt.Errorf("create cache_snapshots: %w", err)
	}
	return nil
}

func GetSnapshot(ctx context.Context, pool *pgxpool.Pool, key string) ([]byte, time.Time, error) {
	var data []byte
	var savedAt time.Time
	stmt := `
		SELECT data, saved_at
		FROM cache_snapshots
		WHERE key = $1
	`
	err := pool.QueryRow(ctx, stmt, key).Scan(&data, &savedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, query.ErrNoSnapshot
		}
		return nil, time.Time{}, fmt.Errorf("query error: %w", err)
	}
	return data, savedAt, nil
}

// UpsertSnapshot never lets an older payload overwrite a newer one.
func UpsertSnapshot(ctx context.Context, pool *pgxpool.Pool, key string, data []byte, savedAt time.Time) error {
	stmt := `
		INSERT INTO cache_snapshots (key, data, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data, saved_at = EXCLUDED.saved_at
		WHERE cache_snapshots.saved_at <= EXCLUDED.saved_at
	`
	if _, err := pool.Exec(ctx, stmt, key, data, savedAt); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", key, err)
	}
	return nil
}

// Snapshots is the Postgres-backed query.SnapshotStore.
type Snapshots struct {
	Pool *pgxpool.Pool
}

func (s Snapshots) Load(ctx context.Context, key string) ([]byte, time.Time, error) {
	return GetSnapshot(ctx, s.Pool, key)
}

func (s Snapshots) Save(ctx context.Context, key string, data []byte, savedAt time.Time) error {
	return UpsertSnapshot(ctx, s.Pool, key, data, savedAt)
}
