package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineflix/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ErrConflictCode = "23505"

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        text PRIMARY KEY,
	value      bytea NOT NULL,
	version    bigint NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

type PostgresDB struct {
	Conn *pgxpool.Pool
}

func New(ctx context.Context, dsn string, maxConns int, maxConnIdleTime time.Duration) (*PostgresDB, error) {
	const op = "storage.postgres.New"
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	if maxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = maxConnIdleTime
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, storage.Unavailable(op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storage.Unavailable(op, err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: create schema: %w", op, err)
	}
	return &PostgresDB{Conn: pool}, nil
}

func (db *PostgresDB) Get(ctx context.Context, key string) (storage.Item, error) {
	const op = "storage.postgres.Get"
	var item storage.Item
	err := db.Conn.QueryRow(ctx, `SELECT value, version FROM kv WHERE key = $1`, key).
		Scan(&item.Value, &item.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Item{}, storage.ErrNotFound
		}
		return storage.Item{}, storage.Unavailable(op, err)
	}
	return item, nil
}

func (db *PostgresDB) Set(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	const op = "storage.postgres.Set"
	var (
		version int64
		err     error
	)
	switch expected {
	case storage.AnyVersion:
		err = db.Conn.QueryRow(ctx,
			`INSERT INTO kv (key, value, version) VALUES ($1, $2, 1)
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, version = kv.version + 1, updated_at = now()
			RETURNING version`,
			key, value,
		).Scan(&version)
	case 0:
		err = db.Conn.QueryRow(ctx,
			`INSERT INTO kv (key, value, version) VALUES ($1, $2, 1) RETURNING version`,
			key, value,
		).Scan(&version)
	default:
		err = db.Conn.QueryRow(ctx,
			`UPDATE kv SET value = $1, version = version + 1, updated_at = now()
			WHERE key = $2 AND version = $3 RETURNING version`,
			value, key, expected,
		).Scan(&version)
	}
	if err != nil {
		var pgxErr *pgconn.PgError
		switch {
		case errors.As(err, &pgxErr) && pgxErr.Code == ErrConflictCode:
			return 0, storage.ErrConflict
		case errors.Is(err, pgx.ErrNoRows):
			return 0, storage.ErrConflict
		}
		return 0, storage.Unavailable(op, err)
	}
	return version, nil
}

func (db *PostgresDB) Delete(ctx context.Context, key string) error {
	const op = "storage.postgres.Delete"
	if _, err := db.Conn.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key); err != nil {
		return storage.Unavailable(op, err)
	}
	return nil
}

func (db *PostgresDB) Close() error {
	db.Conn.Close()
	return nil
}
