package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cineflix/proj/internal/storage"

	"github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key     TEXT PRIMARY KEY,
	value   BLOB NOT NULL,
	version INTEGER NOT NULL
)`

// Store keeps the record store in a single SQLite file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func New(ctx context.Context, path string) (*Store, error) {
	const op = "storage.sqlite.New"
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// one connection serialises writers and keeps ":memory:" a single database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storage.Unavailable(op, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: create schema: %w", op, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (storage.Item, error) {
	const op = "storage.sqlite.Get"
	var item storage.Item
	err := s.db.QueryRowContext(ctx, `SELECT value, version FROM kv WHERE key = ?`, key).
		Scan(&item.Value, &item.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Item{}, storage.ErrNotFound
		}
		return storage.Item{}, storage.Unavailable(op, err)
	}
	return item, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	const op = "storage.sqlite.Set"
	switch expected {
	case storage.AnyVersion:
		var version int64
		err := s.db.QueryRowContext(ctx,
			`INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1
			RETURNING version`,
			key, value,
		).Scan(&version)
		if err != nil {
			return 0, storage.Unavailable(op, err)
		}
		return version, nil
	case 0:
		_, err := s.db.ExecContext(ctx, `INSERT INTO kv (key, value, version) VALUES (?, ?, 1)`, key, value)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
				return 0, storage.ErrConflict
			}
			return 0, storage.Unavailable(op, err)
		}
		return 1, nil
	default:
		res, err := s.db.ExecContext(ctx,
			`UPDATE kv SET value = ?, version = version + 1 WHERE key = ? AND version = ?`,
			value, key, expected,
		)
		if err != nil {
			return 0, storage.Unavailable(op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, storage.Unavailable(op, err)
		}
		if n == 0 {
			return 0, storage.ErrConflict
		}
		return expected + 1, nil
	}
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "storage.sqlite.Delete"
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return storage.Unavailable(op, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
