package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/wippyai/wbg-runtime/errors"
)

// LocalStorage is the Storage object behind window.localStorage, scoped to
// one origin. Keys are ordered by first insertion.
type LocalStorage struct {
	db     *DB
	origin string
}

// LocalStorage returns the storage area for origin.
func (d *DB) LocalStorage(origin string) *LocalStorage {
	return &LocalStorage{db: d, origin: origin}
}

// GetItem returns the value for key and whether it exists.
func (s *LocalStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.db.QueryRowContext(ctx,
		"SELECT value FROM local_storage WHERE origin = ? AND key = ?", s.origin, key,
	).Scan(&v)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap(err, "getItem")
	}
	return v, true, nil
}

// SetItem stores value under key, keeping the key's position if it exists.
func (s *LocalStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.db.ExecContext(ctx,
		`INSERT INTO local_storage (origin, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (origin, key) DO UPDATE SET value = excluded.value`,
		s.origin, key, value,
	)
	return wrap(err, "setItem")
}

// RemoveItem deletes key. Missing keys are ignored.
func (s *LocalStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.db.ExecContext(ctx,
		"DELETE FROM local_storage WHERE origin = ? AND key = ?", s.origin, key)
	return wrap(err, "removeItem")
}

// Clear deletes every key of the origin.
func (s *LocalStorage) Clear(ctx context.Context) error {
	_, err := s.db.db.ExecContext(ctx, "DELETE FROM local_storage WHERE origin = ?", s.origin)
	return wrap(err, "clear")
}

// Key returns the name of the i-th key.
func (s *LocalStorage) Key(ctx context.Context, i int) (string, bool, error) {
	if i < 0 {
		return "", false, nil
	}
	var k string
	err := s.db.db.QueryRowContext(ctx,
		"SELECT key FROM local_storage WHERE origin = ? ORDER BY rowid LIMIT 1 OFFSET ?", s.origin, i,
	).Scan(&k)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap(err, "key")
	}
	return k, true, nil
}

// Length returns the number of keys.
func (s *LocalStorage) Length(ctx context.Context) (int, error) {
	var n int
	err := s.db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM local_storage WHERE origin = ?", s.origin).Scan(&n)
	return n, wrap(err, "length")
}

// ClassName implements jsvalue.ClassNamer.
func (s *LocalStorage) ClassName() string { return "Storage" }

func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.PhaseStorage, errors.KindInvalidState, err, op)
}
