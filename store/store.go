// Package store is the SQLite backing for guest-visible persistent
// storage: localStorage and IndexedDB share one database file.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wippyai/wbg-runtime/errors"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

// DB is an open storage database.
type DB struct {
	db  *sql.DB
	log *zap.Logger
}

// Option configures Open.
type Option func(*DB)

// WithLogger sets the logger used for migrations.
func WithLogger(log *zap.Logger) Option {
	return func(d *DB) { d.log = log }
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(ctx context.Context, path string, opts ...Option) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindInvalidInput, err, "open "+path)
	}
	// One connection serializes transactions and keeps :memory: databases
	// shared.
	db.SetMaxOpenConns(1)

	d := &DB{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.Wrap(errors.PhaseStorage, errors.KindInvalidState, err, pragma)
		}
	}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// SQL returns the underlying handle.
func (d *DB) SQL() *sql.DB { return d.db }

// Tx runs fn in a transaction, committing when it returns nil.
func (d *DB) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidState, err, "begin")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidState, err, "commit")
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE local_storage (
		origin TEXT NOT NULL,
		key    TEXT NOT NULL,
		value  TEXT NOT NULL,
		PRIMARY KEY (origin, key)
	)`,
	`CREATE TABLE idb_databases (
		id      INTEGER PRIMARY KEY,
		origin  TEXT NOT NULL,
		name    TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		UNIQUE (origin, name)
	);
	CREATE TABLE idb_stores (
		id             INTEGER PRIMARY KEY,
		db_id          INTEGER NOT NULL REFERENCES idb_databases(id) ON DELETE CASCADE,
		name           TEXT NOT NULL,
		key_path       TEXT,
		auto_increment INTEGER NOT NULL DEFAULT 0,
		next_key       INTEGER NOT NULL DEFAULT 1,
		UNIQUE (db_id, name)
	);
	CREATE TABLE idb_records (
		store_id INTEGER NOT NULL REFERENCES idb_stores(id) ON DELETE CASCADE,
		key      BLOB NOT NULL,
		value    TEXT NOT NULL,
		PRIMARY KEY (store_id, key)
	);
	CREATE TABLE idb_indexes (
		id          INTEGER PRIMARY KEY,
		store_id    INTEGER NOT NULL REFERENCES idb_stores(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		key_path    TEXT NOT NULL,
		is_unique   INTEGER NOT NULL DEFAULT 0,
		multi_entry INTEGER NOT NULL DEFAULT 0,
		UNIQUE (store_id, name)
	);
	CREATE TABLE idb_index_entries (
		index_id    INTEGER NOT NULL REFERENCES idb_indexes(id) ON DELETE CASCADE,
		key         BLOB NOT NULL,
		primary_key BLOB NOT NULL,
		PRIMARY KEY (index_id, key, primary_key)
	)`,
}

// SchemaVersion is the number of migrations applied by Open.
var SchemaVersion = len(migrations)

func (d *DB) migrate(ctx context.Context) error {
	var version int
	if err := d.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidState, err, "read schema version")
	}
	if version > len(migrations) {
		return errors.New(errors.PhaseStorage, errors.KindVersion).
			Detail("schema version %d is newer than supported %d", version, len(migrations)).
			Build()
	}
	for i := version; i < len(migrations); i++ {
		err := d.Tx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1))
			return err
		})
		if err != nil {
			return errors.Wrap(errors.PhaseStorage, errors.KindInvalidState, err, fmt.Sprintf("migration %d", i+1))
		}
		d.log.Debug("applied storage migration", zap.Int("version", i+1))
	}
	return nil
}
