package idb

import (
	"context"
	"database/sql"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Database is an IDBDatabase connection.
type Database struct {
	dom.EventTarget
	f       *Factory
	name    string
	schema  *schema
	upgrade *Transaction
	closed  bool
}

// Name returns the database name.
func (d *Database) Name() string { return d.name }

// Version returns the version this connection sees.
func (d *Database) Version() int64 { return d.schema.version }

// ObjectStoreNames returns the sorted store names.
func (d *Database) ObjectStoreNames() StringList {
	return StringList(d.schema.storeNames())
}

// Closed reports whether Close was called.
func (d *Database) Closed() bool { return d.closed }

// Close closes the connection. Running transactions still complete.
func (d *Database) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.f.connectionClosed(d)
}

func (d *Database) versionChange() (*Transaction, error) {
	if d.upgrade == nil || d.upgrade.finished {
		return nil, stateError("not inside a version change transaction")
	}
	return d.upgrade, nil
}

// CreateObjectStore creates a store. Only valid during upgradeneeded.
func (d *Database) CreateObjectStore(name string, keyPath any, autoIncrement bool) (*ObjectStore, error) {
	tx, err := d.versionChange()
	if err != nil {
		return nil, err
	}
	kp, err := ParseKeyPath(keyPath)
	if err != nil {
		return nil, err
	}
	if _, exists := d.schema.stores[name]; exists {
		return nil, constraintError("object store " + name + " already exists")
	}
	if autoIncrement && (kp.List || (!kp.None() && kp.Paths[0] == "")) {
		return nil, domError(InvalidAccessError, "autoIncrement requires an out-of-line or non-empty key path")
	}

	meta := &storeMeta{name: name, keyPath: kp, autoIncrement: autoIncrement, indexes: make(map[string]*indexMeta)}
	f := d.f
	err = f.db.Tx(f.ctx, func(q *sql.Tx) error {
		return insertStore(f.ctx, q, d.schema.dbID, meta)
	})
	if err != nil {
		return nil, asDOMError(err)
	}
	d.schema.stores[name] = meta
	tx.undo = append(tx.undo, func(ctx context.Context, q *sql.Tx) error {
		meta.deleted = true
		delete(d.schema.stores, name)
		return deleteStoreRow(ctx, q, meta.id)
	})
	return tx.ObjectStore(name)
}

// DeleteObjectStore removes a store with its records and indexes. Only
// valid during upgradeneeded.
func (d *Database) DeleteObjectStore(name string) error {
	tx, err := d.versionChange()
	if err != nil {
		return err
	}
	meta, ok := d.schema.stores[name]
	if !ok {
		return notFoundError("no object store named " + name)
	}
	f := d.f
	var saved []record
	err = f.db.Tx(f.ctx, func(q *sql.Tx) error {
		var err error
		if saved, err = listRecords(f.ctx, q, meta.id); err != nil {
			return err
		}
		return deleteStoreRow(f.ctx, q, meta.id)
	})
	if err != nil {
		return asDOMError(err)
	}
	meta.deleted = true
	delete(d.schema.stores, name)
	delete(tx.stores, name)
	tx.undo = append(tx.undo, func(ctx context.Context, q *sql.Tx) error {
		meta.deleted = false
		d.schema.stores[name] = meta
		if err := insertStore(ctx, q, d.schema.dbID, meta); err != nil {
			return err
		}
		for _, ix := range meta.indexList() {
			if err := insertIndex(ctx, q, ix); err != nil {
				return err
			}
		}
		for _, r := range saved {
			v, err := decodeValue(r.value)
			if err != nil {
				return err
			}
			if err := putRecord(ctx, q, meta, r.key, v, r.value); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

// Transaction starts a transaction over the named stores. storeNames is a
// string, an array of strings or a StringList.
func (d *Database) Transaction(storeNames any, mode string) (*Transaction, error) {
	if d.closed {
		return nil, stateError("the database connection is closing")
	}
	if d.upgrade != nil && !d.upgrade.finished {
		return nil, stateError("a version change transaction is running")
	}
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	names, err := scopeNames(storeNames)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, domError(InvalidAccessError, "the scope is empty")
	}
	for _, n := range names {
		if _, ok := d.schema.stores[n]; !ok {
			return nil, notFoundError("no object store named " + n)
		}
	}
	tx := newTransaction(d, names, m)
	d.f.register(tx)
	return tx, nil
}

func scopeNames(v any) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	switch x := jsvalue.Normalize(v).(type) {
	case string:
		add(x)
	case []string:
		for _, s := range x {
			add(s)
		}
	case StringList:
		for _, s := range x {
			add(s)
		}
	case *jsvalue.Array:
		for _, e := range x.Elems {
			add(jsvalue.ToString(e))
		}
	default:
		return nil, typeError("invalid store names " + jsvalue.DebugString(v))
	}
	return out, nil
}

// ClassName implements jsvalue.ClassNamer.
func (d *Database) ClassName() string { return "IDBDatabase" }

// GetProperty implements jsvalue.PropertyGetter.
func (d *Database) GetProperty(name string) (any, bool) {
	switch name {
	case "name":
		return d.name, true
	case "version":
		return float64(d.schema.version), true
	case "objectStoreNames":
		return d.ObjectStoreNames(), true
	}
	return nil, false
}

// SetProperty routes on<type> assignments to event handlers.
func (d *Database) SetProperty(name string, v any) error {
	setHandler(&d.EventTarget, name, v)
	return nil
}
