package idb

import (
	"context"
	"database/sql"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// maxGeneratedKey is the largest key a key generator hands out.
const maxGeneratedKey = 1 << 53

// ObjectStore is an IDBObjectStore bound to one transaction.
type ObjectStore struct {
	tx      *Transaction
	meta    *storeMeta
	indexes map[string]*Index
}

// Name returns the store name.
func (s *ObjectStore) Name() string { return s.meta.name }

// KeyPath returns the key path as a guest value, null for out-of-line keys.
func (s *ObjectStore) KeyPath() any { return s.meta.keyPath.Value() }

// AutoIncrement reports whether the store has a key generator.
func (s *ObjectStore) AutoIncrement() bool { return s.meta.autoIncrement }

// IndexNames returns the sorted index names.
func (s *ObjectStore) IndexNames() StringList { return StringList(s.meta.indexNames()) }

// Transaction returns the owning transaction.
func (s *ObjectStore) Transaction() *Transaction { return s.tx }

func (s *ObjectStore) check() error {
	if s.meta.deleted {
		return stateError("the object store has been deleted")
	}
	if s.tx.finished {
		return domError(TransactionInactiveError, "the transaction has finished")
	}
	return nil
}

func (s *ObjectStore) source() source { return source{store: s.meta} }

// absent maps undefined to nil; other values pass through.
func absent(v any) any {
	v = jsvalue.Normalize(v)
	if _, ok := v.(jsvalue.Undefined); ok {
		return nil
	}
	return v
}

// Put stores value, replacing any record with the same key.
func (s *ObjectStore) Put(value, key any) (*Request, error) { return s.write(value, key, false) }

// Add stores value, failing with ConstraintError if the key exists.
func (s *ObjectStore) Add(value, key any) (*Request, error) { return s.write(value, key, true) }

func (s *ObjectStore) write(value, key any, noOverwrite bool) (*Request, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if err := s.tx.writable(); err != nil {
		return nil, err
	}
	m := s.meta
	key = absent(key)
	inline := !m.keyPath.None()
	switch {
	case inline && key != nil:
		return nil, dataError("the object store uses in-line keys and the key parameter was provided")
	case !inline && !m.autoIncrement && key == nil:
		return nil, dataError("the object store uses out-of-line keys and has no key generator")
	}

	clone, _, err := cloneValue(value)
	if err != nil {
		return nil, err
	}
	var enc []byte
	if key != nil {
		if enc, err = EncodeKey(key); err != nil {
			return nil, err
		}
	} else if inline {
		k, ok := m.keyPath.Extract(clone)
		switch {
		case ok:
			if enc, err = EncodeKey(k); err != nil {
				return nil, err
			}
		case !m.autoIncrement:
			return nil, dataError("evaluating the key path did not yield a value")
		default:
			if _, isObj := clone.(*jsvalue.Object); !isObj {
				return nil, dataError("a generated key cannot be injected into the value")
			}
		}
	}

	run := func(ctx context.Context, q *sql.Tx) (any, undoFunc, error) {
		e := enc
		var (
			prevNext int64
			bumped   bool
		)
		if m.autoIncrement {
			n, err := nextKey(ctx, q, m.id)
			if err != nil {
				return nil, nil, err
			}
			prevNext = n
			if e == nil {
				if n > maxGeneratedKey {
					return nil, nil, constraintError("the key generator is exhausted")
				}
				k := float64(n)
				e, _ = EncodeKey(k)
				if inline {
					if err := m.keyPath.inject(clone, k); err != nil {
						return nil, nil, err
					}
				}
				if err := setNextKey(ctx, q, m.id, n+1); err != nil {
					return nil, nil, err
				}
				bumped = true
			} else if f, ok := decodedNumber(e); ok && f >= float64(n) {
				next := int64(math.Min(math.Floor(f), maxGeneratedKey)) + 1
				if err := setNextKey(ctx, q, m.id, next); err != nil {
					return nil, nil, err
				}
				bumped = true
			}
		}

		old, existed, err := getRecord(ctx, q, m.id, e)
		if err != nil {
			return nil, nil, err
		}
		if existed && noOverwrite {
			return nil, nil, constraintError("a record with this key already exists")
		}
		str, err := encodeValue(clone)
		if err != nil {
			return nil, nil, err
		}
		if err := putRecord(ctx, q, m, e, clone, str); err != nil {
			return nil, nil, err
		}
		undo := func(ctx context.Context, q *sql.Tx) error {
			if err := restoreRecord(ctx, q, m, e, old, existed); err != nil {
				return err
			}
			if bumped {
				return setNextKey(ctx, q, m.id, prevNext)
			}
			return nil
		}
		k, err := DecodeKey(e)
		return k, undo, err
	}
	return s.tx.place(s, run)
}

func decodedNumber(enc []byte) (float64, bool) {
	if len(enc) == 0 || enc[0] != tagNumber {
		return 0, false
	}
	k, err := DecodeKey(enc)
	if err != nil {
		return 0, false
	}
	f, ok := k.(float64)
	return f, ok
}

// requiredRange converts a query that must select something.
func requiredRange(query any) (*KeyRange, error) {
	query = absent(query)
	if query == nil {
		return nil, dataError("no key or key range specified")
	}
	return toRange(query)
}

func optionalRange(query any) (*KeyRange, error) {
	query = absent(query)
	if query == nil || jsvalue.IsNullish(query) {
		return nil, nil
	}
	return toRange(query)
}

// Get reads the value of the first record in query.
func (s *ObjectStore) Get(query any) (*Request, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	r, err := requiredRange(query)
	if err != nil {
		return nil, err
	}
	return s.tx.place(s, getOp(s.source(), r, false))
}

// GetKey reads the key of the first record in query.
func (s *ObjectStore) GetKey(query any) (*Request, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	r, err := requiredRange(query)
	if err != nil {
		return nil, err
	}
	return s.tx.place(s, getOp(s.source(), r, true))
}

func getOp(src source, r *KeyRange, keyOnly bool) op {
	return func(ctx context.Context, q *sql.Tx) (any, undoFunc, error) {
		e, err := src.seek(ctx, q, nil, Next, r)
		if err != nil || e == nil {
			return jsvalue.Undefined{}, nil, err
		}
		if keyOnly {
			k, err := DecodeKey(e.primaryKey)
			return k, nil, err
		}
		v, err := decodeValue(e.value)
		return v, nil, err
	}
}

// GetAll reads up to count values in query; count 0 means all.
func (s *ObjectStore) GetAll(query any, count uint32) (*Request, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	r, err := optionalRange(query)
	if err != nil {
		return nil, err
	}
	return s.tx.place(s, getAllOp(s.source(), r, count))
}

func getAllOp(src source, r *KeyRange, count uint32) op {
	return func(ctx context.Context, q *sql.Tx) (any, undoFunc, error) {
		entries, err := src.collect(ctx, q, r, int(count))
		if err != nil {
			return nil, nil, err
		}
		arr := jsvalue.NewArray()
		for _, e := range entries {
			v, err := decodeValue(e.value)
			if err != nil {
				return nil, nil, err
			}
			arr.Push(v)
		}
		return arr, nil, nil
	}
}

// Count counts the records in query, all records when query is nullish.
func (s *ObjectStore) Count(query any) (*Request, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	r, err := optionalRange(query)
	if err != nil {
		return nil, err
	}
	return s.tx.place(s, countOp(s.source(), r))
}

func countOp(src source, r *KeyRange) op {
	return func(ctx context.Context, q *sql.Tx) (any, undoFunc, error) {
		entries, err := src.collect(ctx, q, r, 0)
		if err != nil {
			return nil, nil, err
		}
		return float64(len(entries)), nil, nil
	}
}

// Delete removes every record in query.
func (s *ObjectStore) Delete(query any) (*Request, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if err := s.tx.writable(); err != nil {
		return nil, err
	}
	r, err := requiredRange(query)
	if err != nil {
		return nil, err
	}
	m := s.meta
	return s.tx.place(s, func(ctx context.Context, q *sql.Tx) (any, undoFunc, error) {
		entries, err := s.source().collect(ctx, q, r, 0)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range entries {
			if err := deleteRecord(ctx, q, m, e.key); err != nil {
				return nil, nil, err
			}
		}
		return jsvalue.Undefined{}, restoreAll(m, entries), nil
	})
}

// Clear removes every record.
func (s *ObjectStore) Clear() (*Request, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if err := s.tx.writable(); err != nil {
		return nil, err
	}
	m := s.meta
	return s.tx.place(s, func(ctx context.Context, q *sql.Tx) (any, undoFunc, error) {
		entries, err := s.source().collect(ctx, q, nil, 0)
		if err != nil {
			return nil, nil, err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM idb_index_entries WHERE index_id IN
			(SELECT id FROM idb_indexes WHERE store_id = ?)`, m.id); err != nil {
			return nil, nil, err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM idb_records WHERE store_id = ?`, m.id); err != nil {
			return nil, nil, err
		}
		return jsvalue.Undefined{}, restoreAll(m, entries), nil
	})
}

func restoreAll(m *storeMeta, entries []entry) undoFunc {
	if len(entries) == 0 {
		return nil
	}
	return func(ctx context.Context, q *sql.Tx) error {
		for _, e := range entries {
			if err := restoreRecord(ctx, q, m, e.key, e.value, true); err != nil {
				return err
			}
		}
		return nil
	}
}

// OpenCursor opens a cursor over query in direction.
func (s *ObjectStore) OpenCursor(query any, direction string) (*Request, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return openCursor(s, s, s.source(), query, direction)
}

// CreateIndex adds an index. Only valid during upgradeneeded. Existing
// records are indexed immediately; a unique violation aborts the
// transaction with ConstraintError.
func (s *ObjectStore) CreateIndex(name string, keyPath any, unique, multiEntry bool) (*Index, error) {
	if s.tx.mode != VersionChange {
		return nil, stateError("indexes can only be created during a version change")
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	m := s.meta
	if _, exists := m.indexes[name]; exists {
		return nil, constraintError("index " + name + " already exists")
	}
	kp, err := ParseKeyPath(keyPath)
	if err != nil {
		return nil, err
	}
	if kp.None() {
		return nil, syntaxError("an index requires a key path")
	}
	if multiEntry && kp.List {
		return nil, domError(InvalidAccessError, "multiEntry indexes cannot use an array key path")
	}

	ix := &indexMeta{store: m, name: name, keyPath: kp, unique: unique, multiEntry: multiEntry}
	f := s.tx.factory()
	err = f.db.Tx(f.ctx, func(q *sql.Tx) error {
		if err := insertIndex(f.ctx, q, ix); err != nil {
			return err
		}
		return populateIndex(f.ctx, q, ix)
	})
	m.indexes[name] = ix
	tx := s.tx
	tx.undo = append(tx.undo, func(ctx context.Context, q *sql.Tx) error {
		ix.deleted = true
		delete(m.indexes, name)
		if ix.id == 0 {
			return nil
		}
		return deleteIndexRow(ctx, q, ix.id)
	})
	if err != nil {
		ix.id = 0
		derr := asDOMError(err)
		f.log.Debug("index creation failed", zap.String("index", name), zap.Error(err))
		f.loop.Post(func() { tx.abortWith(derr) })
	}
	return s.Index(name)
}

// DeleteIndex removes an index. Only valid during upgradeneeded.
func (s *ObjectStore) DeleteIndex(name string) error {
	if s.tx.mode != VersionChange {
		return stateError("indexes can only be deleted during a version change")
	}
	if err := s.check(); err != nil {
		return err
	}
	m := s.meta
	ix, ok := m.indexes[name]
	if !ok {
		return notFoundError("no index named " + name)
	}
	f := s.tx.factory()
	if err := f.db.Tx(f.ctx, func(q *sql.Tx) error {
		return deleteIndexRow(f.ctx, q, ix.id)
	}); err != nil {
		return asDOMError(err)
	}
	ix.deleted = true
	delete(m.indexes, name)
	delete(s.indexes, name)
	s.tx.undo = append(s.tx.undo, func(ctx context.Context, q *sql.Tx) error {
		ix.deleted = false
		m.indexes[name] = ix
		if err := insertIndex(ctx, q, ix); err != nil {
			return err
		}
		return populateIndex(ctx, q, ix)
	})
	return nil
}

// Index returns the named index.
func (s *ObjectStore) Index(name string) (*Index, error) {
	if s.meta.deleted || s.tx.finished {
		return nil, stateError("the object store is not usable")
	}
	if ix, ok := s.indexes[name]; ok && !ix.meta.deleted {
		return ix, nil
	}
	meta, ok := s.meta.indexes[name]
	if !ok {
		return nil, notFoundError("no index named " + name)
	}
	ix := &Index{store: s, meta: meta}
	s.indexes[name] = ix
	return ix, nil
}

// ClassName implements jsvalue.ClassNamer.
func (s *ObjectStore) ClassName() string { return "IDBObjectStore" }

// GetProperty implements jsvalue.PropertyGetter.
func (s *ObjectStore) GetProperty(name string) (any, bool) {
	switch name {
	case "name":
		return s.meta.name, true
	case "keyPath":
		return s.KeyPath(), true
	case "autoIncrement":
		return s.meta.autoIncrement, true
	case "indexNames":
		return s.IndexNames(), true
	case "transaction":
		return s.tx, true
	}
	return nil, false
}
