package idb

import (
	"bytes"
	"context"
	"database/sql"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Cursor is an IDBCursorWithValue.
type Cursor struct {
	store  *ObjectStore
	owner  any
	src    source
	dir    Direction
	rng    *KeyRange
	req    *Request
	pos    *entry
	key    any
	pkey   any
	value  any
	loaded bool
}

func openCursor(s *ObjectStore, owner any, src source, query any, direction string) (*Request, error) {
	dir, err := ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	r, err := optionalRange(query)
	if err != nil {
		return nil, err
	}
	c := &Cursor{store: s, owner: owner, src: src, dir: dir, rng: r}
	req, err := s.tx.place(owner, c.stepOp(1, nil))
	if err != nil {
		return nil, err
	}
	c.req = req
	return req, nil
}

// stepOp moves n entries forward, skipping entries before target when set.
// The request result is the cursor, or null when iteration ends.
func (c *Cursor) stepOp(n uint32, target []byte) op {
	return func(ctx context.Context, q *sql.Tx) (any, undoFunc, error) {
		pos := c.pos
		for n > 0 {
			e, err := c.src.seek(ctx, q, pos, c.dir, c.rng)
			if err != nil {
				return nil, nil, err
			}
			if e == nil {
				c.pos = nil
				c.key, c.pkey, c.value = jsvalue.Undefined{}, jsvalue.Undefined{}, jsvalue.Undefined{}
				return jsvalue.Null{}, nil, nil
			}
			pos = e
			if target != nil && !c.reached(e.key, target) {
				continue
			}
			n--
		}
		k, err := DecodeKey(pos.key)
		if err != nil {
			return nil, nil, err
		}
		pk, err := DecodeKey(pos.primaryKey)
		if err != nil {
			return nil, nil, err
		}
		v, err := decodeValue(pos.value)
		if err != nil {
			return nil, nil, err
		}
		c.pos, c.key, c.pkey, c.value = pos, k, pk, v
		c.loaded = true
		return c, nil, nil
	}
}

func (c *Cursor) reached(key, target []byte) bool {
	cmp := bytes.Compare(key, target)
	if c.dir.backward() {
		return cmp <= 0
	}
	return cmp >= 0
}

func (c *Cursor) ready() error {
	if c.store.tx.finished {
		return domError(TransactionInactiveError, "the transaction has finished")
	}
	if c.store.meta.deleted {
		return stateError("the object store has been deleted")
	}
	if !c.loaded || c.pos == nil {
		return stateError("the cursor is being iterated or has reached its end")
	}
	return nil
}

// Continue advances to the next entry, or to the first entry at or past
// key when key is given.
func (c *Cursor) Continue(key any) error {
	if err := c.ready(); err != nil {
		return err
	}
	var target []byte
	if key = absent(key); key != nil {
		enc, err := EncodeKey(key)
		if err != nil {
			return err
		}
		cmp := bytes.Compare(enc, c.pos.key)
		if (!c.dir.backward() && cmp <= 0) || (c.dir.backward() && cmp >= 0) {
			return dataError("the key does not lie beyond the cursor position")
		}
		target = enc
	}
	c.loaded = false
	return c.store.tx.requeue(c.req, c.stepOp(1, target))
}

// Advance skips count entries.
func (c *Cursor) Advance(count uint32) error {
	if count == 0 {
		return typeError("advance count must be positive")
	}
	if err := c.ready(); err != nil {
		return err
	}
	c.loaded = false
	return c.store.tx.requeue(c.req, c.stepOp(count, nil))
}

// Key returns the effective key: the index key for index cursors.
func (c *Cursor) Key() any { return c.key }

// PrimaryKey returns the record key.
func (c *Cursor) PrimaryKey() any { return c.pkey }

// Value returns the record value.
func (c *Cursor) Value() any { return c.value }

// Direction returns the walking direction.
func (c *Cursor) Direction() Direction { return c.dir }

// Source returns the store or index the cursor walks.
func (c *Cursor) Source() any { return c.owner }

// ClassName implements jsvalue.ClassNamer.
func (c *Cursor) ClassName() string { return "IDBCursorWithValue" }

// InstanceOf implements jsvalue.Instancer.
func (c *Cursor) InstanceOf(class string) bool {
	return class == "IDBCursorWithValue" || class == "IDBCursor"
}

// GetProperty implements jsvalue.PropertyGetter.
func (c *Cursor) GetProperty(name string) (any, bool) {
	switch name {
	case "key":
		return c.key, true
	case "primaryKey":
		return c.pkey, true
	case "value":
		return c.value, true
	case "direction":
		return c.dir.String(), true
	case "source":
		return c.owner, true
	case "request":
		return c.req, true
	}
	return nil, false
}
