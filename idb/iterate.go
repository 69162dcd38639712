package idb

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
)

// Direction is a cursor direction.
type Direction int

const (
	Next Direction = iota
	NextUnique
	Prev
	PrevUnique
)

// ParseDirection accepts the IDBCursorDirection strings; empty means next.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "next":
		return Next, nil
	case "nextunique":
		return NextUnique, nil
	case "prev":
		return Prev, nil
	case "prevunique":
		return PrevUnique, nil
	}
	return 0, typeError("invalid cursor direction " + s)
}

func (d Direction) String() string {
	return [...]string{"next", "nextunique", "prev", "prevunique"}[d]
}

func (d Direction) backward() bool { return d == Prev || d == PrevUnique }
func (d Direction) unique() bool   { return d == NextUnique || d == PrevUnique }

// entry is one step of an iteration: the effective key, the primary key
// and the stored value.
type entry struct {
	key, primaryKey []byte
	value           string
}

// source is what a cursor or query walks: a store, or an index of it.
type source struct {
	store *storeMeta
	index *indexMeta
}

// seek returns the first entry after pos in direction dir that lies in r,
// or nil when the iteration is exhausted. A nil pos starts from the edge.
func (s source) seek(ctx context.Context, q *sql.Tx, pos *entry, dir Direction, r *KeyRange) (*entry, error) {
	var (
		query strings.Builder
		args  []any
	)
	if s.index == nil {
		query.WriteString(`SELECT key, key, value FROM idb_records WHERE store_id = ?`)
		args = append(args, s.store.id)
		if pos != nil {
			if dir.backward() {
				query.WriteString(` AND key < ?`)
			} else {
				query.WriteString(` AND key > ?`)
			}
			args = append(args, pos.key)
		}
		near(&query, &args, "key", dir, r)
		if dir.backward() {
			query.WriteString(` ORDER BY key DESC`)
		} else {
			query.WriteString(` ORDER BY key ASC`)
		}
	} else {
		query.WriteString(`SELECT e.key, e.primary_key, r.value FROM idb_index_entries e
			JOIN idb_records r ON r.store_id = ? AND r.key = e.primary_key
			WHERE e.index_id = ?`)
		args = append(args, s.store.id, s.index.id)
		if pos != nil {
			switch dir {
			case Next:
				query.WriteString(` AND (e.key > ? OR (e.key = ? AND e.primary_key > ?))`)
				args = append(args, pos.key, pos.key, pos.primaryKey)
			case Prev:
				query.WriteString(` AND (e.key < ? OR (e.key = ? AND e.primary_key < ?))`)
				args = append(args, pos.key, pos.key, pos.primaryKey)
			case NextUnique:
				query.WriteString(` AND e.key > ?`)
				args = append(args, pos.key)
			case PrevUnique:
				query.WriteString(` AND e.key < ?`)
				args = append(args, pos.key)
			}
		}
		near(&query, &args, "e.key", dir, r)
		switch dir {
		case Next, NextUnique:
			query.WriteString(` ORDER BY e.key ASC, e.primary_key ASC`)
		case Prev:
			query.WriteString(` ORDER BY e.key DESC, e.primary_key DESC`)
		case PrevUnique:
			// the first record of each key, walking keys backwards
			query.WriteString(` ORDER BY e.key DESC, e.primary_key ASC`)
		}
	}

	rows, err := q.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.primaryKey, &e.value); err != nil {
			return nil, err
		}
		if r.includes(e.key) {
			return &e, nil
		}
		if r.beyond(e.key, dir.backward()) {
			return nil, nil
		}
	}
	return nil, rows.Err()
}

// near restricts the query to the bound the iteration starts from.
func near(query *strings.Builder, args *[]any, col string, dir Direction, r *KeyRange) {
	if r == nil {
		return
	}
	if !dir.backward() && r.lower != nil {
		query.WriteString(` AND ` + col + ` >= ?`)
		*args = append(*args, r.lower)
	}
	if dir.backward() && r.upper != nil {
		query.WriteString(` AND ` + col + ` <= ?`)
		*args = append(*args, r.upper)
	}
}

// beyond reports whether enc lies past the far end of r for the walking
// direction, so no later entry can match.
func (r *KeyRange) beyond(enc []byte, backward bool) bool {
	if r == nil {
		return false
	}
	if backward {
		if r.lower == nil {
			return false
		}
		c := bytes.Compare(enc, r.lower)
		return c < 0 || (c == 0 && r.LowerOpen)
	}
	if r.upper == nil {
		return false
	}
	c := bytes.Compare(enc, r.upper)
	return c > 0 || (c == 0 && r.UpperOpen)
}

// collect walks s forward, returning up to limit entries (0 for all).
func (s source) collect(ctx context.Context, q *sql.Tx, r *KeyRange, limit int) ([]entry, error) {
	var (
		out []entry
		pos *entry
	)
	for limit == 0 || len(out) < limit {
		e, err := s.seek(ctx, q, pos, Next, r)
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}
		out = append(out, *e)
		pos = e
	}
	return out, nil
}
