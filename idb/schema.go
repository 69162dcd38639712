package idb

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

type storeMeta struct {
	id            int64
	name          string
	keyPath       KeyPath
	autoIncrement bool
	indexes       map[string]*indexMeta
	deleted       bool
}

type indexMeta struct {
	id         int64
	store      *storeMeta
	name       string
	keyPath    KeyPath
	unique     bool
	multiEntry bool
	deleted    bool
}

// schema is one connection's view of a database.
type schema struct {
	dbID    int64
	version int64
	stores  map[string]*storeMeta
}

func (s *schema) storeNames() []string {
	names := make([]string, 0, len(s.stores))
	for n := range s.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *storeMeta) indexNames() []string {
	names := make([]string, 0, len(m.indexes))
	for n := range m.indexes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *storeMeta) indexList() []*indexMeta {
	out := make([]*indexMeta, 0, len(m.indexes))
	for _, n := range m.indexNames() {
		out = append(out, m.indexes[n])
	}
	return out
}

func keyPathText(kp KeyPath) sql.NullString {
	if kp.None() {
		return sql.NullString{}
	}
	var b []byte
	if kp.List {
		b, _ = json.Marshal(kp.Paths)
	} else {
		b, _ = json.Marshal(kp.Paths[0])
	}
	return sql.NullString{String: string(b), Valid: true}
}

func parseKeyPathText(s sql.NullString) KeyPath {
	if !s.Valid {
		return KeyPath{}
	}
	var list []string
	if err := json.Unmarshal([]byte(s.String), &list); err == nil {
		return KeyPath{Paths: list, List: true}
	}
	var one string
	_ = json.Unmarshal([]byte(s.String), &one)
	return KeyPath{Paths: []string{one}}
}

// loadSchema reads the schema of origin/name. ok is false when the
// database does not exist.
func loadSchema(ctx context.Context, q *sql.Tx, origin, name string) (*schema, bool, error) {
	s := &schema{stores: make(map[string]*storeMeta)}
	err := q.QueryRowContext(ctx,
		`SELECT id, version FROM idb_databases WHERE origin = ? AND name = ?`, origin, name,
	).Scan(&s.dbID, &s.version)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, name, key_path, auto_increment FROM idb_stores WHERE db_id = ?`, s.dbID)
	if err != nil {
		return nil, false, err
	}
	byID := make(map[int64]*storeMeta)
	for rows.Next() {
		m := &storeMeta{indexes: make(map[string]*indexMeta)}
		var kp sql.NullString
		if err := rows.Scan(&m.id, &m.name, &kp, &m.autoIncrement); err != nil {
			rows.Close()
			return nil, false, err
		}
		m.keyPath = parseKeyPathText(kp)
		s.stores[m.name] = m
		byID[m.id] = m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	rows, err = q.QueryContext(ctx, `SELECT i.id, i.store_id, i.name, i.key_path, i.is_unique, i.multi_entry
		FROM idb_indexes i JOIN idb_stores s ON s.id = i.store_id WHERE s.db_id = ?`, s.dbID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		ix := &indexMeta{}
		var storeID int64
		var kp sql.NullString
		if err := rows.Scan(&ix.id, &storeID, &ix.name, &kp, &ix.unique, &ix.multiEntry); err != nil {
			return nil, false, err
		}
		ix.keyPath = parseKeyPathText(kp)
		if m := byID[storeID]; m != nil {
			ix.store = m
			m.indexes[ix.name] = ix
		}
	}
	return s, true, rows.Err()
}

func createDatabase(ctx context.Context, q *sql.Tx, origin, name string) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO idb_databases (origin, name, version) VALUES (?, ?, 0)`, origin, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func setVersion(ctx context.Context, q *sql.Tx, dbID, version int64) error {
	_, err := q.ExecContext(ctx, `UPDATE idb_databases SET version = ? WHERE id = ?`, version, dbID)
	return err
}

func dropDatabase(ctx context.Context, q *sql.Tx, dbID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM idb_databases WHERE id = ?`, dbID)
	return err
}

func insertStore(ctx context.Context, q *sql.Tx, dbID int64, m *storeMeta) error {
	var id any
	if m.id != 0 {
		id = m.id
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO idb_stores (id, db_id, name, key_path, auto_increment) VALUES (?, ?, ?, ?, ?)`,
		id, dbID, m.name, keyPathText(m.keyPath), m.autoIncrement)
	if err != nil {
		return err
	}
	m.id, err = res.LastInsertId()
	return err
}

func deleteStoreRow(ctx context.Context, q *sql.Tx, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM idb_index_entries WHERE index_id IN
		(SELECT id FROM idb_indexes WHERE store_id = ?)`, id); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `DELETE FROM idb_stores WHERE id = ?`, id)
	return err
}

func insertIndex(ctx context.Context, q *sql.Tx, ix *indexMeta) error {
	var id any
	if ix.id != 0 {
		id = ix.id
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO idb_indexes (id, store_id, name, key_path, is_unique, multi_entry) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ix.store.id, ix.name, keyPathText(ix.keyPath), ix.unique, ix.multiEntry)
	if err != nil {
		return err
	}
	ix.id, err = res.LastInsertId()
	return err
}

func deleteIndexRow(ctx context.Context, q *sql.Tx, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM idb_index_entries WHERE index_id = ?`, id); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `DELETE FROM idb_indexes WHERE id = ?`, id)
	return err
}

func nextKey(ctx context.Context, q *sql.Tx, storeID int64) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT next_key FROM idb_stores WHERE id = ?`, storeID).Scan(&n)
	return n, err
}

func setNextKey(ctx context.Context, q *sql.Tx, storeID, n int64) error {
	_, err := q.ExecContext(ctx, `UPDATE idb_stores SET next_key = ? WHERE id = ?`, n, storeID)
	return err
}

type record struct {
	key   []byte
	value string
}

func getRecord(ctx context.Context, q *sql.Tx, storeID int64, key []byte) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx,
		`SELECT value FROM idb_records WHERE store_id = ? AND key = ?`, storeID, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	return v, err == nil, err
}

func listRecords(ctx context.Context, q *sql.Tx, storeID int64) ([]record, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT key, value FROM idb_records WHERE store_id = ? ORDER BY key`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []record
	for rows.Next() {
		var r record
		if err := rows.Scan(&r.key, &r.value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// indexKeys computes the encoded index keys value contributes to ix.
// Values without a valid key at the path are not indexed.
func indexKeys(ix *indexMeta, value any) [][]byte {
	k, ok := ix.keyPath.Extract(value)
	if !ok {
		return nil
	}
	if arr, isArr := k.(*jsvalue.Array); isArr && ix.multiEntry {
		var out [][]byte
		seen := make(map[string]bool)
		for _, e := range arr.Elems {
			enc, err := EncodeKey(e)
			if err != nil || seen[string(enc)] {
				continue
			}
			seen[string(enc)] = true
			out = append(out, enc)
		}
		return out
	}
	enc, err := EncodeKey(k)
	if err != nil {
		return nil
	}
	return [][]byte{enc}
}

func indexRecord(ctx context.Context, q *sql.Tx, ix *indexMeta, key []byte, value any) error {
	for _, ik := range indexKeys(ix, value) {
		if ix.unique {
			var one int
			err := q.QueryRowContext(ctx, `SELECT 1 FROM idb_index_entries
				WHERE index_id = ? AND key = ? AND primary_key <> ? LIMIT 1`, ix.id, ik, key).Scan(&one)
			if err == nil {
				return constraintError("unique index " + ix.name + " already holds this key")
			}
			if err != sql.ErrNoRows {
				return err
			}
		}
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO idb_index_entries (index_id, key, primary_key) VALUES (?, ?, ?)`,
			ix.id, ik, key); err != nil {
			return err
		}
	}
	return nil
}

func unindexRecord(ctx context.Context, q *sql.Tx, m *storeMeta, key []byte) error {
	_, err := q.ExecContext(ctx, `DELETE FROM idb_index_entries WHERE primary_key = ? AND index_id IN
		(SELECT id FROM idb_indexes WHERE store_id = ?)`, key, m.id)
	return err
}

// putRecord writes value under key and maintains every index of m.
func putRecord(ctx context.Context, q *sql.Tx, m *storeMeta, key []byte, value any, enc string) error {
	if err := unindexRecord(ctx, q, m, key); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx,
		`INSERT OR REPLACE INTO idb_records (store_id, key, value) VALUES (?, ?, ?)`,
		m.id, key, enc); err != nil {
		return err
	}
	for _, ix := range m.indexList() {
		if err := indexRecord(ctx, q, ix, key, value); err != nil {
			return err
		}
	}
	return nil
}

func deleteRecord(ctx context.Context, q *sql.Tx, m *storeMeta, key []byte) error {
	if err := unindexRecord(ctx, q, m, key); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `DELETE FROM idb_records WHERE store_id = ? AND key = ?`, m.id, key)
	return err
}

// restoreRecord puts back a previous state of key: the old value when it
// existed, nothing otherwise.
func restoreRecord(ctx context.Context, q *sql.Tx, m *storeMeta, key []byte, old string, existed bool) error {
	if !existed {
		return deleteRecord(ctx, q, m, key)
	}
	v, err := decodeValue(old)
	if err != nil {
		return err
	}
	return putRecord(ctx, q, m, key, v, old)
}

// populateIndex indexes every record already in the store.
func populateIndex(ctx context.Context, q *sql.Tx, ix *indexMeta) error {
	recs, err := listRecords(ctx, q, ix.store.id)
	if err != nil {
		return err
	}
	for _, r := range recs {
		v, err := decodeValue(r.value)
		if err != nil {
			return err
		}
		if err := indexRecord(ctx, q, ix, r.key, v); err != nil {
			return err
		}
	}
	return nil
}
