package idb

// Index is an IDBIndex bound to one transaction.
type Index struct {
	store *ObjectStore
	meta  *indexMeta
}

// Name returns the index name.
func (ix *Index) Name() string { return ix.meta.name }

// KeyPath returns the key path as a guest value.
func (ix *Index) KeyPath() any { return ix.meta.keyPath.Value() }

// Unique reports whether the index rejects duplicate keys.
func (ix *Index) Unique() bool { return ix.meta.unique }

// MultiEntry reports whether array keys add one entry per element.
func (ix *Index) MultiEntry() bool { return ix.meta.multiEntry }

// ObjectStore returns the indexed store.
func (ix *Index) ObjectStore() *ObjectStore { return ix.store }

func (ix *Index) check() error {
	if ix.meta.deleted {
		return stateError("the index has been deleted")
	}
	return ix.store.check()
}

func (ix *Index) source() source { return source{store: ix.store.meta, index: ix.meta} }

// Get reads the value of the first record whose index key is in query.
func (ix *Index) Get(query any) (*Request, error) {
	if err := ix.check(); err != nil {
		return nil, err
	}
	r, err := requiredRange(query)
	if err != nil {
		return nil, err
	}
	return ix.store.tx.place(ix, getOp(ix.source(), r, false))
}

// GetKey reads the primary key of the first record whose index key is in
// query.
func (ix *Index) GetKey(query any) (*Request, error) {
	if err := ix.check(); err != nil {
		return nil, err
	}
	r, err := requiredRange(query)
	if err != nil {
		return nil, err
	}
	return ix.store.tx.place(ix, getOp(ix.source(), r, true))
}

// GetAll reads up to count values in index order; count 0 means all.
func (ix *Index) GetAll(query any, count uint32) (*Request, error) {
	if err := ix.check(); err != nil {
		return nil, err
	}
	r, err := optionalRange(query)
	if err != nil {
		return nil, err
	}
	return ix.store.tx.place(ix, getAllOp(ix.source(), r, count))
}

// Count counts index entries in query.
func (ix *Index) Count(query any) (*Request, error) {
	if err := ix.check(); err != nil {
		return nil, err
	}
	r, err := optionalRange(query)
	if err != nil {
		return nil, err
	}
	return ix.store.tx.place(ix, countOp(ix.source(), r))
}

// OpenCursor opens a cursor over index entries in query.
func (ix *Index) OpenCursor(query any, direction string) (*Request, error) {
	if err := ix.check(); err != nil {
		return nil, err
	}
	return openCursor(ix.store, ix, ix.source(), query, direction)
}

// ClassName implements jsvalue.ClassNamer.
func (ix *Index) ClassName() string { return "IDBIndex" }

// GetProperty implements jsvalue.PropertyGetter.
func (ix *Index) GetProperty(name string) (any, bool) {
	switch name {
	case "name":
		return ix.meta.name, true
	case "keyPath":
		return ix.KeyPath(), true
	case "unique":
		return ix.meta.unique, true
	case "multiEntry":
		return ix.meta.multiEntry, true
	case "objectStore":
		return ix.store, true
	}
	return nil, false
}
