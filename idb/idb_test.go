package idb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/store"
)

type testEnv struct {
	loop *eventloop.Loop
	f    *Factory
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "idb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	l := eventloop.New()
	return &testEnv{loop: l, f: NewFactory(ctx, db, l, "https://game.example")}
}

// do runs fn on the loop and drives the loop until idle.
func (e *testEnv) do(t *testing.T, fn func()) {
	t.Helper()
	e.loop.Post(fn)
	require.NoError(t, e.loop.Run(context.Background()))
}

func handler(fn func(ev *dom.Event)) *jsvalue.Func {
	return jsvalue.NewFunc("handler", func(_ context.Context, _ any, args []any) (any, error) {
		var ev *dom.Event
		if len(args) > 0 {
			if d, ok := args[0].(dom.Dispatchable); ok {
				ev = d.EventBase()
			}
		}
		fn(ev)
		return jsvalue.Undefined{}, nil
	})
}

func (e *testEnv) open(t *testing.T, name string, version int64, upgrade func(db *Database, tx *Transaction)) *Database {
	t.Helper()
	var db *Database
	e.do(t, func() {
		req := e.f.Open(name, version)
		req.SetHandler("upgradeneeded", handler(func(*dom.Event) {
			r, err := req.Result()
			require.NoError(t, err)
			if upgrade != nil {
				upgrade(r.(*Database), req.Transaction())
			}
		}))
		req.SetHandler("success", handler(func(*dom.Event) {
			r, _ := req.Result()
			db = r.(*Database)
		}))
		req.SetHandler("error", handler(func(*dom.Event) {
			err, _ := req.Error()
			t.Errorf("open %s failed: %v", name, err)
		}))
	})
	require.NotNil(t, db)
	return db
}

func book(isbn float64, title, author string) *jsvalue.Object {
	return jsvalue.ObjectOf("isbn", isbn, "title", title, "author", author)
}

func libraryUpgrade(t *testing.T) func(*Database, *Transaction) {
	return func(db *Database, _ *Transaction) {
		s, err := db.CreateObjectStore("books", "isbn", false)
		require.NoError(t, err)
		_, err = s.CreateIndex("by_author", "author", false, false)
		require.NoError(t, err)
		_, err = s.CreateIndex("by_title", "title", true, false)
		require.NoError(t, err)
		_, err = db.CreateObjectStore("log", nil, true)
		require.NoError(t, err)
	}
}

func fillBooks(t *testing.T, e *testEnv, db *Database) {
	t.Helper()
	e.do(t, func() {
		tx, err := db.Transaction("books", "readwrite")
		require.NoError(t, err)
		s, err := tx.ObjectStore("books")
		require.NoError(t, err)
		for _, b := range []*jsvalue.Object{book(3, "C", "ann"), book(1, "A", "bob"), book(2, "B", "ann")} {
			_, err := s.Put(b, nil)
			require.NoError(t, err)
		}
	})
}

// result places a request inside a fresh transaction and returns its
// result after the loop drains.
func result(t *testing.T, e *testEnv, db *Database, storeName, mode string, place func(s *ObjectStore) (*Request, error)) any {
	t.Helper()
	var out any
	e.do(t, func() {
		tx, err := db.Transaction(storeName, mode)
		require.NoError(t, err)
		s, err := tx.ObjectStore(storeName)
		require.NoError(t, err)
		req, err := place(s)
		require.NoError(t, err)
		req.SetHandler("success", handler(func(*dom.Event) {
			out, _ = req.Result()
		}))
	})
	return out
}

func count(t *testing.T, e *testEnv, db *Database, storeName string) float64 {
	t.Helper()
	v := result(t, e, db, storeName, "readonly", func(s *ObjectStore) (*Request, error) {
		return s.Count(nil)
	})
	return v.(float64)
}

func TestOpen_UpgradeThenSuccess(t *testing.T) {
	e := newEnv(t)
	var events []string
	var oldVersion, newVersion any
	e.do(t, func() {
		req := e.f.Open("lib", 0)
		req.SetHandler("upgradeneeded", handler(func(ev *dom.Event) {
			events = append(events, ev.Type)
			r, _ := req.Result()
			_, err := r.(*Database).CreateObjectStore("books", "isbn", false)
			require.NoError(t, err)
		}))
		req.AddEventListener("upgradeneeded", jsvalue.NewFunc("l", func(_ context.Context, _ any, args []any) (any, error) {
			vc := args[0].(*VersionChangeEvent)
			oldVersion, _ = vc.GetProperty("oldVersion")
			newVersion, _ = vc.GetProperty("newVersion")
			return nil, nil
		}))
		req.SetHandler("success", handler(func(ev *dom.Event) {
			events = append(events, ev.Type)
		}))
	})
	assert.Equal(t, []string{"upgradeneeded", "success"}, events)
	assert.Equal(t, 0.0, oldVersion)
	assert.Equal(t, 1.0, newVersion)

	db := e.open(t, "lib", 0, func(*Database, *Transaction) {
		t.Error("no upgrade expected when reopening")
	})
	assert.Equal(t, int64(1), db.Version())
	assert.Equal(t, StringList{"books"}, db.ObjectStoreNames())
}

func TestOpen_LowerVersionFails(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 3, nil)
	db.Close()

	var got *jsvalue.Error
	e.do(t, func() {
		req := e.f.Open("lib", 2)
		req.SetHandler("error", handler(func(*dom.Event) {
			got, _ = req.Error()
		}))
	})
	require.NotNil(t, got)
	assert.Equal(t, jsvalue.VersionError, got.Name)
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion(jsvalue.Undefined{})
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = ParseVersion(7.0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	for _, bad := range []any{0.0, -1.0, 1.5} {
		_, err := ParseVersion(bad)
		assert.Error(t, err, "version %v", bad)
	}
}

func TestObjectStore_PutGetCountGetAll(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))
	fillBooks(t, e, db)

	assert.Equal(t, 3.0, count(t, e, db, "books"))

	v := result(t, e, db, "books", "readonly", func(s *ObjectStore) (*Request, error) {
		return s.Get(2.0)
	})
	title, _ := v.(*jsvalue.Object).Get("title")
	assert.Equal(t, "B", title)

	v = result(t, e, db, "books", "readonly", func(s *ObjectStore) (*Request, error) {
		return s.Get(42.0)
	})
	assert.Equal(t, jsvalue.Undefined{}, v)

	v = result(t, e, db, "books", "readonly", func(s *ObjectStore) (*Request, error) {
		return s.GetAll(nil, 0)
	})
	var titles []any
	for _, b := range v.(*jsvalue.Array).Elems {
		bt, _ := b.(*jsvalue.Object).Get("title")
		titles = append(titles, bt)
	}
	assert.Equal(t, []any{"A", "B", "C"}, titles)

	r, err := NewKeyRange(2.0, nil, false, false)
	require.NoError(t, err)
	v = result(t, e, db, "books", "readonly", func(s *ObjectStore) (*Request, error) {
		return s.Count(r)
	})
	assert.Equal(t, 2.0, v)
}

func TestObjectStore_ValidationErrors(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))
	e.do(t, func() {
		tx, err := db.Transaction("books", "readonly")
		require.NoError(t, err)
		s, _ := tx.ObjectStore("books")

		_, err = s.Put(book(1, "A", "bob"), nil)
		assert.Equal(t, ReadOnlyError, err.(*jsvalue.Error).Name)

		_, err = tx.ObjectStore("log")
		assert.Equal(t, jsvalue.NotFoundError, err.(*jsvalue.Error).Name)

		_, err = s.Get(jsvalue.Undefined{})
		assert.Equal(t, jsvalue.DataError, err.(*jsvalue.Error).Name)

		_, err = s.CreateIndex("x", "x", false, false)
		assert.Equal(t, jsvalue.InvalidStateError, err.(*jsvalue.Error).Name)

		rw, err := db.Transaction(jsvalue.NewArray("books"), "readwrite")
		require.NoError(t, err)
		rs, _ := rw.ObjectStore("books")
		_, err = rs.Put(book(1, "A", "bob"), 1.0)
		assert.Equal(t, jsvalue.DataError, err.(*jsvalue.Error).Name, "in-line store with explicit key")
		_, err = rs.Put(jsvalue.ObjectOf("title", "no key"), nil)
		assert.Equal(t, jsvalue.DataError, err.(*jsvalue.Error).Name)
	})

	_, err := db.Transaction("missing", "readonly")
	assert.Equal(t, jsvalue.NotFoundError, err.(*jsvalue.Error).Name)
	_, err = db.Transaction("books", "versionchange")
	assert.Equal(t, jsvalue.TypeErrorName, err.(*jsvalue.Error).Name)
}

func TestObjectStore_AutoIncrement(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))

	var keys []any
	e.do(t, func() {
		tx, err := db.Transaction("log", "readwrite")
		require.NoError(t, err)
		s, _ := tx.ObjectStore("log")
		place := func(req *Request, err error) {
			require.NoError(t, err)
			req.SetHandler("success", handler(func(*dom.Event) {
				k, _ := req.Result()
				keys = append(keys, k)
			}))
		}
		place(s.Add("first", nil))
		place(s.Add("second", nil))
		place(s.Put("explicit", 10.0))
		place(s.Add("after", nil))
	})
	assert.Equal(t, []any{1.0, 2.0, 10.0, 11.0}, keys)
}

func TestObjectStore_InlineKeyGenerator(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "app", 1, func(db *Database, _ *Transaction) {
		_, err := db.CreateObjectStore("saves", "meta.id", true)
		require.NoError(t, err)
	})
	v := result(t, e, db, "saves", "readwrite", func(s *ObjectStore) (*Request, error) {
		return s.Add(jsvalue.ObjectOf("slot", "a"), nil)
	})
	assert.Equal(t, 1.0, v)

	v = result(t, e, db, "saves", "readonly", func(s *ObjectStore) (*Request, error) {
		return s.Get(1.0)
	})
	meta, _ := v.(*jsvalue.Object).Get("meta")
	id, _ := meta.(*jsvalue.Object).Get("id")
	assert.Equal(t, 1.0, id)
}

func TestObjectStore_AddExistingKeyAborts(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))

	var reqErr *jsvalue.Error
	var txEvents []string
	e.do(t, func() {
		tx, err := db.Transaction("books", "readwrite")
		require.NoError(t, err)
		s, _ := tx.ObjectStore("books")
		_, err = s.Add(book(1, "A", "bob"), nil)
		require.NoError(t, err)
		dup, err := s.Add(book(1, "other", "eve"), nil)
		require.NoError(t, err)
		dup.SetHandler("error", handler(func(*dom.Event) {
			reqErr, _ = dup.Error()
		}))
		tx.SetHandler("abort", handler(func(*dom.Event) { txEvents = append(txEvents, "abort") }))
		tx.SetHandler("complete", handler(func(*dom.Event) { txEvents = append(txEvents, "complete") }))
	})
	require.NotNil(t, reqErr)
	assert.Equal(t, jsvalue.ConstraintError, reqErr.Name)
	assert.Equal(t, []string{"abort"}, txEvents)
	assert.Equal(t, 0.0, count(t, e, db, "books"), "the first add is rolled back")
}

func TestObjectStore_PreventDefaultKeepsTransaction(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))

	completed := false
	e.do(t, func() {
		tx, err := db.Transaction("books", "readwrite")
		require.NoError(t, err)
		s, _ := tx.ObjectStore("books")
		_, err = s.Add(book(1, "A", "bob"), nil)
		require.NoError(t, err)
		dup, err := s.Add(book(2, "A", "eve"), nil)
		require.NoError(t, err)
		dup.SetHandler("error", handler(func(ev *dom.Event) { ev.PreventDefault() }))
		tx.SetHandler("complete", handler(func(*dom.Event) { completed = true }))
	})
	assert.True(t, completed)
	assert.Equal(t, 1.0, count(t, e, db, "books"))
}

func TestTransaction_AbortRollsBack(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))
	fillBooks(t, e, db)

	var aborted bool
	var lateErr *jsvalue.Error
	e.do(t, func() {
		tx, err := db.Transaction(jsvalue.NewArray("books"), "readwrite")
		require.NoError(t, err)
		s, _ := tx.ObjectStore("books")
		clr, err := s.Clear()
		require.NoError(t, err)
		late, err := s.Put(book(9, "Z", "zed"), nil)
		require.NoError(t, err)
		late.SetHandler("error", handler(func(*dom.Event) { lateErr, _ = late.Error() }))
		clr.SetHandler("success", handler(func(*dom.Event) {
			require.NoError(t, tx.Abort())
		}))
		tx.SetHandler("abort", handler(func(*dom.Event) { aborted = true }))
	})
	assert.True(t, aborted)
	require.NotNil(t, lateErr)
	assert.Equal(t, jsvalue.AbortError, lateErr.Name)
	assert.Equal(t, 3.0, count(t, e, db, "books"))

	v := result(t, e, db, "books", "readonly", func(s *ObjectStore) (*Request, error) {
		ix, err := s.Index("by_title")
		require.NoError(t, err)
		return ix.Get("C")
	})
	require.IsType(t, &jsvalue.Object{}, v, "index entries are restored with the records")
}

func TestTransaction_FinishedRejectsRequests(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))
	var tx *Transaction
	e.do(t, func() {
		var err error
		tx, err = db.Transaction("books", "readwrite")
		require.NoError(t, err)
	})
	require.True(t, tx.Finished())
	assert.Error(t, tx.Abort())
	_, err := tx.ObjectStore("books")
	assert.Equal(t, jsvalue.InvalidStateError, err.(*jsvalue.Error).Name)
}

func TestTransaction_WritersSerialize(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))

	var order []string
	e.do(t, func() {
		for _, name := range []string{"first", "second"} {
			tx, err := db.Transaction("books", "readwrite")
			require.NoError(t, err)
			s, _ := tx.ObjectStore("books")
			req, err := s.Put(book(1, name, "x"), nil)
			require.NoError(t, err)
			req.SetHandler("success", handler(func(*dom.Event) { order = append(order, name+":put") }))
			tx.SetHandler("complete", handler(func(*dom.Event) { order = append(order, name+":complete") }))
		}
	})
	assert.Equal(t, []string{"first:put", "first:complete", "second:put", "second:complete"}, order)
}

func TestIndex_GetAndUniqueCursors(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))
	fillBooks(t, e, db)

	v := result(t, e, db, "books", "readonly", func(s *ObjectStore) (*Request, error) {
		ix, err := s.Index("by_author")
		require.NoError(t, err)
		return ix.Get("bob")
	})
	title, _ := v.(*jsvalue.Object).Get("title")
	assert.Equal(t, "A", title)

	walk := func(direction string) [][2]any {
		var seen [][2]any
		e.do(t, func() {
			tx, err := db.Transaction("books", "readonly")
			require.NoError(t, err)
			s, _ := tx.ObjectStore("books")
			ix, _ := s.Index("by_author")
			req, err := ix.OpenCursor(nil, direction)
			require.NoError(t, err)
			req.SetHandler("success", handler(func(*dom.Event) {
				r, _ := req.Result()
				c, ok := r.(*Cursor)
				if !ok {
					return
				}
				seen = append(seen, [2]any{c.Key(), c.PrimaryKey()})
				require.NoError(t, c.Continue(nil))
			}))
		})
		return seen
	}

	assert.Equal(t, [][2]any{{"ann", 2.0}, {"ann", 3.0}, {"bob", 1.0}}, walk("next"))
	assert.Equal(t, [][2]any{{"ann", 2.0}, {"bob", 1.0}}, walk("nextunique"))
	assert.Equal(t, [][2]any{{"bob", 1.0}, {"ann", 3.0}, {"ann", 2.0}}, walk("prev"))
	assert.Equal(t, [][2]any{{"bob", 1.0}, {"ann", 2.0}}, walk("prevunique"))
}

func TestCursor_AdvanceAndContinueToKey(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "nums", 1, func(db *Database, _ *Transaction) {
		_, err := db.CreateObjectStore("n", nil, false)
		require.NoError(t, err)
	})
	e.do(t, func() {
		tx, err := db.Transaction("n", "readwrite")
		require.NoError(t, err)
		s, _ := tx.ObjectStore("n")
		for i := 1; i <= 10; i++ {
			_, err := s.Put(float64(i*i), float64(i))
			require.NoError(t, err)
		}
	})

	var keys []any
	e.do(t, func() {
		tx, err := db.Transaction("n", "readonly")
		require.NoError(t, err)
		s, _ := tx.ObjectStore("n")
		req, err := s.OpenCursor(nil, "next")
		require.NoError(t, err)
		step := 0
		req.SetHandler("success", handler(func(*dom.Event) {
			r, _ := req.Result()
			c, ok := r.(*Cursor)
			if !ok {
				return
			}
			keys = append(keys, c.Key())
			step++
			switch step {
			case 1:
				require.NoError(t, c.Advance(3))
			case 2:
				assert.Error(t, c.Continue(2.0), "continue backwards")
				require.NoError(t, c.Continue(8.0))
			default:
				require.NoError(t, c.Continue(nil))
			}
		}))
	})
	assert.Equal(t, []any{1.0, 4.0, 8.0, 9.0, 10.0}, keys)
}

func TestIndex_MultiEntry(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "tags", 1, func(db *Database, _ *Transaction) {
		s, err := db.CreateObjectStore("items", "id", false)
		require.NoError(t, err)
		_, err = s.CreateIndex("by_tag", "tags", false, true)
		require.NoError(t, err)
	})
	e.do(t, func() {
		tx, _ := db.Transaction("items", "readwrite")
		s, _ := tx.ObjectStore("items")
		_, err := s.Put(jsvalue.ObjectOf("id", 1.0, "tags", jsvalue.NewArray("red", "blue", "red")), nil)
		require.NoError(t, err)
		_, err = s.Put(jsvalue.ObjectOf("id", 2.0, "tags", jsvalue.NewArray("blue")), nil)
		require.NoError(t, err)
	})
	for tag, want := range map[string]float64{"red": 1, "blue": 2, "green": 0} {
		v := result(t, e, db, "items", "readonly", func(s *ObjectStore) (*Request, error) {
			ix, _ := s.Index("by_tag")
			return ix.Count(tag)
		})
		assert.Equal(t, want, v, tag)
	}
}

func TestUpgrade_CreateIndexOnExistingDataViolation(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 1, libraryUpgrade(t))
	fillBooks(t, e, db)
	db.Close()

	var openErr *jsvalue.Error
	e.do(t, func() {
		req := e.f.Open("lib", 2)
		req.SetHandler("upgradeneeded", handler(func(*dom.Event) {
			s, err := req.Transaction().ObjectStore("books")
			require.NoError(t, err)
			_, err = s.CreateIndex("by_author_unique", "author", true, false)
			require.NoError(t, err)
		}))
		req.SetHandler("error", handler(func(*dom.Event) { openErr, _ = req.Error() }))
	})
	require.NotNil(t, openErr)
	assert.Equal(t, jsvalue.AbortError, openErr.Name)

	db = e.open(t, "lib", 0, nil)
	assert.Equal(t, int64(1), db.Version())
	assert.Equal(t, 3.0, count(t, e, db, "books"))
}

func TestUpgrade_AbortRemovesNewDatabase(t *testing.T) {
	e := newEnv(t)
	e.do(t, func() {
		req := e.f.Open("fresh", 1)
		req.SetHandler("upgradeneeded", handler(func(*dom.Event) {
			r, _ := req.Result()
			_, err := r.(*Database).CreateObjectStore("s", nil, false)
			require.NoError(t, err)
			require.NoError(t, req.Transaction().Abort())
		}))
	})
	var upgraded bool
	db := e.open(t, "fresh", 0, func(*Database, *Transaction) { upgraded = true })
	assert.True(t, upgraded, "aborted first open leaves no database behind")
	assert.Empty(t, db.ObjectStoreNames())
}

func TestUpgrade_VersionChangeClosesOldConnection(t *testing.T) {
	e := newEnv(t)
	old := e.open(t, "lib", 1, libraryUpgrade(t))

	var seen []any
	old.SetHandler("versionchange", handler(func(ev *dom.Event) {
		seen = append(seen, ev.Type)
		old.Close()
	}))
	db := e.open(t, "lib", 2, func(db *Database, _ *Transaction) {
		require.NoError(t, db.DeleteObjectStore("log"))
	})
	assert.Equal(t, []any{"versionchange"}, seen)
	assert.True(t, old.Closed())
	assert.Equal(t, int64(2), db.Version())
	assert.Equal(t, StringList{"books"}, db.ObjectStoreNames())

	_, err := old.Transaction("books", "readonly")
	assert.Equal(t, jsvalue.InvalidStateError, err.(*jsvalue.Error).Name)
}

func TestUpgrade_BlockedUntilClose(t *testing.T) {
	e := newEnv(t)
	old := e.open(t, "lib", 1, nil)

	var events []string
	var req *OpenRequest
	e.do(t, func() {
		req = e.f.Open("lib", 2)
		req.SetHandler("blocked", handler(func(ev *dom.Event) { events = append(events, ev.Type) }))
		req.SetHandler("success", handler(func(ev *dom.Event) { events = append(events, ev.Type) }))
	})
	assert.Equal(t, []string{"blocked"}, events)

	e.do(t, old.Close)
	assert.Equal(t, []string{"blocked", "success"}, events)
}

func TestDeleteDatabase(t *testing.T) {
	e := newEnv(t)
	db := e.open(t, "lib", 4, libraryUpgrade(t))
	db.SetHandler("versionchange", handler(func(*dom.Event) { db.Close() }))

	done := false
	e.do(t, func() {
		req := e.f.DeleteDatabase("lib")
		req.SetHandler("success", handler(func(*dom.Event) { done = true }))
	})
	assert.True(t, done)

	var oldVersion any
	e.do(t, func() {
		req := e.f.Open("lib", 0)
		req.AddEventListener("upgradeneeded", jsvalue.NewFunc("l", func(_ context.Context, _ any, args []any) (any, error) {
			oldVersion, _ = args[0].(*VersionChangeEvent).GetProperty("oldVersion")
			return nil, nil
		}))
	})
	assert.Equal(t, 0.0, oldVersion)
}

func TestValueCodec_PreservesTypes(t *testing.T) {
	in := jsvalue.ObjectOf(
		"u", jsvalue.Undefined{},
		"n", jsvalue.Null{},
		"inf", posInf(),
		"bytes", jsvalue.Uint8ArrayOf([]byte{0, 1, 255}),
		"list", jsvalue.NewArray(1.0, "two", true),
	)
	s, err := encodeValue(in)
	require.NoError(t, err)
	out, err := decodeValue(s)
	require.NoError(t, err)

	obj := out.(*jsvalue.Object)
	assert.Equal(t, []string{"u", "n", "inf", "bytes", "list"}, obj.Keys())
	u, _ := obj.Get("u")
	assert.Equal(t, jsvalue.Undefined{}, u)
	inf, _ := obj.Get("inf")
	assert.Equal(t, posInf(), inf)
	b, _ := obj.Get("bytes")
	assert.Equal(t, []byte{0, 1, 255}, b.(*jsvalue.Uint8Array).Bytes())

	cyclic := jsvalue.NewObject()
	cyclic.Set("self", cyclic)
	_, err = encodeValue(cyclic)
	assert.Error(t, err)

	_, err = encodeValue(jsvalue.NewFunc("f", nil))
	assert.Equal(t, "DataCloneError", err.(*jsvalue.Error).Name)
}
