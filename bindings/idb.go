package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/idb"
	"github.com/wippyai/wbg-runtime/input"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// IndexedDB serves IDBFactory and everything reachable from it.
var IndexedDB = Group{Name: "indexeddb", Define: defineIndexedDB}

type cursorSource interface {
	OpenCursor(query any, direction string) (*idb.Request, error)
}

func defineIndexedDB(c *Catalog) {
	c.Catch("__wbg_open", Sig(Handle, Ref, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		f, err := As[*idb.Factory](args.Val(0), "IDBFactory")
		if err != nil {
			return nil, err
		}
		return f.Open(args.Str(1), 0), nil
	})
	c.Catch("__wbg_open", Sig(Handle, Ref, Str, U32), func(_ context.Context, _ *Env, args Args) (any, error) {
		f, err := As[*idb.Factory](args.Val(0), "IDBFactory")
		if err != nil {
			return nil, err
		}
		if args.U32(2) == 0 {
			return nil, jsvalue.NewTypeError("Failed to execute 'open' on 'IDBFactory': The version provided must not be 0.")
		}
		return f.Open(args.Str(1), int64(args.U32(2))), nil
	})
	// window.open: there is nothing to navigate.
	c.Catch("__wbg_open", Sig(OptHandle, Ref, Str, Str), func(context.Context, *Env, Args) (any, error) {
		return jsvalue.Null{}, nil
	})
	c.Catch("__wbg_deleteDatabase", Sig(Handle, Ref, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		f, err := As[*idb.Factory](args.Val(0), "IDBFactory")
		if err != nil {
			return nil, err
		}
		return f.DeleteDatabase(args.Str(1)), nil
	})
	c.Catch("__wbg_cmp", Sig(RetI32, Ref, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		f, err := As[*idb.Factory](args.Val(0), "IDBFactory")
		if err != nil {
			return nil, err
		}
		n, err := f.Cmp(args.Val(1), args.Val(2))
		return float64(n), err
	})

	defineIDBSchema(c)
	defineIDBRequests(c)
	defineIDBStores(c)
	defineIDBKeyRanges(c)
}

func defineIDBSchema(c *Catalog) {
	c.Catch("__wbg_createObjectStore", Sig(Handle, Ref, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		db, err := As[*idb.Database](args.Val(0), "IDBDatabase")
		if err != nil {
			return nil, err
		}
		return db.CreateObjectStore(args.Str(1), nil, false)
	})
	c.Catch("__wbg_createObjectStore", Sig(Handle, Ref, Str, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		db, err := As[*idb.Database](args.Val(0), "IDBDatabase")
		if err != nil {
			return nil, err
		}
		opts := args.Val(2)
		keyPath, err := option(opts, "keyPath")
		if err != nil {
			return nil, err
		}
		auto, err := option(opts, "autoIncrement")
		if err != nil {
			return nil, err
		}
		return db.CreateObjectStore(args.Str(1), keyPath, jsvalue.Truthy(auto))
	})
	c.Catch("__wbg_deleteObjectStore", Sig(Void, Ref, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		db, err := As[*idb.Database](args.Val(0), "IDBDatabase")
		if err != nil {
			return nil, err
		}
		return nil, db.DeleteObjectStore(args.Str(1))
	})
	createIndex := func(_ context.Context, _ *Env, args Args) (any, error) {
		s, err := As[*idb.ObjectStore](args.Val(0), "IDBObjectStore")
		if err != nil {
			return nil, err
		}
		opts := args.Val(3)
		unique, err := option(opts, "unique")
		if err != nil {
			return nil, err
		}
		multi, err := option(opts, "multiEntry")
		if err != nil {
			return nil, err
		}
		return s.CreateIndex(args.Str(1), args.Val(2), jsvalue.Truthy(unique), jsvalue.Truthy(multi))
	}
	c.Catch("__wbg_createIndex", Sig(Handle, Ref, Str, Ref), createIndex)
	c.Catch("__wbg_createIndex", Sig(Handle, Ref, Str, Ref, Ref), createIndex)
	c.Catch("__wbg_deleteIndex", Sig(Void, Ref, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		s, err := As[*idb.ObjectStore](args.Val(0), "IDBObjectStore")
		if err != nil {
			return nil, err
		}
		return nil, s.DeleteIndex(args.Str(1))
	})

	c.setter("__wbg_setkeypath", "keyPath", Ref)
	c.setter("__wbg_setautoincrement", "autoIncrement", Bool)
	c.setter("__wbg_setunique", "unique", Bool)
	c.setter("__wbg_setmultientry", "multiEntry", Bool)

	c.getter("__wbg_keyPath", "keyPath", Handle, true)
	c.getter("__wbg_unique", "unique", RetBool, false)
	c.getter("__wbg_multiEntry", "multiEntry", RetBool, false)
	c.getter("__wbg_autoIncrement", "autoIncrement", RetBool, false)
	c.getter("__wbg_indexNames", "indexNames", Handle, false)
	c.getter("__wbg_objectStoreNames", "objectStoreNames", Handle, false)
	c.numeric("__wbg_version", "version")
	c.Func("__wbg_item", Sig(OptHandle, Ref, U32), func(ctx context.Context, env *Env, args Args) (any, error) {
		switch l := args.Val(0).(type) {
		case idb.StringList:
			if s, ok := l.Item(int(args.U32(1))); ok {
				return s, nil
			}
			return jsvalue.Null{}, nil
		case input.TouchList:
			return orNull(l.Item(args.U32(1))), nil
		}
		return send("item")(ctx, env, args)
	})
	c.Func("__wbg_contains", Sig(RetBool, Ref, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		l, err := As[idb.StringList](args.Val(0), "DOMStringList")
		if err != nil {
			return nil, err
		}
		return l.Contains(args.Str(1)), nil
	})
}

func defineIDBRequests(c *Catalog) {
	c.Catch("__wbg_result", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		r, err := As[interface{ Result() (any, error) }](args.Val(0), "IDBRequest")
		if err != nil {
			return nil, err
		}
		return r.Result()
	})
	c.Method("IDBTransaction", "__wbg_error", Sig(OptHandle, Ref), false, prop("error"))
	c.Catch("__wbg_error", Sig(OptHandle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		r, err := As[interface {
			Error() (*jsvalue.Error, error)
		}](args.Val(0), "IDBRequest")
		if err != nil {
			return nil, err
		}
		e, err := r.Error()
		if err != nil {
			return nil, err
		}
		return orNull(e), nil
	})
	c.getter("__wbg_readyState", "readyState", RetStr, false)
	c.getter("__wbg_source", "source", Handle, false)
	c.getter("__wbg_request", "request", Handle, false)
	c.getter("__wbg_transaction", "transaction", OptHandle, false)
	c.getter("__wbg_db", "db", Handle, false)
	c.numeric("__wbg_oldVersion", "oldVersion")
	c.getter("__wbg_newVersion", "newVersion", RetOptF64, false)
	for _, ev := range []string{"success", "error", "upgradeneeded", "blocked", "versionchange", "complete", "abort", "close"} {
		c.setter("__wbg_seton"+ev, "on"+ev, Ref)
	}

	// modeArg is the index of the mode discriminant, or -1 for readonly.
	transaction := func(modeArg int) Thunk {
		return func(_ context.Context, _ *Env, args Args) (any, error) {
			db, err := As[*idb.Database](args.Val(0), "IDBDatabase")
			if err != nil {
				return nil, err
			}
			mode := "readonly"
			if modeArg >= 0 {
				if m, ok := enumValue(transactionModes, args.U32(modeArg)).(string); ok {
					mode = m
				}
			}
			return db.Transaction(args.Val(1), mode)
		}
	}
	c.Catch("__wbg_transaction", Sig(Handle, Ref, Ref), transaction(-1))
	c.Catch("__wbg_transaction", Sig(Handle, Ref, Ref, U32), transaction(2))
	c.Catch("__wbg_transaction", Sig(Handle, Ref, Str), transaction(-1))
	c.Catch("__wbg_objectStore", Sig(Handle, Ref, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		tx, err := As[*idb.Transaction](args.Val(0), "IDBTransaction")
		if err != nil {
			return nil, err
		}
		return tx.ObjectStore(args.Str(1))
	})
	// IDBTransaction.abort and AbortController.abort share a signature.
	c.Catch("__wbg_abort", Sig(Void, Ref), func(ctx context.Context, env *Env, args Args) (any, error) {
		if tx, ok := args.Val(0).(*idb.Transaction); ok {
			return nil, tx.Abort()
		}
		return send("abort")(ctx, env, args)
	})
	c.getter("__wbg_mode", "mode", RetStr, false)
}

func defineIDBStores(c *Catalog) {
	write := func(add bool) Thunk {
		return func(_ context.Context, _ *Env, args Args) (any, error) {
			s, err := As[*idb.ObjectStore](args.Val(0), "IDBObjectStore")
			if err != nil {
				return nil, err
			}
			var key any
			if len(args) > 2 {
				key = args.Val(2)
			}
			if add {
				return s.Add(args.Val(1), key)
			}
			return s.Put(args.Val(1), key)
		}
	}
	c.Catch("__wbg_put", Sig(Handle, Ref, Ref), write(false))
	c.Catch("__wbg_put", Sig(Handle, Ref, Ref, Ref), write(false))
	c.Catch("__wbg_add", Sig(Handle, Ref, Ref), write(true))
	c.Catch("__wbg_add", Sig(Handle, Ref, Ref, Ref), write(true))
	c.Catch("__wbg_delete", Sig(Handle, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		s, err := As[*idb.ObjectStore](args.Val(0), "IDBObjectStore")
		if err != nil {
			return nil, err
		}
		return s.Delete(args.Val(1))
	})
	c.Method("IDBObjectStore", "__wbg_clear", Sig(Handle, Ref), true, func(_ context.Context, _ *Env, args Args) (any, error) {
		st, err := As[*idb.ObjectStore](args.Val(0), "IDBObjectStore")
		if err != nil {
			return nil, err
		}
		return st.Clear()
	})
	count := func(_ context.Context, _ *Env, args Args) (any, error) {
		switch s := args.Val(0).(type) {
		case *idb.ObjectStore:
			return s.Count(args.Val(1))
		case *idb.Index:
			return s.Count(args.Val(1))
		}
		return nil, jsvalue.NewTypeError("expected IDBObjectStore or IDBIndex, got " + jsvalue.DebugString(args.Val(0)))
	}
	c.Catch("__wbg_count", Sig(Handle, Ref), count)
	c.Catch("__wbg_count", Sig(Handle, Ref, Ref), count)
	getAll := func(_ context.Context, _ *Env, args Args) (any, error) {
		var n uint32
		if len(args) > 2 {
			n = args.U32(2)
		}
		switch s := args.Val(0).(type) {
		case *idb.ObjectStore:
			return s.GetAll(args.Val(1), n)
		case *idb.Index:
			return s.GetAll(args.Val(1), n)
		}
		return nil, jsvalue.NewTypeError("expected IDBObjectStore or IDBIndex, got " + jsvalue.DebugString(args.Val(0)))
	}
	c.Catch("__wbg_getAll", Sig(Handle, Ref), getAll)
	c.Catch("__wbg_getAll", Sig(Handle, Ref, Ref), getAll)
	c.Catch("__wbg_getAll", Sig(Handle, Ref, Ref, U32), getAll)
	c.Catch("__wbg_index", Sig(Handle, Ref, Str), func(_ context.Context, _ *Env, args Args) (any, error) {
		s, err := As[*idb.ObjectStore](args.Val(0), "IDBObjectStore")
		if err != nil {
			return nil, err
		}
		return s.Index(args.Str(1))
	})
	c.getter("__wbg_objectStore", "objectStore", Handle, false)

	openCursor := func(_ context.Context, _ *Env, args Args) (any, error) {
		s, err := As[cursorSource](args.Val(0), "IDBObjectStore")
		if err != nil {
			return nil, err
		}
		dir := "next"
		if len(args) > 2 {
			if d, ok := enumValue(cursorDirections, args.U32(2)).(string); ok {
				dir = d
			}
		}
		return s.OpenCursor(args.Val(1), dir)
	}
	c.Catch("__wbg_openCursor", Sig(Handle, Ref), openCursor)
	c.Catch("__wbg_openCursor", Sig(Handle, Ref, Ref), openCursor)
	c.Catch("__wbg_openCursor", Sig(Handle, Ref, Ref, U32), openCursor)

	cursorStep := func(_ context.Context, _ *Env, args Args) (any, error) {
		cur, err := As[*idb.Cursor](args.Val(0), "IDBCursor")
		if err != nil {
			return nil, err
		}
		return nil, cur.Continue(args.Val(1))
	}
	c.Catch("__wbg_continue", Sig(Void, Ref), cursorStep)
	c.Catch("__wbg_continue", Sig(Void, Ref, Ref), cursorStep)
	c.Catch("__wbg_advance", Sig(Void, Ref, U32), func(_ context.Context, _ *Env, args Args) (any, error) {
		cur, err := As[*idb.Cursor](args.Val(0), "IDBCursor")
		if err != nil {
			return nil, err
		}
		return nil, cur.Advance(args.U32(1))
	})
	c.getter("__wbg_key", "key", Handle, true)
	c.getter("__wbg_primaryKey", "primaryKey", Handle, true)
	c.getter("__wbg_direction", "direction", RetStr, false)
	c.Method("IDBCursorWithValue", "__wbg_value", Sig(Handle, Ref), true, prop("value"))
	c.getter("__wbg_value", "value", Handle, false)
}

func defineIDBKeyRanges(c *Catalog) {
	c.Catch("__wbg_only", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		return idb.Only(args.Val(0))
	})
	c.Catch("__wbg_bound", Sig(Handle, Ref, Ref, Bool, Bool), func(_ context.Context, _ *Env, args Args) (any, error) {
		return idb.NewKeyRange(args.Val(0), args.Val(1), args.Bool(2), args.Bool(3))
	})
	c.Catch("__wbg_lowerBound", Sig(Handle, Ref, Bool), func(_ context.Context, _ *Env, args Args) (any, error) {
		return idb.NewKeyRange(args.Val(0), nil, args.Bool(1), false)
	})
	c.Catch("__wbg_upperBound", Sig(Handle, Ref, Bool), func(_ context.Context, _ *Env, args Args) (any, error) {
		return idb.NewKeyRange(nil, args.Val(0), false, args.Bool(1))
	})
	c.Catch("__wbg_includes", Sig(RetBool, Ref, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		r, err := As[*idb.KeyRange](args.Val(0), "IDBKeyRange")
		if err != nil {
			return nil, err
		}
		return r.Includes(args.Val(1))
	})
}

// option reads a dictionary member; absent dictionaries read as undefined.
func option(dict any, name string) (any, error) {
	if jsvalue.IsNullish(dict) {
		return jsvalue.Undefined{}, nil
	}
	return jsvalue.Get(dict, name)
}
