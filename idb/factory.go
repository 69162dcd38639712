package idb

import (
	"context"
	"database/sql"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/store"
)

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the factory logger.
func WithLogger(log *zap.Logger) Option {
	return func(f *Factory) { f.log = log }
}

// Factory is the IDBFactory of one origin. All methods must be called on
// the event loop goroutine.
type Factory struct {
	ctx    context.Context
	db     *store.DB
	loop   *eventloop.Loop
	origin string
	log    *zap.Logger

	conns   map[string][]*Database
	txs     []*Transaction
	blocked []func() bool
}

// NewFactory creates the factory for origin. ctx is passed to guest event
// handlers.
func NewFactory(ctx context.Context, db *store.DB, loop *eventloop.Loop, origin string, opts ...Option) *Factory {
	f := &Factory{
		ctx:    ctx,
		db:     db,
		loop:   loop,
		origin: origin,
		log:    Logger(),
		conns:  make(map[string][]*Database),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ClassName implements jsvalue.ClassNamer.
func (f *Factory) ClassName() string { return "IDBFactory" }

// Cmp implements indexedDB.cmp.
func (f *Factory) Cmp(a, b any) (int, error) { return CompareKeys(a, b) }

// ParseVersion validates an open version argument. Undefined yields 0,
// meaning "current or 1".
func ParseVersion(v any) (int64, error) {
	v = jsvalue.Normalize(v)
	if _, ok := v.(jsvalue.Undefined); ok || v == nil {
		return 0, nil
	}
	n, err := jsvalue.ToNumber(v)
	if err != nil {
		return 0, err
	}
	if n < 1 || n != math.Trunc(n) || n > math.MaxInt64/2 {
		return 0, typeError("the version must be a positive integer")
	}
	return int64(n), nil
}

// Open opens a connection. version 0 opens the current version, creating
// the database at version 1 if needed.
func (f *Factory) Open(name string, version int64) *OpenRequest {
	req := &OpenRequest{}
	f.loop.Post(func() { f.runOpen(req, name, version) })
	return req
}

func (f *Factory) runOpen(req *OpenRequest, name string, version int64) {
	var (
		s       *schema
		created bool
	)
	err := f.db.Tx(f.ctx, func(q *sql.Tx) error {
		var ok bool
		var err error
		s, ok, err = loadSchema(f.ctx, q, f.origin, name)
		if err != nil || ok {
			return err
		}
		id, err := createDatabase(f.ctx, q, f.origin, name)
		if err != nil {
			return err
		}
		created = true
		s = &schema{dbID: id, stores: make(map[string]*storeMeta)}
		return nil
	})
	if err != nil {
		f.openFailed(req, asDOMError(err))
		return
	}

	if version == 0 {
		version = max(s.version, 1)
	}
	if version < s.version {
		f.openFailed(req, domError(jsvalue.VersionError, "the requested version is less than the existing version"))
		return
	}

	conn := &Database{f: f, name: name, schema: s}
	if version == s.version {
		f.conns[name] = append(f.conns[name], conn)
		req.succeed(conn)
		f.fire(&req.Request, "success")
		return
	}

	oldVersion := s.version
	f.notifyVersionChange(name, oldVersion, &version)
	f.whenUnblocked(req, name, oldVersion, &version, func() {
		f.upgrade(req, conn, oldVersion, version, created)
	})
}

func (f *Factory) openFailed(req *OpenRequest, err *jsvalue.Error) {
	req.fail(err)
	f.fire(&req.Request, "error")
}

func (f *Factory) fire(req *Request, typ string) {
	if _, err := req.Dispatch(f.ctx, req, dom.NewEvent(typ)); err != nil {
		f.log.Debug("exception in request handler", zap.String("event", typ), zap.Error(err))
	}
}

// notifyVersionChange fires versionchange at every other open connection.
func (f *Factory) notifyVersionChange(name string, oldVersion int64, newVersion *int64) {
	for _, c := range append([]*Database(nil), f.conns[name]...) {
		if c.closed {
			continue
		}
		if _, err := c.Dispatch(f.ctx, c, newVersionEvent("versionchange", oldVersion, newVersion)); err != nil {
			f.log.Debug("exception in versionchange handler", zap.Error(err))
		}
	}
}

// whenUnblocked runs fn once no other connection to name is open, firing
// blocked at req while waiting.
func (f *Factory) whenUnblocked(req *OpenRequest, name string, oldVersion int64, newVersion *int64, fn func()) {
	if len(f.conns[name]) == 0 {
		fn()
		return
	}
	if _, err := req.Dispatch(f.ctx, req, newVersionEvent("blocked", oldVersion, newVersion)); err != nil {
		f.log.Debug("exception in blocked handler", zap.Error(err))
	}
	f.blocked = append(f.blocked, func() bool {
		if len(f.conns[name]) > 0 {
			return false
		}
		fn()
		return true
	})
}

func (f *Factory) connectionClosed(c *Database) {
	conns := f.conns[c.name]
	for i, x := range conns {
		if x == c {
			f.conns[c.name] = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}
	if len(f.conns[c.name]) == 0 {
		delete(f.conns, c.name)
	}
	waiting := f.blocked
	f.blocked = nil
	for _, w := range waiting {
		if !w() {
			f.blocked = append(f.blocked, w)
		}
	}
}

func (f *Factory) upgrade(req *OpenRequest, conn *Database, oldVersion, version int64, created bool) {
	tx := newTransaction(conn, nil, VersionChange)
	conn.upgrade = tx
	req.tx = tx
	f.conns[conn.name] = append(f.conns[conn.name], conn)

	tx.onStart = func() {
		err := f.db.Tx(f.ctx, func(q *sql.Tx) error {
			return setVersion(f.ctx, q, conn.schema.dbID, version)
		})
		if err != nil {
			tx.abortWith(asDOMError(err))
			return
		}
		conn.schema.version = version
		tx.undo = append(tx.undo, func(ctx context.Context, q *sql.Tx) error {
			conn.schema.version = oldVersion
			if created {
				return dropDatabase(ctx, q, conn.schema.dbID)
			}
			return setVersion(ctx, q, conn.schema.dbID, oldVersion)
		})

		req.succeed(conn)
		ev := newVersionEvent("upgradeneeded", oldVersion, &version)
		if _, err := req.Dispatch(f.ctx, req, ev); err != nil {
			f.log.Debug("exception in upgradeneeded handler", zap.Error(err))
			tx.abortWith(abortError("an upgradeneeded handler threw"))
		}
	}
	tx.onFinish = append(tx.onFinish, func(aborted bool) {
		conn.upgrade = nil
		if aborted {
			conn.closed = true
			f.connectionClosed(conn)
			req.tx = nil
			f.openFailed(req, abortError("the version change transaction was aborted"))
			return
		}
		req.tx = nil
		req.succeed(conn)
		f.fire(&req.Request, "success")
	})
	f.register(tx)
}

// DeleteDatabase removes the database once no connection to it is open.
// The request succeeds with undefined even when it did not exist.
func (f *Factory) DeleteDatabase(name string) *OpenRequest {
	req := &OpenRequest{}
	f.loop.Post(func() {
		var oldVersion int64
		for _, c := range f.conns[name] {
			oldVersion = c.schema.version
		}
		f.notifyVersionChange(name, oldVersion, nil)
		f.whenUnblocked(req, name, oldVersion, nil, func() {
			err := f.db.Tx(f.ctx, func(q *sql.Tx) error {
				_, err := q.ExecContext(f.ctx,
					`DELETE FROM idb_databases WHERE origin = ? AND name = ?`, f.origin, name)
				return err
			})
			if err != nil {
				f.openFailed(req, asDOMError(err))
				return
			}
			req.succeed(jsvalue.Undefined{})
			f.fire(&req.Request, "success")
		})
	})
	return req
}

// register queues tx behind conflicting transactions and starts it when
// none are in the way.
func (f *Factory) register(tx *Transaction) {
	f.txs = append(f.txs, tx)
	if f.canStart(tx) {
		tx.start()
	}
}

func (f *Factory) canStart(tx *Transaction) bool {
	for _, o := range f.txs {
		if o == tx {
			return true
		}
		if o.finished || o.db.name != tx.db.name {
			continue
		}
		if (tx.mode != ReadOnly || o.mode != ReadOnly) && tx.overlaps(o) {
			return false
		}
	}
	return true
}

func (f *Factory) finish(tx *Transaction) {
	for i, o := range f.txs {
		if o == tx {
			f.txs = append(f.txs[:i:i], f.txs[i+1:]...)
			break
		}
	}
	for _, o := range append([]*Transaction(nil), f.txs...) {
		if !o.started && !o.finished && f.canStart(o) {
			o.start()
		}
	}
}
