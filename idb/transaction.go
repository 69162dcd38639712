package idb

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Mode is a transaction mode.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
	VersionChange
)

// ParseMode accepts the IDBTransactionMode strings. readwriteflush and
// cleanup behave as readwrite; empty and undefined mean readonly.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "readonly":
		return ReadOnly, nil
	case "readwrite", "readwriteflush", "cleanup":
		return ReadWrite, nil
	}
	return 0, typeError("invalid transaction mode " + s)
}

func (m Mode) String() string {
	return [...]string{"readonly", "readwrite", "versionchange"}[m]
}

// op runs one request against storage. The undo function, when non-nil,
// reverts the request's effects if the transaction aborts.
type op func(ctx context.Context, q *sql.Tx) (result any, undo undoFunc, err error)

type undoFunc func(ctx context.Context, q *sql.Tx) error

type pending struct {
	req *Request
	run op
}

// Transaction is an IDBTransaction.
//
// Every request runs in its own short SQL transaction; the undo log
// replays compensations in reverse on abort. Transactions whose scopes
// overlap run one after another when either of them writes.
type Transaction struct {
	dom.EventTarget
	db     *Database
	mode   Mode
	scope  []string
	stores map[string]*ObjectStore

	queue []pending
	undo  []undoFunc
	err   *jsvalue.Error

	started   bool
	scheduled bool
	finished  bool
	aborted   bool

	onStart  func()
	onFinish []func(aborted bool)
}

func newTransaction(db *Database, scope []string, mode Mode) *Transaction {
	return &Transaction{db: db, scope: scope, mode: mode, stores: make(map[string]*ObjectStore)}
}

// Mode returns the transaction mode.
func (tx *Transaction) Mode() Mode { return tx.mode }

// DB returns the connection the transaction belongs to.
func (tx *Transaction) DB() *Database { return tx.db }

// Err returns the abort reason, nil unless aborted with an error.
func (tx *Transaction) Err() *jsvalue.Error { return tx.err }

// Finished reports whether the transaction committed or aborted.
func (tx *Transaction) Finished() bool { return tx.finished }

// ObjectStoreNames returns the scope.
func (tx *Transaction) ObjectStoreNames() StringList {
	if tx.mode == VersionChange {
		return StringList(tx.db.schema.storeNames())
	}
	return StringList(append([]string(nil), tx.scope...))
}

func (tx *Transaction) inScope(name string) bool {
	if tx.mode == VersionChange {
		return true
	}
	for _, s := range tx.scope {
		if s == name {
			return true
		}
	}
	return false
}

func (tx *Transaction) overlaps(o *Transaction) bool {
	if tx.mode == VersionChange || o.mode == VersionChange {
		return true
	}
	for _, s := range tx.scope {
		if o.inScope(s) {
			return true
		}
	}
	return false
}

// ObjectStore returns the store named name within the scope.
func (tx *Transaction) ObjectStore(name string) (*ObjectStore, error) {
	if tx.finished {
		return nil, stateError("the transaction has finished")
	}
	if !tx.inScope(name) {
		return nil, notFoundError("object store " + name + " is not in the transaction scope")
	}
	if s, ok := tx.stores[name]; ok && !s.meta.deleted {
		return s, nil
	}
	meta, ok := tx.db.schema.stores[name]
	if !ok {
		return nil, notFoundError("no object store named " + name)
	}
	s := &ObjectStore{tx: tx, meta: meta, indexes: make(map[string]*Index)}
	tx.stores[name] = s
	return s, nil
}

// Abort rolls back every completed request and fails the pending ones.
func (tx *Transaction) Abort() error {
	if tx.finished {
		return stateError("the transaction has finished")
	}
	tx.abortWith(nil)
	return nil
}

func (tx *Transaction) factory() *Factory { return tx.db.f }

func (tx *Transaction) place(source any, run op) (*Request, error) {
	if tx.finished {
		return nil, domError(TransactionInactiveError, "the transaction has finished")
	}
	req := newRequest(source, tx)
	tx.queue = append(tx.queue, pending{req: req, run: run})
	tx.schedule()
	return req, nil
}

func (tx *Transaction) requeue(req *Request, run op) error {
	if tx.finished {
		return domError(TransactionInactiveError, "the transaction has finished")
	}
	req.done = false
	tx.queue = append(tx.queue, pending{req: req, run: run})
	tx.schedule()
	return nil
}

func (tx *Transaction) writable() error {
	if tx.finished {
		return domError(TransactionInactiveError, "the transaction has finished")
	}
	if tx.mode == ReadOnly {
		return domError(ReadOnlyError, "the transaction is read-only")
	}
	return nil
}

func (tx *Transaction) start() {
	tx.started = true
	if tx.onStart != nil {
		tx.onStart()
	}
	tx.schedule()
}

func (tx *Transaction) schedule() {
	if tx.finished || !tx.started || tx.scheduled {
		return
	}
	tx.scheduled = true
	tx.factory().loop.Post(tx.step)
}

func (tx *Transaction) step() {
	tx.scheduled = false
	if tx.finished {
		return
	}
	if len(tx.queue) == 0 {
		tx.commit()
		return
	}
	p := tx.queue[0]
	tx.queue = tx.queue[1:]
	tx.execute(p)
	tx.schedule()
}

func (tx *Transaction) execute(p pending) {
	f := tx.factory()
	var (
		result any
		undo   undoFunc
	)
	err := f.db.Tx(f.ctx, func(q *sql.Tx) error {
		var err error
		result, undo, err = p.run(f.ctx, q)
		return err
	})
	if err != nil {
		tx.requestFailed(p.req, asDOMError(err))
		return
	}
	if undo != nil {
		tx.undo = append(tx.undo, undo)
	}
	p.req.succeed(result)
	if _, cbErr := p.req.Dispatch(f.ctx, p.req, dom.NewEvent("success")); cbErr != nil {
		f.log.Debug("exception in success handler", zap.Error(cbErr))
		tx.abortWith(abortError("a success handler threw"))
	}
}

// requestFailed fires error at the request and then the transaction. The
// transaction aborts unless a handler called preventDefault.
func (tx *Transaction) requestFailed(req *Request, derr *jsvalue.Error) {
	f := tx.factory()
	req.fail(derr)
	ev := dom.NewEvent("error")
	_, cbErr := req.Dispatch(f.ctx, req, ev)
	if !tx.finished {
		_, txErr := tx.Dispatch(f.ctx, tx, ev)
		if cbErr == nil {
			cbErr = txErr
		}
	}
	if cbErr != nil {
		f.log.Debug("exception in error handler", zap.Error(cbErr))
		tx.abortWith(abortError("an error handler threw"))
		return
	}
	if !ev.DefaultPrevented() {
		tx.abortWith(derr)
	}
}

func (tx *Transaction) commit() {
	f := tx.factory()
	tx.finished = true
	tx.undo = nil
	f.finish(tx)
	if _, err := tx.Dispatch(f.ctx, tx, dom.NewEvent("complete")); err != nil {
		f.log.Debug("exception in complete handler", zap.Error(err))
	}
	for _, fn := range tx.onFinish {
		fn(false)
	}
}

func (tx *Transaction) abortWith(reason *jsvalue.Error) {
	if tx.finished {
		return
	}
	f := tx.factory()
	tx.finished = true
	tx.aborted = true
	tx.err = reason

	if len(tx.undo) > 0 {
		undo := tx.undo
		tx.undo = nil
		err := f.db.Tx(f.ctx, func(q *sql.Tx) error {
			for i := len(undo) - 1; i >= 0; i-- {
				if err := undo[i](f.ctx, q); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			f.log.Error("transaction rollback failed", zap.String("db", tx.db.name), zap.Error(err))
		}
	}

	queued := tx.queue
	tx.queue = nil
	for _, p := range queued {
		p.req.fail(abortError("the transaction was aborted"))
		if _, err := p.req.Dispatch(f.ctx, p.req, dom.NewEvent("error")); err != nil {
			f.log.Debug("exception in error handler", zap.Error(err))
		}
	}

	f.finish(tx)
	if _, err := tx.Dispatch(f.ctx, tx, dom.NewEvent("abort")); err != nil {
		f.log.Debug("exception in abort handler", zap.Error(err))
	}
	for _, fn := range tx.onFinish {
		fn(true)
	}
}

// ClassName implements jsvalue.ClassNamer.
func (tx *Transaction) ClassName() string { return "IDBTransaction" }

// GetProperty implements jsvalue.PropertyGetter.
func (tx *Transaction) GetProperty(name string) (any, bool) {
	switch name {
	case "mode":
		return tx.mode.String(), true
	case "db":
		return tx.db, true
	case "error":
		if tx.err == nil {
			return jsvalue.Null{}, true
		}
		return tx.err, true
	case "objectStoreNames":
		return tx.ObjectStoreNames(), true
	}
	return nil, false
}

// SetProperty routes on<type> assignments to event handlers.
func (tx *Transaction) SetProperty(name string, v any) error {
	setHandler(&tx.EventTarget, name, v)
	return nil
}
