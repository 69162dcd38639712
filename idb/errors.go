package idb

import "github.com/wippyai/wbg-runtime/jsvalue"

// DOMException names specific to IndexedDB.
const (
	ReadOnlyError            = "ReadOnlyError"
	TransactionInactiveError = "TransactionInactiveError"
	InvalidAccessError       = "InvalidAccessError"
	SyntaxError              = "SyntaxError"
	UnknownError             = "UnknownError"
)

func domError(name, msg string) *jsvalue.Error { return jsvalue.NewError(name, msg) }

func dataError(msg string) *jsvalue.Error       { return domError(jsvalue.DataError, msg) }
func syntaxError(msg string) *jsvalue.Error     { return domError(SyntaxError, msg) }
func constraintError(msg string) *jsvalue.Error { return domError(jsvalue.ConstraintError, msg) }
func notFoundError(msg string) *jsvalue.Error   { return domError(jsvalue.NotFoundError, msg) }
func stateError(msg string) *jsvalue.Error      { return domError(jsvalue.InvalidStateError, msg) }
func abortError(msg string) *jsvalue.Error      { return domError(jsvalue.AbortError, msg) }

// asDOMError converts a failure into the exception seen by the guest.
// Storage failures surface as UnknownError.
func asDOMError(err error) *jsvalue.Error {
	if err == nil {
		return nil
	}
	if je, ok := err.(*jsvalue.Error); ok {
		return je
	}
	e := domError(UnknownError, err.Error())
	e.Cause = err
	return e
}

func typeError(msg string) *jsvalue.Error { return jsvalue.NewTypeError(msg) }
