package jsvalue

import "errors"

// Exception carries a thrown value that is not an Error object through Go
// error returns.
type Exception struct {
	Value any
}

func (e *Exception) Error() string {
	return "uncaught exception: " + DebugString(e.Value)
}

// Throw returns v as an error: Error values directly, anything else
// wrapped in an Exception.
func Throw(v any) error {
	if je, ok := v.(*Error); ok {
		return je
	}
	return &Exception{Value: Normalize(v)}
}

// Thrown extracts the thrown value from err. Plain Go errors are reported
// as Error values carrying the Go error as cause.
func Thrown(err error) any {
	var ex *Exception
	if errors.As(err, &ex) {
		return ex.Value
	}
	var je *Error
	if errors.As(err, &je) {
		return je
	}
	return &Error{Name: "Error", Message: err.Error(), Cause: err}
}
