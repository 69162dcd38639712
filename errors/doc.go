// Package errors provides structured error types for the wbg runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a field path, the offending type name and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindTypeError).
//		Path("RequestInit", "headers").
//		Type("float64").
//		Detail("expected Headers or object").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseMarshal, ptr, n, mem.Size())
//	err := errors.ContractViolation(errors.PhaseHeap, "handle %d is not live", h)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
