// Package errors provides structured error types for wasm-http.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the record field path, a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
//		Path("request", "headers").
//		Detail("expected map, got %s", kind).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 5)
//	err := errors.Trap("filter", cause)
//
// Errors that crossed the guest boundary through the wire error sentinel are
// represented as *Reported, whose Error() is exactly the transmitted message.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
