// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go and native type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOverflow).
//		Path("shared", "z").
//		GoType("uint").
//		NativeType("size_t").
//		Detail("value does not fit in 32 bits").
//		Build()
//
// Contract violations (use after consume, double free, a descriptor whose
// length exceeds its capacity) are programming errors. They are raised with
// panic through Violation, UseAfterConsume and DoubleFree, and boundary
// adapters re-panic them instead of turning them into values.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
