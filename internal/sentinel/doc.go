// Package sentinel provides a const-able error type for sentinel error declarations.
//
// Errors created with errors.New must live in vars, which any consumer can
// reassign. Error is a string-based error type instead, so sentinel errors can
// be declared as const while staying compatible with errors.Is through wrapped
// error chains.
package sentinel
