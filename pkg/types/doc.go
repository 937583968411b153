// Package types defines the shared vocabulary of arctree: typed errors with
// stable categories, status classes for normalized records, and the limits
// that bound catalog paging.
//
// Design goals:
//   - Typed errors with stable categories (network/not-found/malformed/state).
//   - Never panic on malformed catalog input.
//   - Small value types that are safe to copy between components.
//
// This package has no dependencies beyond the standard library.
package types
