// Package zferr defines the sentinel error taxonomy shared by the schema,
// container, and entity packages. Call sites wrap one of these sentinels
// with fmt.Errorf("...: %w", err) and callers compare with errors.Is.
package zferr

import "errors"

var (
	// ErrSchemaViolation marks a programming mistake: an unknown property,
	// wrong arity, or a value passed to a typed accessor that does not
	// match the property's declared kind. Never caused by bad input.
	ErrSchemaViolation = errors.New("zfcore: schema violation")

	// ErrConversionFailed marks a value that could not be converted to a
	// property's declared data type. Recoverable: callers get it back as
	// a normal error return, never a panic.
	ErrConversionFailed = errors.New("zfcore: conversion failed")

	// ErrPersistenceFailed wraps an error returned by the database
	// collaborator in response to GetEntity/WriteEntity/RemoveEntity.
	ErrPersistenceFailed = errors.New("zfcore: persistence failed")

	// ErrTimeout marks a synchronous load/save/remove call whose deadline
	// elapsed before a response arrived. The underlying command is left
	// queued, not cancelled.
	ErrTimeout = errors.New("zfcore: timeout")

	// ErrCorruption marks a deserializer that found mis-shaped input.
	ErrCorruption = errors.New("zfcore: corruption")

	// ErrAccessDenied marks an operation rejected by the cached
	// direct/relational access-rights pair before any work began.
	ErrAccessDenied = errors.New("zfcore: access denied")
)

// Strict gates MustNot's panic. Production embedders leave it false so a
// schema violation becomes a returned error instead of crashing the
// process; an embedder that wants to fail fast sets it true, mirroring
// the "abort in debug, log+abort in release" policy without an actual
// process abort in a library. Nothing in this module sets it.
var Strict = false

// MustNot panics with err when Strict is enabled and err is non-nil. It is
// used at the few call sites that can only detect a schema violation,
// never a data error — the kind of defect ordinary error returns would
// otherwise let slip silently into caller code.
func MustNot(err error) {
	if err != nil && Strict {
		panic(err)
	}
}
