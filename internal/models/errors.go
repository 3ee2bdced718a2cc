package models

import "fmt"

// ValidationError marks a malformed entity (e.g. a bad recurrence rule).
// Fatal for that entity only, never for the whole job.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// ConflictError marks a duplicate write rejected by a uniqueness guard.
// Expected under retry and treated as a benign no-op by callers.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s already exists", e.Resource)
}

// ExternalDependencyError marks an unreachable or failing external
// source (e.g. the exchange-rate service). Callers degrade to stale
// data rather than failing outright.
type ExternalDependencyError struct {
	Source string
	Err    error
}

func (e *ExternalDependencyError) Error() string {
	return fmt.Sprintf("external dependency %s: %v", e.Source, e.Err)
}

func (e *ExternalDependencyError) Unwrap() error { return e.Err }

// PersistenceError marks a storage failure. Fatal for the current unit
// of work (one definition, budget or goal) but not for the whole job.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
