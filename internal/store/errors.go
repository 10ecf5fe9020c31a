// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrActionNotFound is returned when an operation targets a queued
	// action (identified by its ID) that does not exist in the queue.
	ErrActionNotFound = errors.New("queued action was not found")

	// ErrDuplicateAction is returned when an Enqueue collides with an
	// action that already carries the same ID.
	ErrDuplicateAction = errors.New("queued action already exists")

	// ErrMarkerNotFound is returned when a resource has no stored sync
	// marker, i.e. the resource has never completed a successful sync.
	ErrMarkerNotFound = errors.New("sync marker was not found")

	// ErrEventNotSaved is returned when an INSERT into the event log
	// completes without error but the number of affected rows is zero.
	ErrEventNotSaved = errors.New("event was not saved")
)

// isQueueDomainError reports whether err is a domain-level queue error, as
// opposed to a storage failure. Domain errors never trigger the in-memory
// degradation path.
func isQueueDomainError(err error) bool {
	return errors.Is(err, ErrActionNotFound) || errors.Is(err, ErrDuplicateAction)
}

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
