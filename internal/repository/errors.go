// Package repository is the persistence adapter (spec §4.1): transactional
// gateway exposing row-level locking and CRUD against products, holds,
// orders and payments. It is deliberately thin — domain rules live in
// package service; repositories only know SQL.
package repository

import "errors"

// ErrNotFound indicates a row was not located. Repositories return this
// instead of sql.ErrNoRows directly so callers don't need to import
// database/sql to distinguish "missing" from other failures.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey indicates a UNIQUE constraint violation, used by the
// payment repository to detect a concurrently-inserted idempotency key
// (spec §4.8 step 3c).
var ErrDuplicateKey = errors.New("duplicate key")
