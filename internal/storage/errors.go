// Package storage defines the adapter-level error taxonomy shared by the
// object store and the relational repositories. Low-level failures (object
// store response codes, SQLSTATE) are translated into these sentinels once,
// at the adapter; services translate them a second time into domain
// outcomes. Anything not matching a known code passes through unmodified
// and is treated as transient infrastructure failure by the boundary.
package storage

import "errors"

var (
	// ErrObjectNotFound: the object or row does not exist.
	ErrObjectNotFound = errors.New("storage object not found")

	// ErrObjectAlreadyExists: unique violation or destination occupied.
	ErrObjectAlreadyExists = errors.New("storage object already exists")

	// ErrObjectReference: a referenced row vanished (foreign-key violation).
	ErrObjectReference = errors.New("storage object reference violated")

	// ErrHashMismatch: the object committed to permanent storage does not
	// match the hash metadata was recorded against. Terminal; retrying a
	// stale upload is unsafe without a fresh client-confirmed hash.
	ErrHashMismatch = errors.New("storage object hash does not match expected hash")
)
