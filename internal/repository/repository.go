// Package repository translates Postgres-level failures into the shared
// storage taxonomy. Each table family (users, images, labels) has its own
// subpackage.
package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/pixvault/pixvault/internal/storage"
)

// SQLSTATE codes the adapters translate; anything else passes through.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// TranslateError maps a Postgres error to the storage taxonomy, exactly
// once at this boundary. Non-Postgres and unknown-code errors are returned
// unmodified and treated as transient infrastructure failures upstream.
func TranslateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case uniqueViolation:
		return storage.ErrObjectAlreadyExists
	case foreignKeyViolation:
		return storage.ErrObjectReference
	default:
		return err
	}
}
