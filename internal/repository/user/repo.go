package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/pixvault/pixvault/internal/model"
	"github.com/pixvault/pixvault/internal/repository"
	"github.com/pixvault/pixvault/internal/storage"
)

type Repository struct {
	db *dbpg.DB
}

func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, u model.User) error {
	query := `
		INSERT INTO users (id, created_at, updated_at)
		VALUES ($1, $2, $3)
	`

	if _, err := r.db.ExecContext(ctx, query, u.ID, u.CreatedAt, u.UpdatedAt); err != nil {
		return fmt.Errorf("insert user: %w", repository.TranslateError(err))
	}

	return nil
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`

	var exists bool
	if err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return exists, nil
}

// Delete removes the user row. Image rows cascade; orphaned tags and labels
// are cleaned up by triggers.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM users WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", repository.TranslateError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: failed to get number of rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrObjectNotFound
	}

	return nil
}
