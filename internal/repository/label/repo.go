package label

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/pixvault/pixvault/internal/model"
	"github.com/pixvault/pixvault/internal/repository"
)

type Repository struct {
	db *dbpg.DB
}

func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// InsertLabels persists one image's labels as a single transaction. Each
// label upserts a canonical (name, category) row and links it to the image
// with the per-image confidence score. On a name conflict the RETURNING id
// resolves to the existing canonical row, and the link insert ignores
// duplicates, so the operation is idempotent under event redelivery.
func (r *Repository) InsertLabels(ctx context.Context, labels []model.Label) (err error) {
	if len(labels) == 0 {
		return nil
	}

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert labels: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertLabel = `
		INSERT INTO content_labels (id, name, content_category)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, content_category) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	const linkLabel = `
		INSERT INTO image_content_labels (image_id, label_id, label_confidence_score, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT DO NOTHING
	`

	for _, l := range labels {
		var labelID uuid.UUID
		if err = tx.QueryRowContext(ctx, upsertLabel, l.ID, l.Name, string(l.Category)).Scan(&labelID); err != nil {
			return fmt.Errorf("upsert label %q: %w", l.Name, repository.TranslateError(err))
		}

		if _, err = tx.ExecContext(ctx, linkLabel, l.ImageID, labelID, l.Confidence); err != nil {
			return fmt.Errorf("link label %q: %w", l.Name, repository.TranslateError(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("insert labels: commit: %w", repository.TranslateError(err))
	}

	return nil
}
