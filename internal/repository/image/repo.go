package image

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
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

// InsertImages writes a batch of images with their tags and tag links as
// one transaction: either every image in the batch gets its rows or none
// does. Tag rows are deduplicated globally by name.
func (r *Repository) InsertImages(ctx context.Context, images []model.Image) (err error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert images: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertImage = `
		INSERT INTO images (id, name, user_id, hash_md5, size_bytes, file_format, is_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, img := range images {
		if _, err = tx.ExecContext(ctx, insertImage,
			img.ID, img.Name, img.UserID, img.Metadata.Hash(),
			img.Metadata.Size, img.Metadata.Format, img.IsPrivate,
			img.CreatedAt, img.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert image %s: %w", img.ID, repository.TranslateError(err))
		}

		if err = r.insertImageTags(ctx, tx, img); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("insert images: commit: %w", repository.TranslateError(err))
	}

	return nil
}

// insertImageTags upserts each tag by name and links the canonical row to
// the image. The RETURNING id resolves to the existing row on a name
// conflict, so links never point at a discarded duplicate.
func (r *Repository) insertImageTags(ctx context.Context, tx *sql.Tx, img model.Image) error {
	const upsertTag = `
		INSERT INTO tags (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	const linkTag = `
		INSERT INTO image_tags (image_id, tag_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`

	for _, tag := range img.Tags {
		var tagID uuid.UUID
		if err := tx.QueryRowContext(ctx, upsertTag, tag.ID, tag.Name).Scan(&tagID); err != nil {
			return fmt.Errorf("upsert tag %q: %w", tag.Name, repository.TranslateError(err))
		}

		if _, err := tx.ExecContext(ctx, linkTag, img.ID, tagID, img.CreatedAt, img.UpdatedAt); err != nil {
			return fmt.Errorf("link tag %q: %w", tag.Name, repository.TranslateError(err))
		}
	}

	return nil
}

const selectImageColumns = `
	SELECT id, name, user_id, hash_md5, size_bytes, file_format, is_private, created_at, updated_at
	FROM images
`

// GetByID returns a single image owned by the user.
func (r *Repository) GetByID(ctx context.Context, userID, imageID uuid.UUID) (model.Image, error) {
	query := selectImageColumns + `
		WHERE user_id = $1 AND id = $2
	`

	img, err := scanImage(r.db.Master.QueryRowContext(ctx, query, userID, imageID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Image{}, storage.ErrObjectNotFound
		}
		return model.Image{}, fmt.Errorf("get image: %w", err)
	}

	return img, nil
}

// ListByUser returns all images owned by the user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Image, error) {
	query := selectImageColumns + `
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	return r.queryImages(ctx, query, userID)
}

// ListPublic returns all images not marked private, newest first.
func (r *Repository) ListPublic(ctx context.Context) ([]model.Image, error) {
	query := selectImageColumns + `
		WHERE is_private = FALSE
		ORDER BY updated_at DESC
	`

	return r.queryImages(ctx, query)
}

// SearchByName returns the user's images with names similar to the query.
func (r *Repository) SearchByName(ctx context.Context, userID uuid.UUID, name string) ([]model.Image, error) {
	query := selectImageColumns + `
		WHERE user_id = $1 AND name ILIKE '%' || $2 || '%'
		ORDER BY updated_at DESC
	`

	return r.queryImages(ctx, query, userID, name)
}

// SearchByTag returns the user's images linked to the given tag name.
func (r *Repository) SearchByTag(ctx context.Context, userID uuid.UUID, tagName string) ([]model.Image, error) {
	query := selectImageColumns + `
		WHERE user_id = $1 AND id IN (
			SELECT it.image_id
			FROM image_tags it
			JOIN tags t ON t.id = it.tag_id
			WHERE t.name = $2
		)
		ORDER BY updated_at DESC
	`

	return r.queryImages(ctx, query, userID, tagName)
}

// SearchByContentLabel returns the user's images carrying the given
// machine-generated label name.
func (r *Repository) SearchByContentLabel(ctx context.Context, userID uuid.UUID, labelName string) ([]model.Image, error) {
	query := selectImageColumns + `
		WHERE user_id = $1 AND id IN (
			SELECT icl.image_id
			FROM image_content_labels icl
			JOIN content_labels cl ON cl.id = icl.label_id
			WHERE cl.name = $2
		)
		ORDER BY updated_at DESC
	`

	return r.queryImages(ctx, query, userID, labelName)
}

// DeleteByIDs removes the given images owned by the user. Tag and label
// links cascade; orphaned tags and labels are cleaned up by triggers.
func (r *Repository) DeleteByIDs(ctx context.Context, userID uuid.UUID, imageIDs []uuid.UUID) error {
	query := `
		DELETE FROM images WHERE user_id = $1 AND id = ANY($2)
	`

	ids := make([]string, 0, len(imageIDs))
	for _, id := range imageIDs {
		ids = append(ids, id.String())
	}

	res, err := r.db.ExecContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("delete images: %w", repository.TranslateError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete images: failed to get number of rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrObjectNotFound
	}

	return nil
}

// DeleteByUserID removes every image row owned by the user.
func (r *Repository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `
		DELETE FROM images WHERE user_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete user images: %w", repository.TranslateError(err))
	}

	return nil
}

func (r *Repository) queryImages(ctx context.Context, query string, args ...any) ([]model.Image, error) {
	rows, err := r.db.Master.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select images: %w", err)
	}
	defer rows.Close()

	var images []model.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("select images: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select images: %w", err)
	}

	return images, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (model.Image, error) {
	var (
		img    model.Image
		hash   string
		size   int64
		format string
	)

	if err := row.Scan(
		&img.ID, &img.Name, &img.UserID, &hash, &size, &format,
		&img.IsPrivate, &img.CreatedAt, &img.UpdatedAt,
	); err != nil {
		return model.Image{}, err
	}

	meta, err := model.NewMetadata(size, format)
	if err != nil {
		return model.Image{}, err
	}
	meta.SecureHash(hash)
	img.Metadata = meta

	return img, nil
}
