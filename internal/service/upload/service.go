// Package upload orchestrates the two-phase upload workflow: presigned-URL
// issuance and upload confirmation, which reconciles temporary object
// storage, permanent object storage and the relational metadata store.
package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixvault/pixvault/internal/model"
	"github.com/pixvault/pixvault/internal/storage"
	"github.com/pixvault/pixvault/internal/storage/object"
)

// MaxConfirmBatchSize bounds how many images one confirmation request may
// carry. Enforced before any storage mutation occurs.
const MaxConfirmBatchSize = 5

// objectStore is the slice of the object store the coordinator needs.
type objectStore interface {
	PresignUploadURL(ctx context.Context, fileID, folder string) (string, error)
	PresignViewURL(ctx context.Context, fileID, folder string) (string, error)
	GetMetadata(ctx context.Context, fileID, folder string) (object.Metadata, bool, error)
	ListByPrefix(ctx context.Context, prefix, folder string) ([]string, error)
	DeleteAll(ctx context.Context, fileIDs []string, folder string) error
}

// mover owns the verified temporary-to-permanent migration.
type mover interface {
	MoveAllToPermanent(ctx context.Context, files []object.MoveFile) error
}

type imageRepo interface {
	InsertImages(ctx context.Context, images []model.Image) error
	GetByID(ctx context.Context, userID, imageID uuid.UUID) (model.Image, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Image, error)
	ListPublic(ctx context.Context) ([]model.Image, error)
	SearchByName(ctx context.Context, userID uuid.UUID, name string) ([]model.Image, error)
	SearchByTag(ctx context.Context, userID uuid.UUID, tagName string) ([]model.Image, error)
	SearchByContentLabel(ctx context.Context, userID uuid.UUID, labelName string) ([]model.Image, error)
	DeleteByIDs(ctx context.Context, userID uuid.UUID, imageIDs []uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type userRepo interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type eventPublisher interface {
	Publish(event model.Event) error
}

// ConfirmImageCmd is one client-declared upload to confirm.
type ConfirmImageCmd struct {
	ImageID   uuid.UUID
	UserID    uuid.UUID
	Name      string
	Hash      string
	IsPrivate bool
	TagNames  []string
}

// Service is the upload coordinator.
type Service struct {
	store     objectStore
	mover     mover
	images    imageRepo
	users     userRepo
	publisher eventPublisher
}

func NewService(store objectStore, m mover, images imageRepo, users userRepo, p eventPublisher) *Service {
	return &Service{
		store:     store,
		mover:     m,
		images:    images,
		users:     users,
		publisher: p,
	}
}

// GenerateUploadURLs mints, for each requested slot, a fresh image ID and a
// time-boxed presigned PUT URL scoped to temporary storage. Nothing is
// persisted; uploads that are never confirmed expire with the temporary
// area.
func (s *Service) GenerateUploadURLs(ctx context.Context, userID uuid.UUID, count int) ([]model.FileURL, error) {
	if count <= 0 {
		return nil, fmt.Errorf("upload url count must be positive, got %d", count)
	}

	if err := s.assertUserExists(ctx, userID); err != nil {
		return nil, err
	}

	p := pool.NewWithResults[model.FileURL]().WithErrors().WithContext(ctx)

	for i := 0; i < count; i++ {
		p.Go(func(ctx context.Context) (model.FileURL, error) {
			imageID := uuid.New()

			url, err := s.store.PresignUploadURL(ctx, model.FileID(userID, imageID), object.Temporary)
			if err != nil {
				return model.FileURL{}, fmt.Errorf("generate upload url: %w", err)
			}

			return model.FileURL{URL: url, ImageID: imageID}, nil
		})
	}

	return p.Wait()
}

// ConfirmUploaded confirms a batch of at most MaxConfirmBatchSize uploads.
// For every command the temporary object's metadata is looked up and checked
// against the declared hash; all passing images are then moved to permanent
// storage in parallel (per-image rollback), recorded in one relational
// transaction, and announced with a single ImagesUploaded event.
func (s *Service) ConfirmUploaded(ctx context.Context, cmds []ConfirmImageCmd) ([]model.Image, error) {
	if len(cmds) == 0 {
		return nil, fmt.Errorf("no images to confirm")
	}
	if len(cmds) > MaxConfirmBatchSize {
		return nil, fmt.Errorf("%w: got %d, max %d", model.ErrBatchTooLarge, len(cmds), MaxConfirmBatchSize)
	}

	userID := cmds[0].UserID
	if err := s.assertUserExists(ctx, userID); err != nil {
		return nil, err
	}

	images := make([]model.Image, 0, len(cmds))
	moves := make([]object.MoveFile, 0, len(cmds))

	for _, cmd := range cmds {
		img, err := s.buildImage(ctx, cmd)
		if err != nil {
			return nil, err
		}

		images = append(images, img)
		moves = append(moves, object.MoveFile{
			FileID:       img.FileID(),
			ExpectedHash: img.Metadata.Hash(),
		})
	}

	// First promote the objects, then record metadata: an image whose move
	// failed must never get a row.
	if err := s.mover.MoveAllToPermanent(ctx, moves); err != nil {
		return nil, translateStorageError(err)
	}

	if err := s.images.InsertImages(ctx, images); err != nil {
		return nil, translateStorageError(err)
	}

	if err := s.publisher.Publish(model.NewImagesUploadedEvent(images)); err != nil {
		// Enrichment is best-effort; a lost event never fails the upload.
		zlog.Logger.Err(err).Msg("failed to publish images uploaded event")
	}

	if err := s.hydrateViewURLs(ctx, images); err != nil {
		return nil, err
	}

	return images, nil
}

// buildImage assembles the in-memory aggregate for one command. Absent
// temporary metadata and a corrupt or mismatching hash both reject the
// image as not found before any storage mutation.
func (s *Service) buildImage(ctx context.Context, cmd ConfirmImageCmd) (model.Image, error) {
	meta, ok, err := s.store.GetMetadata(ctx, model.FileID(cmd.UserID, cmd.ImageID), object.Temporary)
	if err != nil {
		return model.Image{}, fmt.Errorf("confirm image %s: %w", cmd.ImageID, err)
	}
	if !ok {
		return model.Image{}, fmt.Errorf("confirm image %s: %w", cmd.ImageID, model.ErrImageNotFound)
	}

	imageMeta, err := model.NewMetadata(meta.Size, meta.Format)
	if err != nil {
		return model.Image{}, fmt.Errorf("confirm image %s: %w", cmd.ImageID, err)
	}
	imageMeta.SecureHash(meta.Hash)

	if imageMeta.Corrupt(cmd.Hash) {
		return model.Image{}, fmt.Errorf("confirm image %s: %w", cmd.ImageID, model.ErrImageNotFound)
	}

	tags := make([]model.Tag, 0, len(cmd.TagNames))
	for _, name := range cmd.TagNames {
		tags = append(tags, model.NewTag(name))
	}

	return model.NewImage(cmd.ImageID, cmd.UserID, cmd.Name, cmd.IsPrivate, imageMeta, tags), nil
}

// GetImage returns a single image with a hydrated view URL.
func (s *Service) GetImage(ctx context.Context, userID, imageID uuid.UUID) (model.Image, error) {
	img, err := s.images.GetByID(ctx, userID, imageID)
	if err != nil {
		return model.Image{}, translateStorageError(err)
	}

	url, err := s.store.PresignViewURL(ctx, img.FileID(), object.Permanent)
	if err != nil {
		return model.Image{}, fmt.Errorf("hydrate view url: %w", err)
	}
	img.ViewURL = url

	return img, nil
}

// ListUserImages returns all images owned by the user.
func (s *Service) ListUserImages(ctx context.Context, userID uuid.UUID) ([]model.Image, error) {
	images, err := s.images.ListByUser(ctx, userID)
	if err != nil {
		return nil, translateStorageError(err)
	}

	if err := s.hydrateViewURLs(ctx, images); err != nil {
		return nil, err
	}

	return images, nil
}

// ListPublicImages returns all images not marked private.
func (s *Service) ListPublicImages(ctx context.Context) ([]model.Image, error) {
	images, err := s.images.ListPublic(ctx)
	if err != nil {
		return nil, translateStorageError(err)
	}

	if err := s.hydrateViewURLs(ctx, images); err != nil {
		return nil, err
	}

	return images, nil
}

// SearchImagesByName returns the user's images with similar names.
func (s *Service) SearchImagesByName(ctx context.Context, userID uuid.UUID, name string) ([]model.Image, error) {
	images, err := s.images.SearchByName(ctx, userID, name)
	if err != nil {
		return nil, translateStorageError(err)
	}

	if err := s.hydrateViewURLs(ctx, images); err != nil {
		return nil, err
	}

	return images, nil
}

// SearchImagesByTag returns the user's images linked to the tag.
func (s *Service) SearchImagesByTag(ctx context.Context, userID uuid.UUID, tagName string) ([]model.Image, error) {
	images, err := s.images.SearchByTag(ctx, userID, tagName)
	if err != nil {
		return nil, translateStorageError(err)
	}

	if err := s.hydrateViewURLs(ctx, images); err != nil {
		return nil, err
	}

	return images, nil
}

// SearchImagesByContentLabel returns the user's images carrying the label.
func (s *Service) SearchImagesByContentLabel(ctx context.Context, userID uuid.UUID, labelName string) ([]model.Image, error) {
	images, err := s.images.SearchByContentLabel(ctx, userID, labelName)
	if err != nil {
		return nil, translateStorageError(err)
	}

	if err := s.hydrateViewURLs(ctx, images); err != nil {
		return nil, err
	}

	return images, nil
}

// DeleteImages removes the given images from both stores: rows first, then
// permanent objects.
func (s *Service) DeleteImages(ctx context.Context, userID uuid.UUID, imageIDs []uuid.UUID) error {
	if err := s.images.DeleteByIDs(ctx, userID, imageIDs); err != nil {
		return translateStorageError(err)
	}

	fileIDs := make([]string, 0, len(imageIDs))
	for _, id := range imageIDs {
		fileIDs = append(fileIDs, model.FileID(userID, id))
	}

	if err := s.store.DeleteAll(ctx, fileIDs, object.Permanent); err != nil {
		return fmt.Errorf("delete image objects: %w", err)
	}

	return nil
}

// DeleteAllUserImages mass-deletes the user's images: rows by user ID,
// objects by key prefix. Consumed from the user-deleted tube.
func (s *Service) DeleteAllUserImages(ctx context.Context, userID uuid.UUID) error {
	if err := s.images.DeleteByUserID(ctx, userID); err != nil {
		return translateStorageError(err)
	}

	fileIDs, err := s.store.ListByPrefix(ctx, model.UserFilePrefix(userID), object.Permanent)
	if err != nil {
		return fmt.Errorf("list user objects: %w", err)
	}

	if err := s.store.DeleteAll(ctx, fileIDs, object.Permanent); err != nil {
		return fmt.Errorf("delete user objects: %w", err)
	}

	return nil
}

// hydrateViewURLs presigns a view URL for every image in parallel.
func (s *Service) hydrateViewURLs(ctx context.Context, images []model.Image) error {
	p := pool.New().WithErrors().WithContext(ctx)

	for i := range images {
		p.Go(func(ctx context.Context) error {
			url, err := s.store.PresignViewURL(ctx, images[i].FileID(), object.Permanent)
			if err != nil {
				return fmt.Errorf("hydrate view url: %w", err)
			}

			images[i].ViewURL = url
			return nil
		})
	}

	return p.Wait()
}

func (s *Service) assertUserExists(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return model.ErrUserNotFound
	}

	return nil
}

// translateStorageError maps the adapter taxonomy to domain outcomes. A
// hash mismatch is terminal for the image and indistinguishable, to the
// client, from the upload never landing: the object it declared does not
// exist. Unknown errors pass through as internal.
func translateStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, storage.ErrHashMismatch):
		return fmt.Errorf("%w: %w", model.ErrImageNotFound, err)
	case errors.Is(err, storage.ErrObjectAlreadyExists):
		return fmt.Errorf("%w: %w", model.ErrImageAlreadyExists, err)
	case errors.Is(err, storage.ErrObjectReference):
		return fmt.Errorf("%w: %w", model.ErrUserNotFound, err)
	default:
		return err
	}
}
