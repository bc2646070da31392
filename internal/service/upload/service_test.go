package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixvault/pixvault/internal/model"
	"github.com/pixvault/pixvault/internal/storage"
	"github.com/pixvault/pixvault/internal/storage/object"
)

func TestMain(m *testing.M) {
	zlog.Init()
	m.Run()
}

const validHash = "9e107d9d372bb6826bd81d3542a419d6"

// fakeStore serves temporary-object metadata and records deletions.
type fakeStore struct {
	mu       sync.Mutex
	metadata map[string]object.Metadata
	objects  map[string]struct{}
	deleted  []string

	presignErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		metadata: make(map[string]object.Metadata),
		objects:  make(map[string]struct{}),
	}
}

func (f *fakeStore) PresignUploadURL(_ context.Context, fileID, folder string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://storage.test/" + folder + "/" + fileID + "?sig=put", nil
}

func (f *fakeStore) PresignViewURL(_ context.Context, fileID, folder string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://storage.test/" + folder + "/" + fileID + "?sig=get", nil
}

func (f *fakeStore) GetMetadata(_ context.Context, fileID, _ string) (object.Metadata, bool, error) {
	meta, ok := f.metadata[fileID]
	return meta, ok, nil
}

func (f *fakeStore) ListByPrefix(_ context.Context, prefix, _ string) ([]string, error) {
	var ids []string
	for id := range f.objects {
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) DeleteAll(_ context.Context, fileIDs []string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range fileIDs {
		delete(f.objects, id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

type fakeMover struct {
	mu    sync.Mutex
	moved []object.MoveFile
	err   error
}

func (f *fakeMover) MoveAllToPermanent(_ context.Context, files []object.MoveFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.moved = append(f.moved, files...)
	return nil
}

type fakeImageRepo struct {
	mu       sync.Mutex
	inserted [][]model.Image
	byID     map[uuid.UUID]model.Image
	err      error
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{byID: make(map[uuid.UUID]model.Image)}
}

func (f *fakeImageRepo) InsertImages(_ context.Context, images []model.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, images)
	return nil
}

func (f *fakeImageRepo) GetByID(_ context.Context, _, imageID uuid.UUID) (model.Image, error) {
	img, ok := f.byID[imageID]
	if !ok {
		return model.Image{}, storage.ErrObjectNotFound
	}
	return img, nil
}

func (f *fakeImageRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Image, error) {
	var images []model.Image
	for _, img := range f.byID {
		if img.UserID == userID {
			images = append(images, img)
		}
	}
	return images, nil
}

func (f *fakeImageRepo) ListPublic(_ context.Context) ([]model.Image, error) {
	var images []model.Image
	for _, img := range f.byID {
		if !img.IsPrivate {
			images = append(images, img)
		}
	}
	return images, nil
}

func (f *fakeImageRepo) SearchByName(_ context.Context, userID uuid.UUID, _ string) ([]model.Image, error) {
	return f.ListByUser(context.Background(), userID)
}

func (f *fakeImageRepo) SearchByTag(_ context.Context, userID uuid.UUID, _ string) ([]model.Image, error) {
	return f.ListByUser(context.Background(), userID)
}

func (f *fakeImageRepo) SearchByContentLabel(_ context.Context, userID uuid.UUID, _ string) ([]model.Image, error) {
	return f.ListByUser(context.Background(), userID)
}

func (f *fakeImageRepo) DeleteByIDs(_ context.Context, _ uuid.UUID, imageIDs []uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	for _, id := range imageIDs {
		delete(f.byID, id)
	}
	return nil
}

func (f *fakeImageRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	for id, img := range f.byID {
		if img.UserID == userID {
			delete(f.byID, id)
		}
	}
	return nil
}

type fakeUserRepo struct {
	exists bool
}

func (f *fakeUserRepo) Exists(_ context.Context, _ uuid.UUID) (bool, error) {
	return f.exists, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (f *fakePublisher) Publish(event model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)
	return nil
}

type fixture struct {
	store  *fakeStore
	mover  *fakeMover
	images *fakeImageRepo
	users  *fakeUserRepo
	pub    *fakePublisher
	svc    *Service
}

func newFixture() *fixture {
	f := &fixture{
		store:  newFakeStore(),
		mover:  &fakeMover{},
		images: newFakeImageRepo(),
		users:  &fakeUserRepo{exists: true},
		pub:    &fakePublisher{},
	}
	f.svc = NewService(f.store, f.mover, f.images, f.users, f.pub)

	return f
}

func (f *fixture) stageUpload(userID uuid.UUID) ConfirmImageCmd {
	imageID := uuid.New()
	f.store.metadata[model.FileID(userID, imageID)] = object.Metadata{
		Hash:   validHash,
		Size:   1024,
		Format: "png",
	}

	return ConfirmImageCmd{
		ImageID:   imageID,
		UserID:    userID,
		Name:      "beach",
		Hash:      validHash,
		IsPrivate: false,
		TagNames:  []string{"sunset"},
	}
}

func TestService_GenerateUploadURLs(t *testing.T) {
	t.Run("mints one url per slot", func(t *testing.T) {
		f := newFixture()

		urls, err := f.svc.GenerateUploadURLs(context.Background(), uuid.New(), 3)
		require.NoError(t, err)
		require.Len(t, urls, 3)

		seen := make(map[uuid.UUID]struct{})
		for _, u := range urls {
			assert.NotEmpty(t, u.URL)
			seen[u.ImageID] = struct{}{}
		}
		assert.Len(t, seen, 3)
	})

	t.Run("rejects non-positive count", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.GenerateUploadURLs(context.Background(), uuid.New(), 0)
		assert.Error(t, err)
	})

	t.Run("rejects unknown user", func(t *testing.T) {
		f := newFixture()
		f.users.exists = false

		_, err := f.svc.GenerateUploadURLs(context.Background(), uuid.New(), 1)
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})
}

func TestService_ConfirmUploaded(t *testing.T) {
	t.Run("moves, records and announces the batch", func(t *testing.T) {
		f := newFixture()
		userID := uuid.New()
		cmds := []ConfirmImageCmd{f.stageUpload(userID), f.stageUpload(userID)}

		images, err := f.svc.ConfirmUploaded(context.Background(), cmds)
		require.NoError(t, err)
		require.Len(t, images, 2)

		// One move per image, one relational write, one event for the batch.
		assert.Len(t, f.mover.moved, 2)
		require.Len(t, f.images.inserted, 1)
		require.Len(t, f.pub.events, 1)

		ev, ok := f.pub.events[0].(model.ImagesUploadedEvent)
		require.True(t, ok)
		assert.Len(t, ev.Images, 2)

		for _, img := range images {
			assert.NotEmpty(t, img.ViewURL)
			assert.Equal(t, validHash, img.Metadata.Hash())
		}
	})

	t.Run("rejects oversized batch before any mutation", func(t *testing.T) {
		f := newFixture()
		userID := uuid.New()

		cmds := make([]ConfirmImageCmd, 0, MaxConfirmBatchSize+1)
		for i := 0; i < MaxConfirmBatchSize+1; i++ {
			cmds = append(cmds, f.stageUpload(userID))
		}

		_, err := f.svc.ConfirmUploaded(context.Background(), cmds)
		assert.ErrorIs(t, err, model.ErrBatchTooLarge)
		assert.Empty(t, f.mover.moved)
		assert.Empty(t, f.images.inserted)
		assert.Empty(t, f.pub.events)
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.ConfirmUploaded(context.Background(), nil)
		assert.Error(t, err)
	})

	t.Run("absent temporary metadata rejects the batch", func(t *testing.T) {
		f := newFixture()
		userID := uuid.New()

		cmd := f.stageUpload(userID)
		missing := ConfirmImageCmd{ImageID: uuid.New(), UserID: userID, Name: "ghost", Hash: validHash}

		_, err := f.svc.ConfirmUploaded(context.Background(), []ConfirmImageCmd{cmd, missing})
		assert.ErrorIs(t, err, model.ErrImageNotFound)
		assert.Empty(t, f.mover.moved)
	})

	t.Run("declared hash mismatch rejects before moving", func(t *testing.T) {
		f := newFixture()
		cmd := f.stageUpload(uuid.New())
		cmd.Hash = "deadbeefdeadbeefdeadbeefdeadbeef"

		_, err := f.svc.ConfirmUploaded(context.Background(), []ConfirmImageCmd{cmd})
		assert.ErrorIs(t, err, model.ErrImageNotFound)
		assert.Empty(t, f.mover.moved)
	})

	t.Run("move failure aborts the relational write", func(t *testing.T) {
		f := newFixture()
		f.mover.err = fmt.Errorf("move: %w", storage.ErrHashMismatch)

		_, err := f.svc.ConfirmUploaded(context.Background(), []ConfirmImageCmd{f.stageUpload(uuid.New())})
		assert.ErrorIs(t, err, model.ErrImageNotFound)
		assert.Empty(t, f.images.inserted)
		assert.Empty(t, f.pub.events)
	})

	t.Run("duplicate destination maps to already exists", func(t *testing.T) {
		f := newFixture()
		f.mover.err = fmt.Errorf("move: %w", storage.ErrObjectAlreadyExists)

		_, err := f.svc.ConfirmUploaded(context.Background(), []ConfirmImageCmd{f.stageUpload(uuid.New())})
		assert.ErrorIs(t, err, model.ErrImageAlreadyExists)
	})

	t.Run("broken foreign key maps to user not found", func(t *testing.T) {
		f := newFixture()
		f.images.err = fmt.Errorf("insert: %w", storage.ErrObjectReference)

		_, err := f.svc.ConfirmUploaded(context.Background(), []ConfirmImageCmd{f.stageUpload(uuid.New())})
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})
}

func TestService_GetImage(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	meta, err := model.NewMetadata(1024, "png")
	require.NoError(t, err)
	img := model.NewImage(uuid.New(), userID, "beach", false, meta, nil)
	f.images.byID[img.ID] = img

	t.Run("hydrates the view url", func(t *testing.T) {
		got, err := f.svc.GetImage(context.Background(), userID, img.ID)
		require.NoError(t, err)
		assert.Contains(t, got.ViewURL, img.FileID())
	})

	t.Run("missing row maps to image not found", func(t *testing.T) {
		_, err := f.svc.GetImage(context.Background(), userID, uuid.New())
		assert.ErrorIs(t, err, model.ErrImageNotFound)
	})
}

func TestService_DeleteImages(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	meta, err := model.NewMetadata(1024, "png")
	require.NoError(t, err)
	img := model.NewImage(uuid.New(), userID, "beach", false, meta, nil)
	f.images.byID[img.ID] = img
	f.store.objects[img.FileID()] = struct{}{}

	require.NoError(t, f.svc.DeleteImages(context.Background(), userID, []uuid.UUID{img.ID}))

	assert.Empty(t, f.images.byID)
	assert.Equal(t, []string{img.FileID()}, f.store.deleted)
}

func TestService_DeleteAllUserImages(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	meta, err := model.NewMetadata(1024, "png")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		img := model.NewImage(uuid.New(), userID, "beach", false, meta, nil)
		f.images.byID[img.ID] = img
		f.store.objects[img.FileID()] = struct{}{}
	}

	// Another user's object must survive the prefix deletion.
	other := model.NewImage(uuid.New(), uuid.New(), "city", false, meta, nil)
	f.store.objects[other.FileID()] = struct{}{}

	require.NoError(t, f.svc.DeleteAllUserImages(context.Background(), userID))

	remaining, err := f.images.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Len(t, f.store.deleted, 3)
	_, ok := f.store.objects[other.FileID()]
	assert.True(t, ok)
}

func TestTranslateStorageError_PassesUnknownThrough(t *testing.T) {
	unknown := errors.New("connection reset")
	assert.Equal(t, unknown, translateStorageError(unknown))
}
