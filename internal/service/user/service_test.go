package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixvault/pixvault/internal/model"
	"github.com/pixvault/pixvault/internal/storage"
)

func TestMain(m *testing.M) {
	zlog.Init()
	m.Run()
}

type fakeUserRepo struct {
	insertErr error
	deleteErr error
	deleted   []uuid.UUID
}

func (f *fakeUserRepo) Insert(_ context.Context, _ model.User) error {
	return f.insertErr
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	events []model.Event
	err    error
}

func (f *fakePublisher) Publish(event model.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestService_CreateUser(t *testing.T) {
	t.Run("creates user with the given identity", func(t *testing.T) {
		id := uuid.New()
		svc := NewService(&fakeUserRepo{}, &fakePublisher{})

		u, err := svc.CreateUser(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
	})

	t.Run("duplicate identity maps to already exists", func(t *testing.T) {
		svc := NewService(&fakeUserRepo{insertErr: storage.ErrObjectAlreadyExists}, &fakePublisher{})

		_, err := svc.CreateUser(context.Background(), uuid.New())
		assert.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})
}

func TestService_DeleteUser(t *testing.T) {
	t.Run("deletes the row and announces the deletion", func(t *testing.T) {
		id := uuid.New()
		repo := &fakeUserRepo{}
		pub := &fakePublisher{}
		svc := NewService(repo, pub)

		require.NoError(t, svc.DeleteUser(context.Background(), id))

		assert.Equal(t, []uuid.UUID{id}, repo.deleted)
		require.Len(t, pub.events, 1)
		ev, ok := pub.events[0].(model.UserDeletedEvent)
		require.True(t, ok)
		assert.Equal(t, id, ev.UserID)
	})

	t.Run("missing row maps to user not found", func(t *testing.T) {
		svc := NewService(&fakeUserRepo{deleteErr: storage.ErrObjectNotFound}, &fakePublisher{})

		err := svc.DeleteUser(context.Background(), uuid.New())
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("publish failure does not fail the deletion", func(t *testing.T) {
		repo := &fakeUserRepo{}
		svc := NewService(repo, &fakePublisher{err: assert.AnError})

		assert.NoError(t, svc.DeleteUser(context.Background(), uuid.New()))
		assert.Len(t, repo.deleted, 1)
	})
}
