package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixvault/pixvault/internal/model"
	"github.com/pixvault/pixvault/internal/storage"
)

type userRepo interface {
	Insert(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventPublisher interface {
	Publish(event model.Event) error
}

// Service manages the user lifecycle.
type Service struct {
	users     userRepo
	publisher eventPublisher
}

func NewService(users userRepo, p eventPublisher) *Service {
	return &Service{users: users, publisher: p}
}

func (s *Service) CreateUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	u := model.NewUser(id)

	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, storage.ErrObjectAlreadyExists) {
			return model.User{}, model.ErrUserAlreadyExists
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// DeleteUser removes the user row and dispatches an event to asynchronously
// mass-delete the user's images.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.publisher.Publish(model.NewUserDeletedEvent(id)); err != nil {
		// Image cleanup is best-effort; the user row is already gone.
		zlog.Logger.Err(err).Str("user_id", id.String()).Msg("failed to publish user deleted event")
	}

	return nil
}
