package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pixvault/pixvault/internal/model"
)

type service interface {
	DeleteAllUserImages(ctx context.Context, userID uuid.UUID) error
}

// DeletedHandler consumes UserDeleted events and mass-deletes the user's
// images from both stores.
type DeletedHandler struct {
	service service
}

func NewDeletedHandler(s service) *DeletedHandler {
	return &DeletedHandler{service: s}
}

func (h *DeletedHandler) Handle(ctx context.Context, body []byte) error {
	var event model.UserDeletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal user deleted event: %w", err)
	}

	if err := h.service.DeleteAllUserImages(ctx, event.UserID); err != nil {
		return fmt.Errorf("delete user images: %w", err)
	}

	return nil
}
