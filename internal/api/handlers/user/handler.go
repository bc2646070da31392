package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixvault/pixvault/internal/api/respond"
	"github.com/pixvault/pixvault/internal/model"
)

type service interface {
	CreateUser(ctx context.Context, id uuid.UUID) (model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Handler provides HTTP handlers for user lifecycle endpoints.
type Handler struct {
	service service
}

func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// CreateRequest registers a user by externally issued ID.
type CreateRequest struct {
	ID uuid.UUID `json:"id"`
}

// Create handles POST /users.
func (h *Handler) Create(c *ginext.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == uuid.Nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	u, err := h.service.CreateUser(c.Request.Context(), req.ID)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to create user")
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.Created(c, u)
}

// Delete handles DELETE /users/:user_id.
func (h *Handler) Delete(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid user id"))
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		zlog.Logger.Err(err).Msg("failed to delete user")
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.NoContent(c)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
