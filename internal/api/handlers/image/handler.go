package image

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
	"github.com/pixvault/pixvault/internal/service/upload"
)

// service defines the interface for image-related operations.
type service interface {
	GenerateUploadURLs(ctx context.Context, userID uuid.UUID, count int) ([]model.FileURL, error)
	ConfirmUploaded(ctx context.Context, cmds []upload.ConfirmImageCmd) ([]model.Image, error)
	GetImage(ctx context.Context, userID, imageID uuid.UUID) (model.Image, error)
	ListUserImages(ctx context.Context, userID uuid.UUID) ([]model.Image, error)
	ListPublicImages(ctx context.Context) ([]model.Image, error)
	SearchImagesByName(ctx context.Context, userID uuid.UUID, name string) ([]model.Image, error)
	SearchImagesByTag(ctx context.Context, userID uuid.UUID, tagName string) ([]model.Image, error)
	SearchImagesByContentLabel(ctx context.Context, userID uuid.UUID, labelName string) ([]model.Image, error)
	DeleteImages(ctx context.Context, userID uuid.UUID, imageIDs []uuid.UUID) error
}

// Handler provides HTTP handlers for image-related endpoints.
type Handler struct {
	service service
}

func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// UploadURLsRequest asks for a number of presigned upload slots.
type UploadURLsRequest struct {
	Count int `json:"count"`
}

// GenerateUploadURLs handles POST /users/:user_id/images/upload-urls.
func (h *Handler) GenerateUploadURLs(c *ginext.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req UploadURLsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	urls, err := h.service.GenerateUploadURLs(c.Request.Context(), userID, req.Count)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to generate upload urls")
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.OK(c, urls)
}

// ConfirmImageRequest declares one uploaded image.
type ConfirmImageRequest struct {
	ImageID   uuid.UUID `json:"imageID"`
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	IsPrivate bool      `json:"isPrivate"`
	Tags      []string  `json:"tags"`
}

// ConfirmRequest confirms a batch of uploads.
type ConfirmRequest struct {
	Images []ConfirmImageRequest `json:"images"`
}

// ConfirmUploaded handles POST /users/:user_id/images/confirm.
func (h *Handler) ConfirmUploaded(c *ginext.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	cmds := make([]upload.ConfirmImageCmd, 0, len(req.Images))
	for _, img := range req.Images {
		cmds = append(cmds, upload.ConfirmImageCmd{
			ImageID:   img.ImageID,
			UserID:    userID,
			Name:      img.Name,
			Hash:      img.Hash,
			IsPrivate: img.IsPrivate,
			TagNames:  img.Tags,
		})
	}

	images, err := h.service.ConfirmUploaded(c.Request.Context(), cmds)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to confirm uploaded images")
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.Created(c, images)
}

// ListPublic handles GET /images.
func (h *Handler) ListPublic(c *ginext.Context) {
	images, err := h.service.ListPublicImages(c.Request.Context())
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to list public images")
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.OK(c, images)
}

// List handles GET /users/:user_id/images with optional name, tag and label
// query filters.
func (h *Handler) List(c *ginext.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	var (
		images []model.Image
		err    error
	)
	switch {
	case c.Query("name") != "":
		images, err = h.service.SearchImagesByName(ctx, userID, c.Query("name"))
	case c.Query("tag") != "":
		images, err = h.service.SearchImagesByTag(ctx, userID, c.Query("tag"))
	case c.Query("label") != "":
		images, err = h.service.SearchImagesByContentLabel(ctx, userID, c.Query("label"))
	default:
		images, err = h.service.ListUserImages(ctx, userID)
	}

	if err != nil {
		zlog.Logger.Err(err).Msg("failed to list images")
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.OK(c, images)
}

// Get handles GET /users/:user_id/images/:id.
func (h *Handler) Get(c *ginext.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid image id"))
		return
	}

	img, err := h.service.GetImage(c.Request.Context(), userID, imageID)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to get image")
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.OK(c, img)
}

// DeleteRequest names the images to delete.
type DeleteRequest struct {
	ImageIDs []uuid.UUID `json:"imageIDs"`
}

// Delete handles DELETE /users/:user_id/images.
func (h *Handler) Delete(c *ginext.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ImageIDs) == 0 {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.service.DeleteImages(c.Request.Context(), userID, req.ImageIDs); err != nil {
		zlog.Logger.Err(err).Msg("failed to delete images")
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.NoContent(c)
}

func parseUserID(c *ginext.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid user id"))
		return uuid.Nil, false
	}

	return userID, true
}

// statusFor maps domain outcomes to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUserNotFound), errors.Is(err, model.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrImageAlreadyExists), errors.Is(err, model.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrBatchTooLarge),
		errors.Is(err, model.ErrImageFormatInvalid),
		errors.Is(err, model.ErrImageSizeExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
