package image

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pixvault/pixvault/internal/model"
	"github.com/pixvault/pixvault/internal/service/analysis"
)

type service interface {
	ExtractImageContents(ctx context.Context, cmds []analysis.ExtractContentsCmd) error
}

// UploadedHandler consumes ImagesUploaded events and feeds each image into
// the analysis pipeline.
type UploadedHandler struct {
	service service
}

func NewUploadedHandler(s service) *UploadedHandler {
	return &UploadedHandler{service: s}
}

func (h *UploadedHandler) Handle(ctx context.Context, body []byte) error {
	var event model.ImagesUploadedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal images uploaded event: %w", err)
	}

	cmds := make([]analysis.ExtractContentsCmd, 0, len(event.Images))
	for _, img := range event.Images {
		cmds = append(cmds, analysis.ExtractContentsCmd{
			ImageID: img.ID,
			UserID:  img.UserID,
			Name:    img.Name,
		})
	}

	if err := h.service.ExtractImageContents(ctx, cmds); err != nil {
		return fmt.Errorf("extract image contents: %w", err)
	}

	return nil
}
