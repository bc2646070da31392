package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ContentCategory is the fixed taxonomy of machine-generated labels.
type ContentCategory string

const (
	CategoryObject    ContentCategory = "object"
	CategoryFace      ContentCategory = "face"
	CategoryCelebrity ContentCategory = "celebrity"
	CategoryText      ContentCategory = "text"
	CategoryUnsafe    ContentCategory = "unsafe content"
)

// Label is a machine-generated content label belonging to exactly one image.
// Labels are deduplicated globally by (name, category); the confidence score
// is per image-label link.
type Label struct {
	ID         uuid.UUID       `json:"id"`
	ImageID    uuid.UUID       `json:"imageID"`
	Name       string          `json:"name"`
	Category   ContentCategory `json:"category"`
	Confidence float64         `json:"confidence"`
}

// NewLabel constructs a label, rejecting confidence scores outside [0,100].
func NewLabel(imageID uuid.UUID, name string, category ContentCategory, confidence float64) (Label, error) {
	if confidence < 0 || confidence > 100 {
		return Label{}, fmt.Errorf("label confidence score must be between 0 and 100, got %v", confidence)
	}

	return Label{
		ID:         uuid.New(),
		ImageID:    imageID,
		Name:       name,
		Category:   category,
		Confidence: confidence,
	}, nil
}
