// Package classifier holds implementations of the analysis pipeline's
// Classifier port. The concrete vendor adapter (managed vision APIs) lives
// outside this repository; Disabled keeps the pipeline runnable without one.
package classifier

import (
	"context"

	"github.com/pixvault/pixvault/internal/model"
)

// Disabled is a Classifier that detects nothing. Wired when no vendor
// classifier is configured, so uploads still flow end to end and images
// simply stay unlabeled.
type Disabled struct{}

func (Disabled) DetectObjects(context.Context, model.Image) ([]model.Label, error) {
	return nil, nil
}

func (Disabled) DetectFaces(context.Context, model.Image) ([]model.Label, error) {
	return nil, nil
}

func (Disabled) DetectCelebrities(context.Context, model.Image) ([]model.Label, error) {
	return nil, nil
}

func (Disabled) DetectUnsafeContent(context.Context, model.Image) ([]model.Label, error) {
	return nil, nil
}

func (Disabled) DetectText(context.Context, model.Image) ([]model.Label, error) {
	return nil, nil
}
