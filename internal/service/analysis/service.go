// Package analysis implements the asynchronous enrichment pipeline: for
// each uploaded image, extract content labels from the classifier, clean
// them, and persist them. The pipeline surfaces nothing to any caller;
// failures propagate to the dispatcher's catch-and-log boundary.
package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/pixvault/pixvault/internal/model"
)

// Classifier is the machine-vision capability the pipeline fans out to.
// Text detection exists as a capability but is not wired into the default
// pipeline.
type Classifier interface {
	DetectObjects(ctx context.Context, img model.Image) ([]model.Label, error)
	DetectFaces(ctx context.Context, img model.Image) ([]model.Label, error)
	DetectCelebrities(ctx context.Context, img model.Image) ([]model.Label, error)
	DetectUnsafeContent(ctx context.Context, img model.Image) ([]model.Label, error)
	DetectText(ctx context.Context, img model.Image) ([]model.Label, error)
}

// labelRepo persists one image's labels transactionally and idempotently.
type labelRepo interface {
	InsertLabels(ctx context.Context, labels []model.Label) error
}

// ExtractContentsCmd identifies one image to analyze.
type ExtractContentsCmd struct {
	ImageID uuid.UUID
	UserID  uuid.UUID
	Name    string
}

// Service runs the three-stage pipeline per image.
type Service struct {
	classifier Classifier
	labels     labelRepo
}

func NewService(c Classifier, labels labelRepo) *Service {
	return &Service{classifier: c, labels: labels}
}

// ExtractImageContents analyzes each image independently and in parallel.
// One image failing does not stop its siblings; the joined error is
// returned to the dispatch boundary for logging.
func (s *Service) ExtractImageContents(ctx context.Context, cmds []ExtractContentsCmd) error {
	p := pool.New().WithErrors().WithContext(ctx)

	for _, cmd := range cmds {
		img := model.Image{ID: cmd.ImageID, UserID: cmd.UserID, Name: cmd.Name}

		p.Go(func(ctx context.Context) error {
			return s.analyzeImage(ctx, img)
		})
	}

	return p.Wait()
}

func (s *Service) analyzeImage(ctx context.Context, img model.Image) error {
	labels, err := s.extractLabels(ctx, img)
	if err != nil {
		return fmt.Errorf("analyze image %s: %w", img.ID, err)
	}

	labels = CleanLabels(labels)

	if err := s.labels.InsertLabels(ctx, labels); err != nil {
		return fmt.Errorf("analyze image %s: %w", img.ID, err)
	}

	return nil
}

// extractLabels concatenates every detection category the default pipeline
// uses.
func (s *Service) extractLabels(ctx context.Context, img model.Image) ([]model.Label, error) {
	detectors := []func(context.Context, model.Image) ([]model.Label, error){
		s.classifier.DetectObjects,
		s.classifier.DetectFaces,
		s.classifier.DetectCelebrities,
		s.classifier.DetectUnsafeContent,
	}

	var labels []model.Label
	for _, detect := range detectors {
		detected, err := detect(ctx, img)
		if err != nil {
			return nil, err
		}
		labels = append(labels, detected...)
	}

	return labels, nil
}
