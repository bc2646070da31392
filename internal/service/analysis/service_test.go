package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixvault/pixvault/internal/model"
)

// fakeClassifier returns canned labels per category and tracks which
// detectors ran.
type fakeClassifier struct {
	objects    []model.Label
	faces      []model.Label
	textCalled bool
	err        error
}

func (f *fakeClassifier) DetectObjects(_ context.Context, _ model.Image) ([]model.Label, error) {
	return f.objects, f.err
}

func (f *fakeClassifier) DetectFaces(_ context.Context, _ model.Image) ([]model.Label, error) {
	return f.faces, nil
}

func (f *fakeClassifier) DetectCelebrities(_ context.Context, _ model.Image) ([]model.Label, error) {
	return nil, nil
}

func (f *fakeClassifier) DetectUnsafeContent(_ context.Context, _ model.Image) ([]model.Label, error) {
	return nil, nil
}

func (f *fakeClassifier) DetectText(_ context.Context, _ model.Image) ([]model.Label, error) {
	f.textCalled = true
	return nil, nil
}

type fakeLabelRepo struct {
	mu       sync.Mutex
	inserted [][]model.Label
	err      error
}

func (f *fakeLabelRepo) InsertLabels(_ context.Context, labels []model.Label) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, labels)

	return nil
}

func TestService_ExtractImageContents(t *testing.T) {
	imageID := uuid.New()
	cmd := ExtractContentsCmd{ImageID: imageID, UserID: uuid.New(), Name: "beach"}

	t.Run("stores cleaned labels from every wired detector", func(t *testing.T) {
		c := &fakeClassifier{
			objects: []model.Label{{ID: uuid.New(), ImageID: imageID, Name: "Golden Retriever!", Category: model.CategoryObject, Confidence: 87.65432}},
			faces:   []model.Label{{ID: uuid.New(), ImageID: imageID, Name: "Happy", Category: model.CategoryFace, Confidence: 99.1}},
		}
		repo := &fakeLabelRepo{}

		err := NewService(c, repo).ExtractImageContents(context.Background(), []ExtractContentsCmd{cmd})
		require.NoError(t, err)

		require.Len(t, repo.inserted, 1)
		labels := repo.inserted[0]
		require.Len(t, labels, 2)
		assert.Equal(t, "golden retriever", labels[0].Name)
		assert.Equal(t, 87.6543, labels[0].Confidence)
		assert.Equal(t, "happy", labels[1].Name)

		// Text detection exists but is not part of the default pipeline.
		assert.False(t, c.textCalled)
	})

	t.Run("classifier failure skips persistence", func(t *testing.T) {
		c := &fakeClassifier{err: errors.New("vision backend down")}
		repo := &fakeLabelRepo{}

		err := NewService(c, repo).ExtractImageContents(context.Background(), []ExtractContentsCmd{cmd})
		assert.Error(t, err)
		assert.Empty(t, repo.inserted)
	})

	t.Run("analyzes each image independently", func(t *testing.T) {
		repo := &fakeLabelRepo{}
		svc := NewService(&fakeClassifier{}, repo)

		err := svc.ExtractImageContents(context.Background(), []ExtractContentsCmd{
			cmd,
			{ImageID: uuid.New(), UserID: uuid.New(), Name: "city"},
		})
		require.NoError(t, err)
		assert.Len(t, repo.inserted, 2)
	})
}
