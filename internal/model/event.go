package model

import (
	"time"

	"github.com/google/uuid"
)

// Tube names, one per event type.
const (
	TubeImagesUploaded = "images-uploaded"
	TubeUserDeleted    = "user-deleted"
)

// Event is a domain event routed to a queue tube by name.
type Event interface {
	EventName() string
}

// EventTubes is the static event-name to tube-name table.
var EventTubes = map[string]string{
	"ImagesUploaded": TubeImagesUploaded,
	"UserDeleted":    TubeUserDeleted,
}

// ImagesUploadedEvent announces that a batch of images has been confirmed,
// moved to permanent storage and recorded in the metadata store.
type ImagesUploadedEvent struct {
	Images       []Image   `json:"images"`
	TimeOccurred time.Time `json:"timeOccurred"`
}

func NewImagesUploadedEvent(images []Image) ImagesUploadedEvent {
	return ImagesUploadedEvent{
		Images:       append([]Image(nil), images...),
		TimeOccurred: time.Now().UTC(),
	}
}

func (ImagesUploadedEvent) EventName() string { return "ImagesUploaded" }

// UserDeletedEvent announces a user deletion; its consumer mass-deletes the
// user's images from both stores.
type UserDeletedEvent struct {
	UserID       uuid.UUID `json:"userID"`
	TimeOccurred time.Time `json:"timeOccurred"`
}

func NewUserDeletedEvent(userID uuid.UUID) UserDeletedEvent {
	return UserDeletedEvent{UserID: userID, TimeOccurred: time.Now().UTC()}
}

func (UserDeletedEvent) EventName() string { return "UserDeleted" }
