package model

import (
	"time"

	"github.com/google/uuid"
)

// Image is the aggregate created on upload confirmation. Both the object
// store and the relational store hold a projection of it; keeping the two
// consistent is the job of the upload service, not of this type.
type Image struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userID"`
	Name      string    `json:"name"`
	IsPrivate bool      `json:"isPrivate"`
	Metadata  Metadata  `json:"metadata"`
	Tags      []Tag     `json:"tags,omitempty"`
	Labels    []Label   `json:"labels,omitempty"`

	// ViewURL is derived per read (presigned GET), never persisted.
	ViewURL string `json:"viewUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewImage builds an image aggregate from a confirmed upload. Tags are
// copied in; the slice passed by the caller is not retained.
func NewImage(id, userID uuid.UUID, name string, isPrivate bool, meta Metadata, tags []Tag) Image {
	now := time.Now().UTC()

	return Image{
		ID:        id,
		UserID:    userID,
		Name:      name,
		IsPrivate: isPrivate,
		Metadata:  meta,
		Tags:      append([]Tag(nil), tags...),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FileID is the object-store key for this image: users/<userID>/<imageID>.
func (img Image) FileID() string {
	return FileID(img.UserID, img.ID)
}

// FileID maps an owner and image identity to an object-store key. The user
// prefix makes mass deletion a prefix listing.
func FileID(userID, imageID uuid.UUID) string {
	return "users/" + userID.String() + "/" + imageID.String()
}

// UserFilePrefix is the object-store key prefix owning all of a user's images.
func UserFilePrefix(userID uuid.UUID) string {
	return "users/" + userID.String() + "/"
}

// FileURL pairs a presigned upload URL with the image ID minted for it.
type FileURL struct {
	URL     string    `json:"url"`
	ImageID uuid.UUID `json:"imageID"`
}
