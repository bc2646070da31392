package model

import "github.com/google/uuid"

// Tag is a user-supplied name attached to an image. Tags are deduplicated
// globally by name; a tag with no remaining image links is garbage and is
// cleaned up by a database trigger.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewTag mints a tag with a fresh identity. If the name already exists the
// insert is a no-op and the existing row keeps its identity.
func NewTag(name string) Tag {
	return Tag{ID: uuid.New(), Name: name}
}
