package model

import (
	"time"

	"github.com/google/uuid"
)

// User owns images. Only identity and timestamps matter to this service;
// authentication lives outside it.
type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUser(id uuid.UUID) User {
	now := time.Now().UTC()
	return User{ID: id, CreatedAt: now, UpdatedAt: now}
}
