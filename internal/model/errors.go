package model

import "errors"

// Domain-level outcomes surfaced by the services. Adapter-level failures are
// translated into these exactly once, at the service boundary.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	ErrImageNotFound      = errors.New("image not found")
	ErrImageAlreadyExists = errors.New("image already exists")

	ErrImageFormatInvalid = errors.New("image format not supported")
	ErrImageSizeExceeded  = errors.New("image size exceeds limit")

	ErrBatchTooLarge = errors.New("too many images per confirmation request")
)
