package catalog

import "errors"

// Sentinel errors for catalog flows. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrPhotoRequired indicates an item was added without a location photo.
	ErrPhotoRequired = errors.New("location photo required")

	// ErrInvalidRequest indicates a request failed field validation.
	ErrInvalidRequest = errors.New("invalid request")
)
