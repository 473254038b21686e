package attachment

import "errors"

// Sentinel errors for attachment operations.
var (
	// ErrAttachmentNotFound is returned when no stored object has the handle.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrInvalidHandle is returned when a handle could escape the upload directory.
	ErrInvalidHandle = errors.New("invalid attachment handle")
)
