package task

import (
	"errors"
	"fmt"
)

// Sentinel errors for task operations.
var (
	// ErrTaskNotFound is returned when no task has the requested ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrValidation is returned when a request carries invalid or missing fields.
	ErrValidation = errors.New("validation failed")

	// ErrTitleRequired is returned when the title is empty after trimming.
	ErrTitleRequired = fmt.Errorf("%w: title is required", ErrValidation)
)
