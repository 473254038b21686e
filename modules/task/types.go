package task

import (
	"bytes"
	"context"
	"encoding/json"
)

// Optional carries a value together with whether it was supplied at all.
// A JSON null marks the field as supplied with the zero value.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// CreateInput is the input for creating a task.
type CreateInput struct {
	Title   string
	DueDate string
	// File is the handle of an already stored attachment, if any.
	File *string
}

// UpdateInput is the input for a partial task update. Fields that are not Set
// are left untouched.
type UpdateInput struct {
	Title   Optional[string] `json:"title"`
	DueDate Optional[string] `json:"dueDate"`
	Status  Optional[string] `json:"status"`
	File    Optional[string] `json:"-"`
}

// changedFields lists the supplied field names in a stable order.
func (in UpdateInput) changedFields() []string {
	fields := make([]string, 0, 4)
	if in.Title.Set {
		fields = append(fields, "title")
	}
	if in.DueDate.Set {
		fields = append(fields, "dueDate")
	}
	if in.Status.Set {
		fields = append(fields, "status")
	}
	if in.File.Set {
		fields = append(fields, "file")
	}
	return fields
}

// AttachmentRemover deletes stored attachments owned by removed or replaced tasks.
// Implementations must not fail the caller; errors are theirs to log.
type AttachmentRemover interface {
	BestEffortDelete(ctx context.Context, handle string)
}
