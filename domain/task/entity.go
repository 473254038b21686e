package task

import "time"

// Status represents the state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusPending {
		return StatusDone
	}
	return StatusPending
}

// Task is the core domain entity representing a tracked item.
// DueDate and File are encoded as null when unset.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueDate   *string   `json:"dueDate"`
	Status    Status    `json:"status"`
	File      *string   `json:"file"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.File != nil {
		f := *t.File
		c.File = &f
	}
	return c
}
