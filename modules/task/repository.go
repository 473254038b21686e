package task

import (
	"fmt"
	"sync"

	domain "github.com/example/task-tracker/domain/task"
)

// Repository provides in-memory task storage that preserves insertion order.
// Tasks are returned by value so callers never share state with the collection.
type Repository struct {
	tasks []*domain.Task
	mu    sync.RWMutex
}

// NewRepository creates an empty task repository.
func NewRepository() *Repository {
	return &Repository{
		tasks: make([]*domain.Task, 0),
	}
}

// Append adds a task to the end of the collection.
func (r *Repository) Append(task domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := task.Clone()
	r.tasks = append(r.tasks, &t)
}

// List returns all tasks in insertion order. A valid status narrows the
// result to matching tasks; any other value returns everything.
func (r *Repository) List(status domain.Status) []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if status.Valid() && t.Status != status {
			continue
		}
		result = append(result, t.Clone())
	}
	return result
}

// FindByID returns the task with the given ID.
func (r *Repository) FindByID(id string) (domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return r.tasks[i].Clone(), nil
}

// ToggleStatus flips the task between pending and done.
func (r *Repository) ToggleStatus(id string) (domain.Task, error) {
	return r.Update(id, func(t *domain.Task) error {
		t.Status = t.Status.Toggled()
		return nil
	})
}

// Update applies fn to a copy of the task and stores the result only when
// fn returns nil. The whole read-modify-write happens under the lock.
func (r *Repository) Update(id string, fn func(*domain.Task) error) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	working := r.tasks[i].Clone()
	if err := fn(&working); err != nil {
		return domain.Task{}, err
	}
	*r.tasks[i] = working
	return working.Clone(), nil
}

// Remove deletes the task and returns its attachment handle, or nil when it
// had none, so the caller can delete the stored object.
func (r *Repository) Remove(id string) (*string, error) {
	removed, err := r.take(id)
	if err != nil {
		return nil, err
	}
	return removed.File, nil
}

// Len returns the number of stored tasks.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// take removes the task and returns it.
func (r *Repository) take(id string) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	removed := *r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return removed, nil
}

// indexOf must be called with the lock held.
func (r *Repository) indexOf(id string) int {
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
