package task

import (
	"context"
	"strings"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator replaces the default UUIDv7 generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// WithClock replaces time.Now as the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// newTaskID returns a time-ordered UUID so IDs sort by creation.
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Service implements the task lifecycle on top of the Repository and keeps
// attachment ownership consistent with it.
type Service struct {
	repo        *Repository
	attachments AttachmentRemover
	eventBus    mono.EventBus
	logger      types.Logger
	newID       func() string
	now         func() time.Time
}

// NewService creates a task service.
func NewService(repo *Repository, attachments AttachmentRemover, logger types.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		attachments: attachments,
		logger:      logger,
		newID:       newTaskID,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventBus enables publishing of task lifecycle events.
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.eventBus = bus
}

// ValidateTitle trims the title and rejects it when nothing is left.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrTitleRequired
	}
	return trimmed, nil
}

// Create validates the input and appends a new pending task.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Task, error) {
	title, err := ValidateTitle(in.Title)
	if err != nil {
		return domain.Task{}, err
	}

	t := domain.Task{
		ID:        s.newID(),
		Title:     title,
		DueDate:   optionalString(in.DueDate),
		Status:    domain.StatusPending,
		File:      in.File,
		CreatedAt: s.now().UTC(),
	}
	s.repo.Append(t)

	s.publish(func(bus mono.EventBus) error {
		return events.TaskCreatedV1.Publish(bus, events.TaskCreatedEvent{
			TaskID:        t.ID,
			Title:         t.Title,
			HasAttachment: t.File != nil,
			CreatedAt:     t.CreatedAt,
		}, nil)
	}, "TaskCreated", t.ID)

	return t, nil
}

// List returns tasks in creation order, optionally filtered by status.
// Unknown status values are treated as no filter.
func (s *Service) List(_ context.Context, status string) []domain.Task {
	return s.repo.List(domain.Status(status))
}

// Get returns a single task.
func (s *Service) Get(_ context.Context, id string) (domain.Task, error) {
	return s.repo.FindByID(id)
}

// ToggleStatus flips the task status between pending and done.
func (s *Service) ToggleStatus(_ context.Context, id string) (domain.Task, error) {
	t, err := s.repo.ToggleStatus(id)
	if err != nil {
		return domain.Task{}, err
	}

	s.publish(func(bus mono.EventBus) error {
		return events.TaskStatusChangedV1.Publish(bus, events.TaskStatusChangedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			Status:    string(t.Status),
			ChangedAt: s.now().UTC(),
		}, nil)
	}, "TaskStatusChanged", t.ID)

	return t, nil
}

// Update applies the supplied fields. A new attachment replaces the previous
// one, which is then deleted from the store.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (domain.Task, error) {
	var replaced *string

	t, err := s.repo.Update(id, func(t *domain.Task) error {
		if in.Title.Set {
			title, err := ValidateTitle(in.Title.Value)
			if err != nil {
				return err
			}
			t.Title = title
		}
		if in.DueDate.Set {
			t.DueDate = optionalString(in.DueDate.Value)
		}
		if in.Status.Set {
			// Arbitrary overwrite within the enum; other values are ignored.
			if status := domain.Status(in.Status.Value); status.Valid() {
				t.Status = status
			}
		}
		if in.File.Set {
			replaced = t.File
			t.File = optionalString(in.File.Value)
		}
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}

	if replaced != nil && (t.File == nil || *replaced != *t.File) {
		s.attachments.BestEffortDelete(ctx, *replaced)
	}

	s.publish(func(bus mono.EventBus) error {
		return events.TaskUpdatedV1.Publish(bus, events.TaskUpdatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			Fields:    in.changedFields(),
			UpdatedAt: s.now().UTC(),
		}, nil)
	}, "TaskUpdated", t.ID)

	return t, nil
}

// Delete removes the task and its attachment, if any.
func (s *Service) Delete(ctx context.Context, id string) error {
	removed, err := s.repo.take(id)
	if err != nil {
		return err
	}

	if removed.File != nil {
		s.attachments.BestEffortDelete(ctx, *removed.File)
	}

	s.publish(func(bus mono.EventBus) error {
		return events.TaskDeletedV1.Publish(bus, events.TaskDeletedEvent{
			TaskID:    removed.ID,
			Title:     removed.Title,
			DeletedAt: s.now().UTC(),
		}, nil)
	}, "TaskDeleted", removed.ID)

	return nil
}

// publish sends an event when a bus is configured.
// Event publishing is best-effort; failures are logged only.
func (s *Service) publish(send func(mono.EventBus) error, event, taskID string) {
	if s.eventBus == nil {
		return
	}
	if err := send(s.eventBus); err != nil {
		s.logger.Warn("Failed to publish task event",
			"event", event,
			"task_id", taskID,
			"error", err)
	}
}

// optionalString maps the empty string to nil.
func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
