package task

import (
	"context"

	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module owns the task repository and exposes the task service.
type Module struct {
	repo     *Repository
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new task module. Attachments owned by removed or
// replaced tasks are deleted through attachments.
func NewModule(attachments AttachmentRemover, logger types.Logger, opts ...Option) *Module {
	repo := NewRepository()
	return &Module{
		repo:    repo,
		service: NewService(repo, attachments, logger, opts...),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
	m.service.SetEventBus(bus)
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskStatusChangedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, task events will not be published")
	}
	m.logger.Info("Task module started")
	return nil
}

// Stop shuts down the module. Tasks are kept in memory only and are dropped.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Task module stopped", "tasks_dropped", m.repo.Len())
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "in-memory",
		Details: map[string]any{
			"tasks": m.repo.Len(),
		},
	}
}

// Service returns the task service instance.
func (m *Module) Service() *Service {
	return m.service
}
