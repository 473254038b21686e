package attachment

import (
	"context"
	"fmt"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module owns the local-disk attachment store.
type Module struct {
	store  *DiskStore
	logger types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new attachment module storing files under dir.
func NewModule(dir string, logger types.Logger) (*Module, error) {
	store, err := NewDiskStore(dir, logger)
	if err != nil {
		return nil, err
	}
	return &Module{
		store:  store,
		logger: logger,
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "attachment"
}

// Start creates the upload directory.
func (m *Module) Start(_ context.Context) error {
	if err := m.store.Init(); err != nil {
		return fmt.Errorf("failed to initialize attachment store: %w", err)
	}
	m.logger.Info("Attachment module started", "dir", m.store.Dir())
	return nil
}

// Stop shuts down the module. Stored files are left in place.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Attachment module stopped")
	return nil
}

// Health reports whether the upload directory is present.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	info, err := os.Stat(m.store.Dir())
	healthy := err == nil && info.IsDir()
	message := "ready"
	if !healthy {
		message = "upload directory unavailable"
	}
	return mono.HealthStatus{
		Healthy: healthy,
		Message: message,
		Details: map[string]any{
			"dir": m.store.Dir(),
		},
	}
}

// Store returns the attachment store instance.
func (m *Module) Store() *DiskStore {
	return m.store
}
