package attachment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct {
	warnings int
}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          { m.warnings++ }
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

func newTestStore(t *testing.T) (*DiskStore, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	store, err := NewDiskStore(filepath.Join(t.TempDir(), "uploads"), logger)
	require.NoError(t, err)
	require.NoError(t, store.Init())
	return store, logger
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.txt`, "notes.txt"},
		{"my report (final).pdf", "my_report_final_.pdf"},
		{"", "file"},
		{".", "file"},
		{"..", "file"},
		{"/", "file"},
		{"файл.txt", ".txt"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateHandle(t *testing.T) {
	tests := []struct {
		handle  string
		wantErr bool
	}{
		{"1714560000000-abc-report.pdf", false},
		{"", true},
		{".", true},
		{"..", true},
		{"../secret", true},
		{"a/b", true},
		{`a\b`, true},
		{".hidden", true},
	}

	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			err := validateHandle(tt.handle)
			if tt.wantErr && !errors.Is(err, ErrInvalidHandle) {
				t.Errorf("validateHandle(%q) error = %v, want ErrInvalidHandle", tt.handle, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validateHandle(%q) unexpected error: %v", tt.handle, err)
			}
		})
	}
}

func TestDiskStore_SaveAndOpen(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	content := []byte("quarterly numbers")

	handle, err := store.Save(ctx, bytes.NewReader(content), "../Report Q1.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(handle, "-Report_Q1.txt"), "handle %q keeps sanitized name", handle)
	assert.NoError(t, validateHandle(handle))

	path, err := store.Resolve(handle)
	require.NoError(t, err)
	assert.Equal(t, store.Dir(), filepath.Dir(path))

	rc, err := store.Open(handle)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDiskStore_SaveProducesUniqueHandles(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		handle, err := store.Save(ctx, strings.NewReader("same"), "same.txt")
		require.NoError(t, err)
		assert.False(t, seen[handle], "duplicate handle %s", handle)
		seen[handle] = true
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 25)
}

func TestDiskStore_SaveCancelled(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, strings.NewReader("data"), "a.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiskStore_Resolve(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Resolve("1-missing-file.txt")
	assert.ErrorIs(t, err, ErrAttachmentNotFound)

	_, err = store.Resolve("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestDiskStore_BestEffortDelete(t *testing.T) {
	store, logger := newTestStore(t)
	ctx := context.Background()

	handle, err := store.Save(ctx, strings.NewReader("bye"), "bye.txt")
	require.NoError(t, err)

	store.BestEffortDelete(ctx, handle)
	_, err = store.Resolve(handle)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
	assert.Equal(t, 0, logger.warnings)

	// Deleting again must not panic or surface an error, only log.
	store.BestEffortDelete(ctx, handle)
	assert.Equal(t, 1, logger.warnings)

	store.BestEffortDelete(ctx, "../outside.txt")
	assert.Equal(t, 2, logger.warnings)
}

func TestModule_Health(t *testing.T) {
	logger := &mockLogger{}
	dir := filepath.Join(t.TempDir(), "uploads")
	m, err := NewModule(dir, logger)
	require.NoError(t, err)

	assert.False(t, m.Health(context.Background()).Healthy, "directory does not exist before Start")

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.Health(context.Background()).Healthy)
	require.NoError(t, m.Stop(context.Background()))
}
