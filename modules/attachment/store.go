package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	nanoid "github.com/jaevor/go-nanoid"
)

const randomIDLength = 10

// unsafeChars matches everything that is not kept verbatim in a stored name.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename reduces an uploaded name to a single safe path element.
func sanitizeFilename(filename string) string {
	// Browsers on Windows may send full paths
	clean := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	clean = unsafeChars.ReplaceAllString(clean, "_")
	clean = strings.Trim(clean, "_")
	if clean == "" || clean == "." || clean == ".." {
		return "file"
	}
	return clean
}

// validateHandle rejects handles that are not a single plain file name.
func validateHandle(handle string) error {
	if handle == "" || handle == "." || handle == ".." ||
		strings.ContainsAny(handle, `/\`) || strings.HasPrefix(handle, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return nil
}

// DiskStore keeps attachments as plain files in one directory.
// A delete racing a concurrent read of the same attachment is not
// coordinated; the reader gets either the bytes or ErrAttachmentNotFound.
type DiskStore struct {
	dir      string
	logger   types.Logger
	randomID func() string
	now      func() time.Time
}

// NewDiskStore creates a store rooted at dir. The directory is created by Init.
func NewDiskStore(dir string, logger types.Logger) (*DiskStore, error) {
	gen, err := nanoid.Standard(randomIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &DiskStore{
		dir:      dir,
		logger:   logger,
		randomID: gen,
		now:      time.Now,
	}, nil
}

// Init creates the upload directory if it does not exist.
func (s *DiskStore) Init() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// Dir returns the upload directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// newHandle builds a unique stored name from the creation time, a random
// component and the sanitized original name.
func (s *DiskStore) newHandle(originalName string) string {
	// nanoid's alphabet includes '-', which is fine inside a single path element
	return fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), s.randomID(), sanitizeFilename(originalName))
}

// Save writes r to a new uniquely named object and returns its handle.
func (s *DiskStore) Save(ctx context.Context, r io.Reader, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	handle := s.newHandle(originalName)
	path := filepath.Join(s.dir, handle)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment: %w", err)
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	s.logger.Debug("Attachment stored",
		"handle", handle,
		"original_name", originalName,
		"size", written)
	return handle, nil
}

// SaveUpload stores a multipart upload and returns its handle.
func (s *DiskStore) SaveUpload(ctx context.Context, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	return s.Save(ctx, file, header.Filename)
}

// Resolve returns the on-disk path of a stored object.
func (s *DiskStore) Resolve(handle string) (string, error) {
	if err := validateHandle(handle); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, handle)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrAttachmentNotFound, handle)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat attachment: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrAttachmentNotFound, handle)
	}
	return path, nil
}

// Open returns a reader over a stored object.
func (s *DiskStore) Open(handle string) (io.ReadCloser, error) {
	path, err := s.Resolve(handle)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrAttachmentNotFound, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	return f, nil
}

// BestEffortDelete removes a stored object. Errors, including a missing
// object, are logged and never returned.
func (s *DiskStore) BestEffortDelete(_ context.Context, handle string) {
	if err := validateHandle(handle); err != nil {
		s.logger.Warn("Refusing to delete attachment", "handle", handle, "error", err)
		return
	}

	if err := os.Remove(filepath.Join(s.dir, handle)); err != nil {
		s.logger.Warn("Failed to delete attachment", "handle", handle, "error", err)
		return
	}
	s.logger.Debug("Attachment deleted", "handle", handle)
}
