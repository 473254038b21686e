package httpserver

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/attachment"
	"github.com/example/task-tracker/modules/task"
	"github.com/gin-gonic/gin"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

const (
	attachmentField   = "attachment"
	defaultFeedLimit  = 50
	maxFeedLimit      = 1000
	htmlContentType   = "text/html; charset=utf-8"
	apiPrefix         = "/api"
	apiNotFoundReason = "API endpoint not found"
)

// AttachmentStore is the subset of the attachment store the handlers use.
type AttachmentStore interface {
	SaveUpload(ctx context.Context, header *multipart.FileHeader) (string, error)
	Resolve(handle string) (string, error)
	BestEffortDelete(ctx context.Context, handle string)
}

// createTaskRequest is the JSON form of a create request.
type createTaskRequest struct {
	Title   string  `json:"title"`
	DueDate *string `json:"dueDate"`
}

// Handlers contains HTTP request handlers for task operations.
type Handlers struct {
	tasks       *task.Service
	attachments AttachmentStore
	feed        *activity.Feed
	health      map[string]mono.HealthCheckableModule
	shell       []byte
	logger      types.Logger
}

// NewHandlers creates a new handlers instance. shell is the client
// application page served for non-API paths.
func NewHandlers(
	tasks *task.Service,
	attachments AttachmentStore,
	feed *activity.Feed,
	health map[string]mono.HealthCheckableModule,
	shell []byte,
	logger types.Logger,
) *Handlers {
	return &Handlers{
		tasks:       tasks,
		attachments: attachments,
		feed:        feed,
		health:      health,
		shell:       shell,
		logger:      logger,
	}
}

// handleTaskError writes an appropriate HTTP error response for task service errors.
func (h *Handlers) handleTaskError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, task.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
	case errors.Is(err, task.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Task operation failed", "operation", operation, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + operation})
	}
}

// isJSON reports whether the request body is JSON rather than a form.
func isJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON
}

// formUpload returns the optional attachment of a form request.
// Requests that are not multipart simply carry no attachment.
func formUpload(c *gin.Context) (*multipart.FileHeader, error) {
	header, err := c.FormFile(attachmentField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return header, nil
}

// ListTasks handles GET /api/tasks with an optional status filter.
func (h *Handlers) ListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, h.tasks.List(c.Request.Context(), c.Query("status")))
}

// GetTask handles GET /api/tasks/:id.
func (h *Handlers) GetTask(c *gin.Context) {
	t, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err, "get task")
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTask handles POST /api/tasks.
// Accepts multipart/form-data (with an optional attachment) or JSON.
func (h *Handlers) CreateTask(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		input  task.CreateInput
		upload *multipart.FileHeader
	)
	if isJSON(c) {
		var req createTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		input.Title = req.Title
		if req.DueDate != nil {
			input.DueDate = *req.DueDate
		}
	} else {
		input.Title = c.PostForm("title")
		input.DueDate = c.PostForm("dueDate")

		var err error
		if upload, err = formUpload(c); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
			return
		}
	}

	// Reject before touching the disk so a bad request leaves no file behind.
	if _, err := task.ValidateTitle(input.Title); err != nil {
		h.handleTaskError(c, err, "create task")
		return
	}

	if upload != nil {
		handle, err := h.attachments.SaveUpload(ctx, upload)
		if err != nil {
			h.logger.Error("Failed to store attachment", "filename", upload.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
			return
		}
		input.File = &handle
	}

	created, err := h.tasks.Create(ctx, input)
	if err != nil {
		if input.File != nil {
			h.attachments.BestEffortDelete(ctx, *input.File)
		}
		h.handleTaskError(c, err, "create task")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateTask handles PUT /api/tasks/:id.
// Only supplied fields change; a new attachment replaces the old one.
func (h *Handlers) UpdateTask(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var (
		input  task.UpdateInput
		upload *multipart.FileHeader
	)
	if isJSON(c) {
		// An empty body is an update with no fields.
		if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	} else {
		if v, ok := c.GetPostForm("title"); ok {
			input.Title = task.Some(v)
		}
		if v, ok := c.GetPostForm("dueDate"); ok {
			input.DueDate = task.Some(v)
		}
		if v, ok := c.GetPostForm("status"); ok {
			input.Status = task.Some(v)
		}

		var err error
		if upload, err = formUpload(c); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
			return
		}
	}

	if _, err := h.tasks.Get(ctx, id); err != nil {
		h.handleTaskError(c, err, "update task")
		return
	}
	if input.Title.Set {
		if _, err := task.ValidateTitle(input.Title.Value); err != nil {
			h.handleTaskError(c, err, "update task")
			return
		}
	}

	if upload != nil {
		handle, err := h.attachments.SaveUpload(ctx, upload)
		if err != nil {
			h.logger.Error("Failed to store attachment", "filename", upload.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
			return
		}
		input.File = task.Some(handle)
	}

	updated, err := h.tasks.Update(ctx, id, input)
	if err != nil {
		// The task may have been deleted since the lookup above.
		if input.File.Set {
			h.attachments.BestEffortDelete(ctx, input.File.Value)
		}
		h.handleTaskError(c, err, "update task")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ToggleTaskStatus handles PATCH /api/tasks/:id/status.
func (h *Handlers) ToggleTaskStatus(c *gin.Context) {
	t, err := h.tasks.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err, "toggle task status")
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handlers) DeleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleTaskError(c, err, "delete task")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetAttachment handles GET /uploads/:handle.
func (h *Handlers) GetAttachment(c *gin.Context) {
	path, err := h.attachments.Resolve(c.Param("handle"))
	if err != nil {
		if errors.Is(err, attachment.ErrAttachmentNotFound) || errors.Is(err, attachment.ErrInvalidHandle) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		h.logger.Error("Failed to resolve attachment", "handle", c.Param("handle"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get file"})
		return
	}
	c.File(path)
}

// ListActivity handles GET /api/activity.
func (h *Handlers) ListActivity(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultFeedLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit value"})
		return
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	c.JSON(http.StatusOK, h.feed.Recent(limit))
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	healthy := true
	modules := make(gin.H, len(h.health))
	for name, module := range h.health {
		status := module.Health(c.Request.Context())
		healthy = healthy && status.Healthy
		modules[name] = gin.H{
			"healthy": status.Healthy,
			"message": status.Message,
			"details": status.Details,
		}
	}

	code := http.StatusOK
	state := "healthy"
	if !healthy {
		code = http.StatusServiceUnavailable
		state = "unhealthy"
	}
	c.JSON(code, gin.H{
		"status":  state,
		"service": "task-tracker",
		"modules": modules,
	})
}

// NoRoute answers unmatched API paths with a JSON 404 and serves the client
// application for every other GET, so client-side routes resolve.
func (h *Handlers) NoRoute(c *gin.Context) {
	path := c.Request.URL.Path
	if path == apiPrefix || strings.HasPrefix(path, apiPrefix+"/") {
		c.JSON(http.StatusNotFound, gin.H{"error": apiNotFoundReason})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.Data(http.StatusOK, htmlContentType, h.shell)
}
