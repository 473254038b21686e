package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/attachment"
	"github.com/example/task-tracker/modules/task"
	"github.com/gin-gonic/gin"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module implements an HTTP server using the Gin framework.
type Module struct {
	port             int
	server           *http.Server
	engine           *gin.Engine
	handlers         *Handlers
	taskModule       *task.Module
	attachmentModule *attachment.Module
	activityModule   *activity.Module
	logger           types.Logger
	maxUploadSize    int64
}

// Compile-time interface checks
var _ mono.Module = (*Module)(nil)

// NewModule creates a new HTTP server module.
func NewModule(port int, maxUploadSize int64, logger types.Logger) *Module {
	return &Module{
		port:          port,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "http-server"
}

// SetTaskModule sets the task module dependency.
func (m *Module) SetTaskModule(taskModule *task.Module) {
	m.taskModule = taskModule
}

// SetAttachmentModule sets the attachment module dependency.
func (m *Module) SetAttachmentModule(attachmentModule *attachment.Module) {
	m.attachmentModule = attachmentModule
}

// SetActivityModule sets the activity module dependency.
func (m *Module) SetActivityModule(activityModule *activity.Module) {
	m.activityModule = activityModule
}

// Start initializes and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	if err := m.setupEngine(); err != nil {
		return err
	}

	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", m.port),
		Handler:           m.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		m.logger.Info("HTTP server starting", "port", m.port)
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.server != nil {
		m.logger.Info("Shutting down HTTP server")
		return m.server.Shutdown(ctx)
	}
	return nil
}

// setupEngine builds the Gin engine with middleware, handlers and routes.
func (m *Module) setupEngine() error {
	switch {
	case m.taskModule == nil:
		return fmt.Errorf("task module not set")
	case m.attachmentModule == nil:
		return fmt.Errorf("attachment module not set")
	case m.activityModule == nil:
		return fmt.Errorf("activity module not set")
	}

	web, err := loadWebAssets()
	if err != nil {
		return fmt.Errorf("failed to load web assets: %w", err)
	}

	m.engine = gin.New()
	m.engine.Use(gin.Recovery())
	m.engine.Use(m.loggingMiddleware())
	m.engine.Use(m.corsMiddleware())
	m.engine.MaxMultipartMemory = m.maxUploadSize

	m.handlers = NewHandlers(
		m.taskModule.Service(),
		m.attachmentModule.Store(),
		m.activityModule.Feed(),
		map[string]mono.HealthCheckableModule{
			m.taskModule.Name():       m.taskModule,
			m.attachmentModule.Name(): m.attachmentModule,
		},
		web.index,
		m.logger,
	)

	m.registerRoutes(web)
	return nil
}

// registerRoutes sets up all HTTP routes.
func (m *Module) registerRoutes(web *webAssets) {
	m.engine.GET("/health", m.handlers.HealthCheck)

	api := m.engine.Group("/api")
	{
		tasks := api.Group("/tasks")
		{
			tasks.GET("", m.handlers.ListTasks)
			tasks.POST("", m.handlers.CreateTask)
			tasks.GET("/:id", m.handlers.GetTask)
			tasks.PUT("/:id", m.handlers.UpdateTask)
			tasks.PATCH("/:id/status", m.handlers.ToggleTaskStatus)
			tasks.DELETE("/:id", m.handlers.DeleteTask)
		}
		api.GET("/activity", m.handlers.ListActivity)
	}

	m.engine.GET("/uploads/:handle", m.handlers.GetAttachment)
	m.engine.StaticFS("/assets", web.assets)
	m.engine.NoRoute(m.handlers.NoRoute)
}

// loggingMiddleware provides request logging.
func (m *Module) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		m.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers for development.
func (m *Module) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
