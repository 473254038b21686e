package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	activitymod "github.com/example/task-tracker/modules/activity"
	attachmentmod "github.com/example/task-tracker/modules/attachment"
	httpservermod "github.com/example/task-tracker/modules/httpserver"
	taskmod "github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	httpPort := getEnvInt("PORT", 3000)
	uploadDir := getEnv("UPLOAD_DIR", "./uploads")
	maxUploadSize := getEnvInt64("MAX_UPLOAD_SIZE", 32*1024*1024) // 32MB default
	activityLimit := getEnvInt("ACTIVITY_LIMIT", activitymod.DefaultCapacity)
	logLevel := mono.LogLevelInfo
	switch level := strings.ToLower(getEnv("LOG_LEVEL", "info")); level {
	case "info":
	case "error":
		logLevel = mono.LogLevelError
	default:
		log.Printf("Warning: invalid value for LOG_LEVEL: %s, using default: info", level)
	}

	log.Println("=== Task Tracker ===")
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Upload Dir: %s", uploadDir)
	log.Printf("Max Upload Size: %d bytes", maxUploadSize)
	log.Printf("Activity Limit: %d entries", activityLimit)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	// Create modules
	attachmentModule, err := attachmentmod.NewModule(uploadDir, app.Logger())
	if err != nil {
		log.Fatalf("Failed to create attachment module: %v", err)
	}
	activityModule := activitymod.NewModule(activityLimit, app.Logger())
	taskModule := taskmod.NewModule(attachmentModule.Store(), app.Logger())
	httpServerModule := httpservermod.NewModule(httpPort, maxUploadSize, app.Logger())

	// Wire up dependencies
	httpServerModule.SetTaskModule(taskModule)
	httpServerModule.SetAttachmentModule(attachmentModule)
	httpServerModule.SetActivityModule(activityModule)

	// Register modules
	// The task module emits lifecycle events; the activity module consumes them
	app.Register(attachmentModule)
	app.Register(activityModule)
	app.Register(taskModule)
	app.Register(httpServerModule)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Printf("UI available at http://localhost:%d", httpPort)
	log.Println("Endpoints:")
	log.Println("  GET    /health                   - Health check")
	log.Println("  GET    /api/tasks?status=        - List tasks")
	log.Println("  POST   /api/tasks                - Create a task (form or JSON)")
	log.Println("  GET    /api/tasks/:id            - Get a task")
	log.Println("  PUT    /api/tasks/:id            - Update a task")
	log.Println("  PATCH  /api/tasks/:id/status     - Toggle task status")
	log.Println("  DELETE /api/tasks/:id            - Delete a task")
	log.Println("  GET    /api/activity?limit=      - Recent activity")
	log.Println("  GET    /uploads/:handle          - Download an attachment")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvInt64 returns environment variable as int64 or default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int64 value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}
