package tasks

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, as used in the scheduler.tasks configuration.
const (
	SQLMaintenance     = "sql_maintenance"
	ConversationExpiry = "conversation_expiry"
)

// RegisterAllTasks initializes and returns a map of all registered scheduled
// tasks, keyed by the name used in the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tasks := make(map[string]ScheduledTaskFunc)
	tasks[SQLMaintenance] = newSQLMaintenanceTask(deps)
	tasks[ConversationExpiry] = newConversationExpiryTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
