// Package tasks implements the scheduled maintenance tasks of the bot.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/tgbotsdk/internal/config"
)

// Store is the part of the bot state the tasks maintain.
type Store interface {
	ExpireConversations(ctx context.Context, olderThan time.Time) (int, error)
	RunSQLMaintenance(ctx context.Context) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  Store
	Config *config.Config

	// Now defaults to time.Now.
	Now func() time.Time
}
