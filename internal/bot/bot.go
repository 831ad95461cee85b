// Package bot runs a bot built on the SDK: long polling into the
// dispatcher next to the maintenance scheduler, until shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Drainer waits for in-flight asynchronous requests.
type Drainer interface {
	Wait() error
}

// Bot represents the running bot and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	poller    *Poller
	scheduler *Scheduler
	drainer   Drainer
}

// NewBot creates a bot from its poller and scheduler. scheduler and
// drainer may be nil.
func NewBot(logger *slog.Logger, poller *Poller, scheduler *Scheduler, drainer Drainer) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		poller:    poller,
		scheduler: scheduler,
		drainer:   drainer,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on context cancellation.
// It returns an error if any component fails during startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting update poller...")

		if err := b.poller.Run(gCtx); err != nil {
			b.logger.Error("Update poller failed", "error", err)
			return fmt.Errorf("update poller failed: %w", err)
		}
		b.logger.Info("Update poller stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Update poller stopped unexpectedly without context cancellation.")
			return fmt.Errorf("update poller stopped unexpectedly")
		}
		return nil
	})

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if err := b.scheduler.Start(); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")

			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}

			return nil
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if b.drainer != nil {
		if drainErr := b.drainer.Wait(); drainErr != nil {
			b.logger.Warn("Asynchronous requests failed during run", "error", drainErr)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
