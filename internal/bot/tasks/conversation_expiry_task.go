package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const expiryTimeout = time.Minute

// newConversationExpiryTask creates a task that clears conversation markers
// not updated within the configured TTL. A zero TTL disables expiry.
func newConversationExpiryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", ConversationExpiry)

	return func(ctx context.Context) error {
		var ttl time.Duration
		if deps.Config != nil {
			ttl = deps.Config.Conversation.TTL
		}
		if ttl <= 0 {
			log.DebugContext(ctx, "Conversation expiry disabled, skipping")
			return nil
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, expiryTimeout)
		defer cancel()

		cutoff := deps.Now().Add(-ttl)
		n, err := deps.Store.ExpireConversations(timeoutCtx, cutoff)
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			log.WarnContext(ctx, "Conversation expiry timed out or was cancelled", "error", err)
			return fmt.Errorf("conversation expiry timed out or was cancelled: %w", err)
		case err != nil:
			log.ErrorContext(ctx, "Conversation expiry failed", "error", err)
			return fmt.Errorf("conversation expiry failed: %w", err)
		}

		if n == 0 {
			log.DebugContext(ctx, "No stale conversations found", "cutoff", cutoff)
			return nil
		}
		log.InfoContext(ctx, "Expired stale conversations", "count", n, "cutoff", cutoff)
		return nil
	}
}
