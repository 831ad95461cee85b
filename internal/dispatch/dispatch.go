// Package dispatch is the batch entry point: it fans every update out to
// the command bus, the conversation engine and the update listeners, and
// confirms the batch afterwards.
package dispatch

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"go.uber.org/multierr"

	"github.com/edgard/tgbotsdk/internal/command"
	"github.com/edgard/tgbotsdk/internal/conversation"
	"github.com/edgard/tgbotsdk/internal/entity"
	"github.com/edgard/tgbotsdk/internal/events"
)

// CommandStage dispatches an update to at most one command.
type CommandStage interface {
	Dispatch(ctx context.Context, update *entity.Update) (command.Outcome, error)
}

// ConversationStage dispatches an update to the sender's conversation.
type ConversationStage interface {
	Dispatch(ctx context.Context, update *entity.Update) (conversation.Outcome, error)
}

// Confirmer acknowledges processed updates up to highestID.
type Confirmer interface {
	ConfirmUpdate(ctx context.Context, highestID int64) error
}

// Dispatcher processes updates one at a time, in update id order.
// A Dispatcher is not safe for concurrent batches.
type Dispatcher struct {
	commands      CommandStage
	conversations ConversationStage
	emitter       *events.Emitter
	confirmer     Confirmer
	logger        *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCommands sets the command stage.
func WithCommands(stage CommandStage) Option {
	return func(d *Dispatcher) {
		d.commands = stage
	}
}

// WithConversations sets the conversation stage.
func WithConversations(stage ConversationStage) Option {
	return func(d *Dispatcher) {
		d.conversations = stage
	}
}

// WithEmitter sets the emitter notified with EventUpdateReceived.
func WithEmitter(emitter *events.Emitter) Option {
	return func(d *Dispatcher) {
		d.emitter = emitter
	}
}

// WithConfirmer sets the hook called with the highest id of each batch.
func WithConfirmer(confirmer Confirmer) Option {
	return func(d *Dispatcher) {
		d.confirmer = confirmer
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a dispatcher. Stages left unset are skipped.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "dispatcher")
	return d
}

// ProcessUpdate runs the full fan-out for one update: the command stage,
// then the conversation stage when no command matched, then the update
// listeners unless a command returned Stop. Errors from every stage are
// combined; a failing stage does not prevent the following ones.
func (d *Dispatcher) ProcessUpdate(ctx context.Context, update *entity.Update) error {
	var errs error

	outcome := command.NoMatch
	if d.commands != nil {
		var err error
		outcome, err = d.commands.Dispatch(ctx, update)
		errs = multierr.Append(errs, err)
	}

	if outcome == command.NoMatch && d.conversations != nil {
		_, err := d.conversations.Dispatch(ctx, update)
		errs = multierr.Append(errs, err)
	}

	if outcome != command.Stopped && d.emitter != nil {
		errs = multierr.Append(errs, d.emitter.Emit(ctx, events.EventUpdateReceived, update))
	}

	return errs
}

// ProcessUpdates processes a batch in ascending update id order and
// returns the updates in that order. A failing update never stops the
// batch: its error is logged and included in the returned error. After
// the last update the highest update id is confirmed, whatever the
// per-update results were.
func (d *Dispatcher) ProcessUpdates(ctx context.Context, updates []*entity.Update) ([]*entity.Update, error) {
	batch := make([]*entity.Update, 0, len(updates))
	for _, u := range updates {
		if u != nil {
			batch = append(batch, u)
		}
	}
	if len(batch) == 0 {
		return batch, nil
	}

	slices.SortStableFunc(batch, func(a, b *entity.Update) int {
		return cmp.Compare(a.ID(), b.ID())
	})

	var errs error
	for _, u := range batch {
		if err := d.ProcessUpdate(ctx, u); err != nil {
			d.logger.ErrorContext(ctx, "Failed to process update",
				"update_id", u.ID(),
				"update_type", u.Type(),
				"error", err)
			errs = multierr.Append(errs, fmt.Errorf("update %d: %w", u.ID(), err))
		}
	}

	highest := batch[len(batch)-1].ID()
	if d.confirmer != nil {
		if err := d.confirmer.ConfirmUpdate(ctx, highest); err != nil {
			d.logger.ErrorContext(ctx, "Failed to confirm updates", "highest_update_id", highest, "error", err)
			errs = multierr.Append(errs, err)
		}
	}

	d.logger.DebugContext(ctx, "Processed update batch", "count", len(batch), "highest_update_id", highest)
	return batch, errs
}
