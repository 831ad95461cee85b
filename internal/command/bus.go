package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/entity"
)

// Outcome is the result of the command stage for one update.
type Outcome int

const (
	// NoMatch means the update is not a command invocation.
	NoMatch Outcome = iota
	// Matched means a command ran (or failed) and processing goes on.
	Matched
	// Stopped means the command asked to end processing of the update.
	Stopped
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "no_match"
	case Matched:
		return "matched"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Bus dispatches updates to registered commands.
type Bus struct {
	registry      *Registry
	caller        api.Caller
	conversations ConversationStarter
	logger        *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithConversationStarter lets commands start conversations.
func WithConversationStarter(starter ConversationStarter) BusOption {
	return func(b *Bus) {
		b.conversations = starter
	}
}

// WithBusLogger sets the bus logger.
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates a bus dispatching to registry. Commands send their
// replies through caller.
func NewBus(registry *Registry, caller api.Caller, opts ...BusOption) *Bus {
	b := &Bus{
		registry: registry,
		caller:   caller,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "command_bus")
	return b
}

// Registry returns the registry the bus dispatches to.
func (b *Bus) Registry() *Registry {
	return b.registry
}

// Dispatch runs the command the update's message text invokes, if any.
//
// Only message-like updates carry commands; a callback query is never
// an invocation even though it exposes the message it was attached to.
// A construction or handler failure is returned together with Matched,
// so the update is still considered handled by a command.
func (b *Bus) Dispatch(ctx context.Context, update *entity.Update) (Outcome, error) {
	if update.Type() == entity.UpdateCallbackQuery {
		return NoMatch, nil
	}
	text := update.Message().Text()
	if text == "" {
		return NoMatch, nil
	}

	inv, ok := b.registry.Resolve(text)
	if !ok {
		return NoMatch, nil
	}

	cmd, err := b.registry.instance(ctx, inv)
	if err != nil {
		return Matched, err
	}

	req := NewRequest(b.caller, update, inv.Name, inv.Arguments, inv.entry.pattern.parse(inv.Arguments), b.conversations)

	b.logger.DebugContext(ctx, "Dispatching command",
		"command", inv.Name,
		"fallback", inv.Fallback,
		"update_id", update.ID())

	result, err := cmd.Handle(ctx, req)
	outcome := Matched
	if result == Stop {
		outcome = Stopped
	}
	if err != nil {
		return outcome, fmt.Errorf("command %s: %w", inv.Name, err)
	}
	return outcome, nil
}
