package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/container"
	"github.com/edgard/tgbotsdk/internal/entity"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
	"github.com/edgard/tgbotsdk/internal/state"
)

// Outcome is the result of the conversation stage for one update.
type Outcome int

const (
	// Idle means the update is not part of any conversation.
	Idle Outcome = iota
	// OK means the user's marker names no registered conversation and
	// the update was skipped.
	OK
	// Handled means a conversation ran (or failed) for the update.
	Handled
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case OK:
		return "ok"
	case Handled:
		return "handled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type entry struct {
	instance Conversation
	id       string
}

// Engine routes non-command messages to the user's current conversation.
type Engine struct {
	store    state.Store
	caller   api.Caller
	resolver container.Resolver
	logger   *slog.Logger

	mu            sync.RWMutex
	conversations map[string]*entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets the resolver used by AddConstructor and dispatch.
func WithResolver(resolver container.Resolver) Option {
	return func(e *Engine) {
		e.resolver = resolver
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine keeping markers in store. Conversations
// send their replies through caller.
func NewEngine(store state.Store, caller api.Caller, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		caller:        caller,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		conversations: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "conversation_engine")
	return e
}

// Add registers conv under its Name.
func (e *Engine) Add(conv Conversation) error {
	if conv == nil {
		return apperrors.NewConfigurationError("add nil conversation", nil)
	}
	return e.insert(conv.Name(), &entry{instance: conv})
}

// AddConstructor registers the conversation the resolver builds for id.
// It is resolved once now to validate it, and again for every turn.
func (e *Engine) AddConstructor(ctx context.Context, id string) error {
	if _, err := e.resolve(ctx, id); err != nil {
		return apperrors.NewConfigurationError(fmt.Sprintf("conversation %s", id), err)
	}
	return e.insert(id, &entry{id: id})
}

// Remove unregisters the conversation. Users whose marker still names it
// are skipped from then on.
func (e *Engine) Remove(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.conversations[name]
	delete(e.conversations, name)
	return ok
}

// Has reports whether a conversation is registered under name.
func (e *Engine) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.conversations[name]
	return ok
}

// Names lists the registered conversations, sorted.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.conversations))
	for name := range e.conversations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start makes conversation id handle the user's next non-command message.
func (e *Engine) Start(ctx context.Context, userID int64, id string) error {
	if !e.Has(id) {
		return apperrors.NewConfigurationError(fmt.Sprintf("conversation %s: not registered", id), nil)
	}
	if err := e.store.SetCurrentConversation(ctx, userID, id); err != nil {
		return fmt.Errorf("start conversation %s: %w", id, err)
	}
	e.logger.DebugContext(ctx, "Started conversation", "conversation", id, "user_id", userID)
	return nil
}

// Cancel clears the user's active conversation, if any.
func (e *Engine) Cancel(ctx context.Context, userID int64) error {
	if err := e.store.ClearCurrentConversation(ctx, userID); err != nil {
		return fmt.Errorf("cancel conversation: %w", err)
	}
	return nil
}

// Current returns the user's active conversation.
func (e *Engine) Current(ctx context.Context, userID int64) (string, bool, error) {
	return e.store.CurrentConversation(ctx, userID)
}

// Dispatch runs one turn of the sender's current conversation. The
// marker change requested by the turn is stored only when the handler
// returns nil.
func (e *Engine) Dispatch(ctx context.Context, update *entity.Update) (Outcome, error) {
	if update.Message() == nil {
		return Idle, nil
	}
	user := update.From()
	if user == nil {
		return Idle, nil
	}

	current, ok, err := e.store.CurrentConversation(ctx, user.ID())
	if err != nil {
		return Idle, fmt.Errorf("load conversation marker: %w", err)
	}
	if !ok {
		return Idle, nil
	}

	e.mu.RLock()
	ent := e.conversations[current]
	e.mu.RUnlock()
	if ent == nil {
		e.logger.WarnContext(ctx, "Conversation marker names an unregistered conversation, skipping",
			"conversation", current,
			"user_id", user.ID())
		return OK, nil
	}

	conv, err := e.instance(ctx, ent)
	if err != nil {
		return Handled, apperrors.NewDispatchError(current, "construction failed", err)
	}

	turn := NewTurn(e.caller, update, current)
	if err := conv.Handle(ctx, turn); err != nil {
		return Handled, fmt.Errorf("conversation %s: %w", current, err)
	}

	next, changed := turn.Outcome()
	if !changed {
		return Handled, nil
	}
	if next != "" && !e.Has(next) {
		e.logger.WarnContext(ctx, "Conversation moved to an unregistered conversation",
			"conversation", current,
			"next", next)
	}
	if err := e.store.SetCurrentConversation(ctx, user.ID(), next); err != nil {
		return Handled, fmt.Errorf("store conversation marker: %w", err)
	}

	e.logger.DebugContext(ctx, "Conversation transition",
		"user_id", user.ID(),
		"from", current,
		"to", next)
	return Handled, nil
}

func (e *Engine) instance(ctx context.Context, ent *entry) (Conversation, error) {
	if ent.instance != nil {
		return ent.instance, nil
	}
	return e.resolve(ctx, ent.id)
}

func (e *Engine) resolve(ctx context.Context, id string) (Conversation, error) {
	if e.resolver == nil {
		return nil, errors.New("no resolver configured")
	}
	v, err := e.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	conv, ok := v.(Conversation)
	if !ok {
		return nil, fmt.Errorf("%T does not implement Conversation", v)
	}
	return conv, nil
}

func (e *Engine) insert(name string, ent *entry) error {
	if name == "" {
		return apperrors.NewConfigurationError("conversation with empty name", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.conversations[name]; exists {
		return apperrors.NewConfigurationError(fmt.Sprintf("conversation %s: already registered", name), nil)
	}
	e.conversations[name] = ent
	return nil
}
