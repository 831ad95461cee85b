// Package conversation implements multi-turn, per-user dialogs driven by
// a persisted "current conversation" marker.
package conversation

import (
	"context"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/entity"
	"github.com/edgard/tgbotsdk/internal/reply"
)

// Conversation handles one turn of a dialog. Its Name is the identifier
// stored in the user's marker.
type Conversation interface {
	Name() string
	Handle(ctx context.Context, turn *Turn) error
}

// HandlerFunc is the handler signature of a function conversation.
type HandlerFunc func(ctx context.Context, turn *Turn) error

type funcConversation struct {
	name string
	fn   HandlerFunc
}

func (c funcConversation) Name() string { return c.name }

func (c funcConversation) Handle(ctx context.Context, turn *Turn) error {
	return c.fn(ctx, turn)
}

// New builds a Conversation from a handler function.
func New(name string, fn HandlerFunc) Conversation {
	return funcConversation{name: name, fn: fn}
}

type transition int

const (
	stay transition = iota
	move
	end
)

// Turn is what a conversation handler receives for one inbound message.
// Calling neither Next nor End keeps the current conversation active.
type Turn struct {
	*reply.Replier

	// API issues arbitrary Bot API calls.
	API api.Caller
	// Conversation is the identifier of the conversation handling the turn.
	Conversation string

	user       *entity.User
	transition transition
	next       string
}

// NewTurn builds a Turn. It is exported for conversation tests.
func NewTurn(caller api.Caller, update *entity.Update, current string) *Turn {
	return &Turn{
		Replier:      reply.New(caller, update),
		API:          caller,
		Conversation: current,
		user:         update.From(),
	}
}

// User returns the user the conversation belongs to.
func (t *Turn) User() *entity.User {
	return t.user
}

// Text returns the text of the inbound message, or the callback data
// when the turn was started by an inline keyboard button.
func (t *Turn) Text() string {
	if q := t.Update().CallbackQuery(); q != nil {
		return q.Data()
	}
	return t.Update().Message().Text()
}

// Next makes conversation id handle the user's next message. The last
// call in a turn wins.
func (t *Turn) Next(id string) {
	if id == "" {
		t.End()
		return
	}
	t.transition, t.next = move, id
}

// End returns the user to no active conversation after this turn.
func (t *Turn) End() {
	t.transition, t.next = end, ""
}

// Outcome reports the marker change requested by the turn: the new
// identifier, and whether the marker changes at all.
func (t *Turn) Outcome() (next string, changed bool) {
	switch t.transition {
	case move:
		return t.next, t.next != t.Conversation
	case end:
		return "", true
	default:
		return t.Conversation, false
	}
}
