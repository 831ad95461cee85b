// Package command implements the command registry and the bus that
// dispatches "/name args" messages to at most one command per update.
package command

import (
	"context"
	"maps"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/entity"
	"github.com/edgard/tgbotsdk/internal/reply"
)

// Result tells the bus whether processing of the update goes on after
// the command. The zero value is Continue.
type Result int

const (
	// Continue lets the update reach the listeners.
	Continue Result = iota
	// Stop ends processing of the update after the command.
	Stop
)

// Command handles one "/name" invocation. Commands are registered for
// the lifetime of the registry and must be safe for sequential reuse.
type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Handle(ctx context.Context, req *Request) (Result, error)
}

// Patterned is implemented by commands that declare named arguments,
// such as "{name} {age: \d+}".
type Patterned interface {
	Pattern() string
}

// Definition describes a command.
type Definition struct {
	Name        string
	Aliases     []string
	Description string
	Pattern     string
}

// Base implements the descriptive methods of Command. Embed it and add
// a Handle method.
type Base struct {
	def Definition
}

// NewBase returns a Base for def.
func NewBase(def Definition) Base {
	return Base{def: def}
}

func (b Base) Name() string        { return b.def.Name }
func (b Base) Aliases() []string   { return append([]string(nil), b.def.Aliases...) }
func (b Base) Description() string { return b.def.Description }
func (b Base) Pattern() string     { return b.def.Pattern }

// HandlerFunc is the handler signature of a function command.
type HandlerFunc func(ctx context.Context, req *Request) (Result, error)

type funcCommand struct {
	Base
	fn HandlerFunc
}

func (c funcCommand) Handle(ctx context.Context, req *Request) (Result, error) {
	return c.fn(ctx, req)
}

// New builds a Command from a definition and a handler function.
func New(def Definition, fn HandlerFunc) Command {
	return funcCommand{Base: NewBase(def), fn: fn}
}

// ConversationStarter sets a user's current conversation.
type ConversationStarter interface {
	Start(ctx context.Context, userID int64, id string) error
}

// Request is what a command handler receives: the update, the parsed
// invocation, and the ability to reply in the update's chat.
type Request struct {
	*reply.Replier

	// API issues arbitrary Bot API calls.
	API api.Caller
	// Name is the registered name of the command, or the typed name
	// when the default command handles an unknown one.
	Name string
	// Arguments is the text after the command token, trimmed.
	Arguments string

	args          map[string]string
	conversations ConversationStarter
}

// NewRequest builds a Request. It is exported for command tests.
func NewRequest(caller api.Caller, update *entity.Update, name, arguments string, args map[string]string, starter ConversationStarter) *Request {
	return &Request{
		Replier:       reply.New(caller, update),
		API:           caller,
		Name:          name,
		Arguments:     arguments,
		args:          args,
		conversations: starter,
	}
}

// Argument returns the named argument captured by the command pattern,
// or "" when it was not supplied.
func (r *Request) Argument(name string) string {
	return r.args[name]
}

// Args returns a copy of every captured named argument.
func (r *Request) Args() map[string]string {
	return maps.Clone(r.args)
}

// StartConversation makes conversation id handle the sender's next
// non-command messages.
func (r *Request) StartConversation(ctx context.Context, id string) error {
	if r.conversations == nil {
		return errNoConversations
	}
	user := r.Update().From()
	if user == nil {
		return errNoSender
	}
	return r.conversations.Start(ctx, user.ID(), id)
}
