// Package handlers contains the bundled bot commands and conversations,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	"github.com/edgard/tgbotsdk/internal/command"
)

// PrivateOnly wraps a command so it only runs in private chats. Elsewhere
// it replies with the configured message and stops the update.
// The wrapped command's argument pattern is not carried over.
func PrivateOnly(deps HandlerDeps, next command.Command) command.Command {
	return privateOnly{Command: next, deps: deps}
}

type privateOnly struct {
	command.Command
	deps HandlerDeps
}

func (m privateOnly) Handle(ctx context.Context, req *command.Request) (command.Result, error) {
	if chat := req.Update().Chat(); chat != nil && chat.IsPrivate() {
		return m.Command.Handle(ctx, req)
	}

	log := m.deps.Logger.With("middleware", "PrivateOnly")
	var userID int64
	if from := req.Update().From(); from != nil {
		userID = from.ID()
	}
	log.WarnContext(ctx, "Command used outside a private chat", "command", req.Name, "user_id", userID)

	if err := m.deps.reply(ctx, req, m.deps.Config.Messages.PrivateOnly, nil); err != nil {
		log.ErrorContext(ctx, "Failed to send private only message", "error", err)
	}
	return command.Stop, nil
}
