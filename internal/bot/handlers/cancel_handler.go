package handlers

import (
	"context"
	"fmt"

	"github.com/edgard/tgbotsdk/internal/command"
)

// NewCancelCommand returns the /cancel command, which ends the sender's
// active conversation.
func NewCancelCommand(deps HandlerDeps) command.Command {
	h := cancelHandler{deps}
	return command.New(command.Definition{
		Name:        "cancel",
		Aliases:     []string{"stop"},
		Description: "Cancel the current conversation",
	}, h.Handle)
}

type cancelHandler struct {
	deps HandlerDeps
}

func (h cancelHandler) Handle(ctx context.Context, req *command.Request) (command.Result, error) {
	log := h.deps.Logger.With("handler", "cancel")

	from := req.Update().From()
	if from == nil {
		log.WarnContext(ctx, "Cancel command received update without sender", "update_id", req.Update().ID())
		return command.Continue, nil
	}

	current, active, err := h.deps.Conversations.Current(ctx, from.ID())
	if err != nil {
		return command.Continue, fmt.Errorf("failed to load conversation: %w", err)
	}

	text := h.deps.Config.Messages.NothingToCancel
	if active {
		if err := h.deps.Conversations.Cancel(ctx, from.ID()); err != nil {
			if sendErr := h.deps.reply(ctx, req, h.deps.Config.Messages.GeneralError, nil); sendErr != nil {
				log.ErrorContext(ctx, "Failed to send error message", "error", sendErr)
			}
			return command.Continue, err
		}
		log.InfoContext(ctx, "Conversation cancelled", "user_id", from.ID(), "conversation", current)
		text = h.deps.Config.Messages.Cancelled
	}

	if err := h.deps.reply(ctx, req, text, nil); err != nil {
		return command.Continue, fmt.Errorf("failed to send cancel reply: %w", err)
	}
	return command.Continue, nil
}
