package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/tgbotsdk/internal/command"
)

// NewStartCommand returns the /start command.
func NewStartCommand(deps HandlerDeps) command.Command {
	h := startHandler{deps}
	return command.New(command.Definition{
		Name:        "start",
		Description: "Start the bot",
	}, h.Handle)
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, req *command.Request) (command.Result, error) {
	log := h.deps.Logger.With("handler", "start")

	var userID int64
	if from := req.Update().From(); from != nil {
		userID = from.ID()
	}
	log.InfoContext(ctx, "Handling /start command", "user_id", userID)

	welcome := h.deps.Config.Messages.Welcome
	if username := h.deps.Config.Telegram.BotUsername; username != "" {
		welcome = strings.ReplaceAll(welcome, "@botname", "@"+strings.TrimPrefix(username, "@"))
	}
	if err := h.deps.reply(ctx, req, welcome, nil); err != nil {
		return command.Continue, fmt.Errorf("failed to send welcome message: %w", err)
	}

	log.DebugContext(ctx, "Successfully sent welcome message", "user_id", userID)
	return command.Continue, nil
}
