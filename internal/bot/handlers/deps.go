package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/config"
	"github.com/edgard/tgbotsdk/internal/conversation"
	"github.com/edgard/tgbotsdk/internal/entity"
	"github.com/edgard/tgbotsdk/internal/sanitize"
)

// HandlerDeps provides dependencies for the bundled commands and conversations.
type HandlerDeps struct {
	Logger        *slog.Logger
	Config        *config.Config
	Conversations *conversation.Engine
	Sanitizer     *sanitize.Policy
}

// messageReplier is implemented by command requests and conversation turns.
type messageReplier interface {
	ReplyWithMessage(ctx context.Context, text string, params api.Params) (*entity.Message, error)
}

// reply sends a configured message, rendering it as HTML when messages
// are written in Markdown.
func (d HandlerDeps) reply(ctx context.Context, r messageReplier, text string, params api.Params) error {
	if d.Config.Messages.Format == "markdown" {
		rendered, err := d.Sanitizer.MarkdownToHTML(text)
		if err != nil {
			return fmt.Errorf("failed to render message: %w", err)
		}
		params = params.Clone()
		params["parse_mode"] = "HTML"
		text = rendered
	}
	_, err := r.ReplyWithMessage(ctx, text, params)
	return err
}
