package handlers

import (
	"context"
	"fmt"

	"github.com/edgard/tgbotsdk/internal/command"
	"github.com/edgard/tgbotsdk/internal/container"
	"github.com/edgard/tgbotsdk/internal/conversation"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
	"github.com/edgard/tgbotsdk/internal/sanitize"
)

// Install registers the bundled commands on registry and the feedback
// conversations on engine. The feedback command and conversations are
// built by c for every dispatch, so registry and engine must resolve
// through c.
func Install(ctx context.Context, deps HandlerDeps, c *container.Dig, registry *command.Registry, engine *conversation.Engine) error {
	if deps.Sanitizer == nil {
		deps.Sanitizer = sanitize.NewTelegramPolicy()
	}
	if err := c.Supply(deps); err != nil {
		return err
	}

	constructors := []struct {
		id   string
		ctor any
	}{
		{feedbackCommandID, func(d HandlerDeps) command.Command { return PrivateOnly(d, NewFeedbackCommand(d)) }},
		{FeedbackRating, NewRatingConversation},
		{FeedbackComment, NewCommentConversation},
	}
	for _, reg := range constructors {
		if err := c.Register(reg.id, reg.ctor); err != nil {
			return err
		}
	}

	static := []command.Command{
		NewStartCommand(deps),
		NewCancelCommand(deps),
		command.NewHelpCommand(registry),
	}
	if err := registry.AddAll(static...); err != nil {
		return err
	}
	if err := registry.AddConstructor(ctx, feedbackCommandID); err != nil {
		return err
	}
	for _, id := range []string{FeedbackRating, FeedbackComment} {
		if err := engine.AddConstructor(ctx, id); err != nil {
			return err
		}
	}

	if name := deps.Config.Commands.Default; name != "" {
		for _, cmd := range static {
			if cmd.Name() == name {
				return registry.SetDefault(cmd)
			}
		}
		return apperrors.NewConfigurationError(fmt.Sprintf("default command %q is not a bundled command", name), nil)
	}
	return nil
}
