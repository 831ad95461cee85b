package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/command"
	"github.com/edgard/tgbotsdk/internal/conversation"
	"github.com/edgard/tgbotsdk/internal/entity"
)

// Conversation identifiers of the feedback flow.
const (
	FeedbackRating  = "feedback.rating"
	FeedbackComment = "feedback.comment"
)

// feedbackCommandID is the container identifier of the feedback command.
const feedbackCommandID = "feedback"

// NewFeedbackCommand returns the /feedback command, which asks for a
// rating and then a comment.
func NewFeedbackCommand(deps HandlerDeps) command.Command {
	h := feedbackHandler{deps}
	return command.New(command.Definition{
		Name:        "feedback",
		Description: "Rate the bot",
	}, h.Handle)
}

type feedbackHandler struct {
	deps HandlerDeps
}

func (h feedbackHandler) Handle(ctx context.Context, req *command.Request) (command.Result, error) {
	if err := req.StartConversation(ctx, FeedbackRating); err != nil {
		return command.Continue, fmt.Errorf("failed to start feedback: %w", err)
	}
	params := api.Params{"reply_markup": ratingKeyboard()}
	if err := h.deps.reply(ctx, req, h.deps.Config.Messages.FeedbackRating, params); err != nil {
		return command.Continue, fmt.Errorf("failed to send rating prompt: %w", err)
	}
	return command.Continue, nil
}

func ratingKeyboard() map[string]any {
	row := make([]map[string]string, 0, 5)
	for i := 1; i <= 5; i++ {
		n := strconv.Itoa(i)
		row = append(row, map[string]string{"text": n, "callback_data": n})
	}
	return map[string]any{"inline_keyboard": [][]map[string]string{row}}
}

// NewRatingConversation returns the first feedback turn: it accepts a
// rating from 1 to 5, typed or picked from the keyboard.
func NewRatingConversation(deps HandlerDeps) conversation.Conversation {
	log := deps.Logger.With("conversation", FeedbackRating)

	return conversation.New(FeedbackRating, func(ctx context.Context, turn *conversation.Turn) error {
		answerCallback(ctx, turn, log)

		rating, err := strconv.Atoi(strings.TrimSpace(turn.Text()))
		if err != nil || rating < 1 || rating > 5 {
			return deps.reply(ctx, turn, deps.Config.Messages.FeedbackInvalid, nil)
		}

		log.InfoContext(ctx, "Received feedback rating", "user_id", turn.User().ID(), "rating", rating)
		if err := deps.reply(ctx, turn, deps.Config.Messages.FeedbackComment, nil); err != nil {
			return fmt.Errorf("failed to send comment prompt: %w", err)
		}
		turn.Next(FeedbackComment)
		return nil
	})
}

// NewCommentConversation returns the last feedback turn.
func NewCommentConversation(deps HandlerDeps) conversation.Conversation {
	log := deps.Logger.With("conversation", FeedbackComment)

	return conversation.New(FeedbackComment, func(ctx context.Context, turn *conversation.Turn) error {
		answerCallback(ctx, turn, log)

		comment := deps.Sanitizer.SanitizeText(turn.Text())
		log.InfoContext(ctx, "Received feedback comment", "user_id", turn.User().ID(), "comment", comment)
		if err := deps.reply(ctx, turn, deps.Config.Messages.FeedbackThanks, nil); err != nil {
			return fmt.Errorf("failed to send thanks: %w", err)
		}
		turn.End()
		return nil
	})
}

// answerCallback stops the client's loading indicator on a keyboard press.
func answerCallback(ctx context.Context, turn *conversation.Turn, log *slog.Logger) {
	q := turn.Update().CallbackQuery()
	if q == nil {
		return
	}
	if _, err := turn.API.Request(ctx, "answerCallbackQuery", api.Params{"callback_query_id": q.ID()}, entity.KindNone); err != nil {
		log.WarnContext(ctx, "Failed to answer callback query", "callback_query_id", q.ID(), "error", err)
	}
}
