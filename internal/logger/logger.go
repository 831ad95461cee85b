// Package logger provides structured logging for the bot, built on slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/edgard/tgbotsdk/internal/entity"
	"github.com/edgard/tgbotsdk/internal/events"
)

// NewLogger creates a new slog Logger writing to stdout with the specified
// level and format. If jsonOutput is true, logs are formatted as JSON,
// otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	return newLogger(os.Stdout, levelStr, jsonOutput)
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// UpdateListener returns an update listener that logs every received
// update with its type, chat, sender and a preview of its text.
func UpdateListener(log *slog.Logger) events.Listener {
	return func(ctx context.Context, update *entity.Update) error {
		attrs := []any{
			"update_id", update.ID(),
			"update_type", string(update.Type()),
		}

		if chat := update.Chat(); chat != nil {
			attrs = append(attrs, "chat_id", chat.ID())
		}
		if from := update.From(); from != nil {
			attrs = append(attrs, "user_id", from.ID())
		}

		switch {
		case update.CallbackQuery() != nil:
			attrs = append(attrs, "data", truncateString(update.CallbackQuery().Data(), 50))
		case update.Message() != nil:
			msg := update.Message()
			attrs = append(attrs, "message_id", msg.ID())
			if text := msg.Text(); text != "" {
				attrs = append(attrs, "text_preview", truncateString(text, 50))
			}
		}

		log.InfoContext(ctx, "Received update", attrs...)
		return nil
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
