// Package telegram handles bot bootstrap against the Bot API: clearing a
// webhook before long polling and publishing the command menu.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/tgbotsdk/internal/command"
)

// Bot API command names: 1-32 lowercase letters, digits and underscores.
var menuCommandRe = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

const maxDescriptionLen = 256

// NewTelegramBot creates a go-telegram/bot instance for setup calls.
// endpoint is the Bot API format string used by the transport, e.g.
// "https://api.telegram.org/bot%s/%s"; its server part is reused here.
func NewTelegramBot(token, endpoint string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	if server := serverURL(endpoint); server != "" {
		opts = append(opts, bot.WithServerURL(server))
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "token_prefix", tokenPrefix(token))
	return b, nil
}

// PreparePolling removes any configured webhook so getUpdates can be used.
func PreparePolling(ctx context.Context, b *bot.Bot, dropPending bool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	logger.InfoContext(ctx, "Webhook removed, long polling enabled", "drop_pending_updates", dropPending)
	return nil
}

// PublishCommands sets the bot command menu from the registry descriptors.
// Names the Bot API would reject are left out of the menu.
func PublishCommands(ctx context.Context, b *bot.Bot, descriptors []command.Descriptor, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	cmds := botCommands(descriptors)
	if len(cmds) == 0 {
		logger.WarnContext(ctx, "No commands to publish")
		return nil
	}

	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: cmds}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	logger.InfoContext(ctx, "Published bot commands", "count", len(cmds))
	return nil
}

func botCommands(descriptors []command.Descriptor) []models.BotCommand {
	cmds := make([]models.BotCommand, 0, len(descriptors))
	for _, d := range descriptors {
		name := strings.ToLower(d.Name)
		if !menuCommandRe.MatchString(name) {
			continue
		}
		desc := strings.TrimSpace(d.Description)
		if desc == "" {
			desc = name
		}
		if r := []rune(desc); len(r) > maxDescriptionLen {
			desc = string(r[:maxDescriptionLen])
		}
		cmds = append(cmds, models.BotCommand{Command: name, Description: desc})
	}
	return cmds
}

// serverURL extracts the scheme and host from a Bot API endpoint format.
func serverURL(endpoint string) string {
	if idx := strings.Index(endpoint, "/bot%s"); idx > 0 {
		return endpoint[:idx]
	}
	return ""
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}
