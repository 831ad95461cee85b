// Package main contains the entrypoint for the sample bot built on the SDK.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/bot"
	"github.com/edgard/tgbotsdk/internal/bot/handlers"
	"github.com/edgard/tgbotsdk/internal/bot/tasks"
	"github.com/edgard/tgbotsdk/internal/command"
	"github.com/edgard/tgbotsdk/internal/config"
	"github.com/edgard/tgbotsdk/internal/container"
	"github.com/edgard/tgbotsdk/internal/conversation"
	"github.com/edgard/tgbotsdk/internal/database"
	"github.com/edgard/tgbotsdk/internal/dispatch"
	"github.com/edgard/tgbotsdk/internal/events"
	"github.com/edgard/tgbotsdk/internal/logger"
	"github.com/edgard/tgbotsdk/internal/resilience"
	"github.com/edgard/tgbotsdk/internal/sanitize"
	"github.com/edgard/tgbotsdk/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component (config, logger, database, Bot API client,
// commands, conversations, dispatcher, poller, scheduler), runs the bot
// until shutdown and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path, log)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db, log)
	store := database.NewStore(db, log)

	// Long polling holds the request open for polling.timeout seconds.
	httpClient := &http.Client{
		Timeout: cfg.Telegram.RequestTimeout + time.Duration(cfg.Polling.Timeout)*time.Second,
	}
	rc := cfg.Telegram.Resilience
	transport := resilience.NewTransport(
		api.NewBotAPITransport(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, httpClient),
		resilience.Config{
			MaxFailures:   rc.MaxFailures,
			ResetTimeout:  rc.ResetTimeout,
			RetryAttempts: rc.RetryAttempts,
			RetryDelay:    rc.RetryDelay,
		},
		log,
	)

	clientOpts := []api.Option{api.WithLogger(log), api.WithOffsetStore(store)}
	if cfg.Telegram.AsyncRequests {
		clientOpts = append(clientOpts, api.WithAsync(cfg.Telegram.MaxAsync))
	}
	client := api.NewClient(transport, clientOpts...)

	username := cfg.Telegram.BotUsername
	if username == "" {
		me, err := client.GetMe(ctx)
		if err != nil {
			log.Error("Failed to get bot info", "error", err)
			return 1
		}
		username = me.Username()
		cfg.Telegram.BotUsername = username
		log.Info("Retrieved bot info", "bot_id", me.ID(), "bot_username", username)
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, log)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}
	if err := telegram.PreparePolling(ctx, tg, cfg.Polling.DropPendingUpdates, log); err != nil {
		log.Error("Failed to prepare long polling", "error", err)
		return 1
	}

	resolver := container.NewDig()
	registry := command.NewRegistry(
		command.WithPrefix(cfg.Commands.Prefix),
		command.WithBotUsername(username),
		command.WithResolver(resolver),
		command.WithRegistryLogger(log),
	)
	engine := conversation.NewEngine(store, client,
		conversation.WithResolver(resolver),
		conversation.WithLogger(log),
	)
	hDeps := handlers.HandlerDeps{
		Logger:        log,
		Config:        cfg,
		Conversations: engine,
		Sanitizer:     sanitize.NewTelegramPolicy(),
	}
	if err := handlers.Install(ctx, hDeps, resolver, registry, engine); err != nil {
		log.Error("Failed to register handlers", "error", err)
		return 1
	}
	if err := telegram.PublishCommands(ctx, tg, registry.Descriptors(), log); err != nil {
		// The menu is cosmetic: commands still work without it.
		log.Warn("Failed to publish bot commands", "error", err)
	}

	emitter := events.NewEmitter()
	emitter.On(events.EventUpdateReceived, logger.UpdateListener(log))

	dispatcher := dispatch.New(
		dispatch.WithCommands(command.NewBus(registry, client,
			command.WithConversationStarter(engine),
			command.WithBusLogger(log),
		)),
		dispatch.WithConversations(engine),
		dispatch.WithEmitter(emitter),
		dispatch.WithConfirmer(client),
		dispatch.WithLogger(log),
	)

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	poller := bot.NewPoller(client, dispatcher, cfg.Polling, log)
	app := bot.NewBot(log, poller, sched, client)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
