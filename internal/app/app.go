// Package app wires configuration, storage, triage, reminders, and the API
// server into a running application.
package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jfarrow/healthdeck/internal/api"
	"github.com/jfarrow/healthdeck/internal/channels/telegram"
	"github.com/jfarrow/healthdeck/internal/config"
	"github.com/jfarrow/healthdeck/internal/health"
	"github.com/jfarrow/healthdeck/internal/identity"
	"github.com/jfarrow/healthdeck/internal/llm"
	"github.com/jfarrow/healthdeck/internal/metrics"
	"github.com/jfarrow/healthdeck/internal/reminders"
	"github.com/jfarrow/healthdeck/internal/triage"
)

type App struct {
	Config   *config.Config
	Store    *health.Store
	Identity *identity.Service
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Version  string

	reminderRunner *reminders.Runner
}

// New builds the application from configuration.
func New(cfg *config.Config, logger *zap.Logger, version string) (*App, error) {
	store, err := health.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	ident, err := identity.NewService(store.DB(), cfg.Security.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize identity: %w", err)
	}

	return &App{
		Config:   cfg,
		Store:    store,
		Identity: ident,
		Metrics:  metrics.New(),
		Logger:   logger,
		Version:  version,
	}, nil
}

// RunServer starts the API server and the reminder runner, then blocks
// until interrupted.
func (app *App) RunServer() {
	provider, err := app.Config.DefaultProvider()
	if err != nil {
		app.Logger.Fatal("Failed to get analysis provider", zap.Error(err))
	}
	llmClient := llm.NewClient(provider)

	classifier := triage.NewClassifier(llmClient, app.Store, app.Logger, app.Config.LLM.RequestsPerMinute)

	server := api.New(app.Config, app.Store, app.Identity, classifier, app.Metrics, app.Logger)

	if app.Config.Reminders.Enabled {
		var notifier reminders.Notifier

		bot, err := telegram.NewBot(app.Config.Channels.Telegram, app.Logger)
		if err != nil {
			app.Logger.Error("Failed to create Telegram bot", zap.Error(err))
		}
		if bot != nil && bot.Enabled() {
			notifier = bot
		} else {
			notifier = &reminders.LogNotifier{Logger: app.Logger}
		}

		app.reminderRunner = reminders.NewRunner(app.Store, app.Identity, notifier, app.Metrics, app.Logger)
		if err := app.reminderRunner.Start(app.Config.Reminders.CronSpec); err != nil {
			app.Logger.Error("Failed to start reminder runner", zap.Error(err))
		}
	}

	go func() {
		if err := server.Start(); err != nil {
			app.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	app.Logger.Info("Server started",
		zap.String("address", app.Config.Server.Address),
		zap.Int("port", app.Config.Server.Port),
		zap.String("url", fmt.Sprintf("http://localhost:%d", app.Config.Server.Port)),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info("Shutting down...")

	if app.reminderRunner != nil {
		app.reminderRunner.Stop()
	}

	if err := server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}
}
