// Package telegram delivers reminders over Telegram.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jfarrow/healthdeck/internal/config"
)

// Bot sends reminder messages to users who have linked a Telegram chat.
type Bot struct {
	api     *tgbotapi.BotAPI
	logger  *zap.Logger
	enabled bool
	chatIDs map[string]int64 // email -> chat ID
}

// NewBot creates a Telegram notifier. A disabled or tokenless config yields
// an inert bot whose Notify always errors.
func NewBot(cfg config.TelegramConfig, logger *zap.Logger) (*Bot, error) {
	if !cfg.Enabled || cfg.BotToken == "" {
		return &Bot{enabled: false, logger: logger}, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = false

	logger.Info("Telegram reminders enabled", zap.String("account", api.Self.UserName))

	return &Bot{
		api:     api,
		logger:  logger,
		enabled: true,
		chatIDs: cfg.ChatIDs,
	}, nil
}

// Enabled reports whether the bot can deliver messages.
func (b *Bot) Enabled() bool {
	return b.enabled
}

// Notify sends message to the chat linked to email.
func (b *Bot) Notify(email, message string) error {
	if !b.enabled {
		return fmt.Errorf("telegram delivery not configured")
	}

	chatID, ok := b.chatIDs[email]
	if !ok {
		return fmt.Errorf("no telegram chat linked for %s", email)
	}

	msg := tgbotapi.NewMessage(chatID, message)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
