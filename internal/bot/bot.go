// Package bot is the transport boundary: it receives Telegram updates,
// resolves the caller, enforces the admin gate and routes into the core
// components. The core returns outcome values; everything user-facing is
// rendered here.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/mediakeep/mediakeep/internal/admins"
	"github.com/mediakeep/mediakeep/internal/catalog"
	"github.com/mediakeep/mediakeep/internal/confirm"
	"github.com/mediakeep/mediakeep/internal/stats"
)

// API is the slice of the Telegram client the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type Dependencies struct {
	API      API
	Username string
	Registry *admins.Registry
	Catalog  *catalog.Catalog
	Stats    *stats.Aggregator
	Confirm  *confirm.Coordinator
}

type Bot struct {
	api      API
	username string
	registry *admins.Registry
	catalog  *catalog.Catalog
	stats    *stats.Aggregator
	confirm  *confirm.Coordinator
}

func New(deps Dependencies) *Bot {
	return &Bot{
		api:      deps.API,
		username: deps.Username,
		registry: deps.Registry,
		catalog:  deps.Catalog,
		stats:    deps.Stats,
		confirm:  deps.Confirm,
	}
}

// Run consumes the update stream until the context is cancelled. Updates are
// independent units of work, so each one is handled on its own goroutine;
// all shared state lives in the store.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info().Str("username", b.username).Msg("Bot started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Send(edit); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}
