// Package bot exposes the product scanner as a Telegram bot. Each user gets a
// scanner session fed by the photos they send.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-product-scanner/config"
	"github.com/raine/telegram-product-scanner/internal/app"
	"github.com/raine/telegram-product-scanner/internal/scanner"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg         BotAPI
	state      BotState
	cfg        *config.Config
	analyzer   scanner.Analyzer
	maxSide    int
	downloader *ImageDownloader

	scanHandler *ScanHandler
}

// NewBot creates a new Bot instance.
func NewBot(tg BotAPI, analyzer scanner.Analyzer, cfg *config.Config) *Bot {
	bot := &Bot{
		tg:         tg,
		cfg:        cfg,
		analyzer:   analyzer,
		maxSide:    cfg.ImageMaxSide,
		downloader: NewImageDownloader(),
	}

	bot.state = bot.NewBotState()
	bot.scanHandler = NewScanHandler(tg, bot.downloader)

	return bot
}

// Shutdown stops all session workers and closes their scanners.
func (b *Bot) Shutdown() {
	b.state.Shutdown()
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like handleUpdate but waits for message processing to complete.
// Used in tests where we need synchronous behavior.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// dispatchUpdate routes updates to the appropriate session worker.
// If sync is true, it waits for message processing to complete.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64

	// Determine user ID from the update
	if update.CallbackQuery != nil {
		userId = update.CallbackQuery.From.ID
	} else if update.Message != nil && update.Message.From != nil {
		userId = update.Message.From.ID
	} else {
		return
	}

	// MUST be before getUserSession to prevent memory exhaustion from random user IDs
	if !b.cfg.IsUserAllowed(userId) {
		log.Debug().Int64("userId", userId).Msg("dropping update from user not on allow-list")
		return
	}

	session := b.state.getUserSession(userId)

	// Helper to send sync or async based on flag
	send := func(msg SessionMessage) {
		if sync {
			session.SendSync(msg)
		} else {
			session.Send(msg)
		}
	}

	// Dispatch to session worker based on update type
	if update.CallbackQuery != nil {
		send(SessionMessage{
			Type:          "callback",
			Ctx:           ctx,
			CallbackQuery: update.CallbackQuery,
		})
		return
	}

	log.Info().Str("text", update.Message.Text).Int("photos", len(update.Message.Photo)).Msg("got message")

	if len(update.Message.Photo) > 0 {
		send(SessionMessage{
			Type:    "photo",
			Ctx:     ctx,
			Message: update.Message,
		})
	} else {
		send(SessionMessage{
			Type:    "text",
			Ctx:     ctx,
			Message: update.Message,
		})
	}
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "callback":
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case "photo":
		b.scanHandler.HandlePhoto(ctx, session, msg.Message)
	case "text":
		b.handleCommand(ctx, session, msg.Message)
	case "analysis_complete":
		b.scanHandler.HandleAnalysisComplete(session, msg.Analysis)
	}
}

// handleCommand processes bot commands.
// Called from session worker - no locking needed.
func (b *Bot) handleCommand(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	command, _ := parseCommand(message.Text)
	switch command {
	case "/scan":
		b.scanHandler.HandleScanCommand(ctx, session)
	case "/close":
		b.scanHandler.HandleClose(session)
	case "/version":
		session.reply(MsgVersionInfo, app.Version(), app.Commit(), app.BuildDate())
	default:
		session.reply(MsgStart)
	}
}

// handleCallbackQuery handles inline keyboard button presses.
// Called from session worker - no locking needed.
func (b *Bot) handleCallbackQuery(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.tg.Request(callback); err != nil {
		log.Debug().Err(err).Msg("failed to answer callback query")
	}

	if strings.HasPrefix(query.Data, "scan:") || strings.HasPrefix(query.Data, "tab:") {
		b.scanHandler.HandleCallback(ctx, session, query)
	} else {
		log.Warn().Str("data", query.Data).Msg("unknown callback data")
	}
}
