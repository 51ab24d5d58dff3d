// Command telegram-product-scanner runs the product scanner as a Telegram
// bot: users send a photo of a product label and get back the health pros
// and cons and the environmental impact of the product.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-product-scanner/config"
	"github.com/raine/telegram-product-scanner/internal/app"
	"github.com/raine/telegram-product-scanner/internal/bot"
	"github.com/raine/telegram-product-scanner/internal/logging"
	"github.com/raine/telegram-product-scanner/internal/scanner"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Try to load existing .env file
	config.LoadEnvFile()
	cfg := config.Load()

	cleanup, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	defer cleanup()
	if err != nil {
		log.Warn().Err(err).Msg("logging setup incomplete")
	}

	if missing := cfg.Validate(true); len(missing) > 0 {
		log.Error().Strs("missing", missing).Str("envFile", config.EnvFilePath()).Msg("missing or invalid config")
		cleanup()
		os.Exit(1)
	}

	log.Info().
		Str("version", app.Version()).
		Str("ocr", cfg.OCRBackend).
		Str("llm", cfg.LLMBackend).
		Int("allowedUsers", len(cfg.AllowedUserIDs)).
		Msg("starting")

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	// Register bot commands for Telegram's command menu
	bot.RegisterCommands(tg)

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipeline, err := app.NewPipeline(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analysis pipeline")
	}

	g, ctx := errgroup.WithContext(ctx)

	// Run bot update loop
	g.Go(func() error {
		return runBot(ctx, tg, pipeline, cfg)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, analyzer scanner.Analyzer, cfg *config.Config) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	b := bot.NewBot(tg, analyzer, cfg)
	defer b.Shutdown()

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}
