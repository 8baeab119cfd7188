// Command relaybot answers Telegram messages with Anthropic replies. It
// exercises the whole tgdispatch stack: long polling with a persisted
// offset, typing indicators and segmented, sanitized delivery.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgdispatch "github.com/HugeFrog24/go-telegram-dispatch"
	"github.com/HugeFrog24/go-telegram-dispatch/store"
)

func main() {
	tgdispatch.InfoLogger.Println("Starting Telegram relay bot")

	cfg, err := tgdispatch.ConfigFromEnv()
	if err != nil {
		tgdispatch.ErrorLogger.Fatalf("Error loading client configuration: %v", err)
	}

	configPath := os.Getenv("RELAYBOT_CONFIG")
	if configPath == "" {
		configPath = "config/relaybot.json"
	}
	botConfig, err := loadConfig(configPath)
	if err != nil {
		tgdispatch.ErrorLogger.Fatalf("Error loading configuration: %v", err)
	}

	db, err := store.Open(botConfig.DatabasePath)
	if err != nil {
		tgdispatch.ErrorLogger.Fatalf("Error initializing database: %v", err)
	}

	client, err := tgdispatch.NewClient(cfg)
	if err != nil {
		tgdispatch.ErrorLogger.Fatalf("Error creating Telegram client: %v", err)
	}
	defer client.Close()

	dispatcher := tgdispatch.NewDispatcherFromConfig(client, cfg)
	responder := newAnthropicResponder(os.Getenv("ANTHROPIC_API_KEY"), botConfig)
	bot := NewBot(botConfig, client, dispatcher, responder, tgdispatch.RealClock{})

	poller := tgdispatch.NewPoller(client, bot.handleUpdate, store.NewOffsetStore(db, botConfig.ID))

	// Set up context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tgdispatch.InfoLogger.Printf("Polling updates for bot %s...", botConfig.ID)
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		tgdispatch.ErrorLogger.Printf("Poller stopped: %v", err)
	}

	tgdispatch.InfoLogger.Println("Relay bot stopped. Exiting application.")
}
