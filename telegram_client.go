// telegram_client.go
package tgdispatch

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramClient defines the methods the Dispatcher requires from a Bot API client.
type TelegramClient interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}

// UpdateSource defines the long-poll method the Poller requires. Unlike
// GetUpdates it must report HTTP status failures as errors so the Poller can
// back off.
type UpdateSource interface {
	FetchUpdates(ctx context.Context, offset int64) ([]models.Update, error)
}

// Compile-time interface guards.
var (
	_ TelegramClient = (*Client)(nil)
	_ UpdateSource   = (*Client)(nil)
)
