package tgdispatch

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Dispatcher delivers OutboundMessages: it sanitizes the text, splits it
// into segments and sends the segments one after another.
type Dispatcher struct {
	client           TelegramClient
	clock            Clock
	limiter          *chatLimiter
	maxSegmentLength int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock sets the clock used to stamp receipts.
func WithClock(clock Clock) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithMaxSegmentLength overrides the segment size.
func WithMaxSegmentLength(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxSegmentLength = n
	}
}

// WithMessagesPerSecond paces delivery to each chat. Zero disables pacing.
func WithMessagesPerSecond(perSecond float64) DispatcherOption {
	return func(d *Dispatcher) {
		d.limiter = newChatLimiter(perSecond)
	}
}

// NewDispatcher creates a Dispatcher sending through client.
func NewDispatcher(client TelegramClient, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		client:           client,
		clock:            RealClock{},
		maxSegmentLength: DefaultMaxSegmentLength,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDispatcherFromConfig creates a Dispatcher using the segment size and
// pacing from cfg.
func NewDispatcherFromConfig(client TelegramClient, cfg Config, opts ...DispatcherOption) *Dispatcher {
	cfg.defaults()
	base := []DispatcherOption{
		WithMaxSegmentLength(cfg.MaxSegmentLength),
		WithMessagesPerSecond(cfg.MessagesPerSecond),
	}
	return NewDispatcher(client, append(base, opts...)...)
}

// Dispatch delivers msg and returns one receipt per delivered segment.
//
// Segments are sent strictly in order and the first failure aborts the
// rest. Segments sent before the failure stay in the chat; the returned
// *DeliveryError lists them.
//
// When msg.MessageID is set every segment edits that same message, so
// edits are only meaningful for text that fits into one segment.
func (d *Dispatcher) Dispatch(ctx context.Context, msg OutboundMessage) ([]Receipt, error) {
	text := Sanitize(msg.Text)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	segments := Segment(text, d.maxSegmentLength)
	if msg.MessageID != 0 && len(segments) > 1 {
		InfoLogger.Printf("Warning: edit of message %d split into %d segments; all of them target the same message",
			msg.MessageID, len(segments))
	}

	receipts := make([]Receipt, 0, len(segments))
	for i, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		if err := d.limiter.wait(ctx, msg.ChatID); err != nil {
			return receipts, &DeliveryError{Index: i, Total: len(segments), Delivered: receipts, Err: err}
		}

		sent, err := d.deliver(ctx, msg, segment)
		if err != nil {
			ErrorLogger.Printf("Error delivering segment %d/%d to chat %v: %v", i+1, len(segments), msg.ChatID, err)
			return receipts, &DeliveryError{Index: i, Total: len(segments), Delivered: receipts, Err: err}
		}

		receipt := Receipt{Index: i, SentAt: d.clock.Now()}
		if sent != nil {
			receipt.MessageID = sent.ID
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg OutboundMessage, text string) (*models.Message, error) {
	preview := msg.LinkPreview
	if preview == nil {
		preview = &models.LinkPreviewOptions{IsDisabled: bot.True()}
	}

	if msg.MessageID == 0 {
		return d.client.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:             msg.ChatID,
			Text:               text,
			ParseMode:          msg.ParseMode,
			ReplyMarkup:        msg.ReplyMarkup,
			ReplyParameters:    msg.ReplyTo,
			LinkPreviewOptions: preview,
		})
	}

	return d.client.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:             msg.ChatID,
		MessageID:          msg.MessageID,
		Text:               text,
		ParseMode:          msg.ParseMode,
		ReplyMarkup:        msg.ReplyMarkup,
		LinkPreviewOptions: preview,
	})
}
