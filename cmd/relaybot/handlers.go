package main

import (
	"context"
	"errors"

	"github.com/go-telegram/bot/models"

	tgdispatch "github.com/HugeFrog24/go-telegram-dispatch"
)

const fallbackResponse = "I'm sorry, I'm having trouble processing your request right now."

func (b *Bot) handleUpdate(ctx context.Context, update *models.Update) {
	message := update.Message
	if message == nil {
		// No message to process
		return
	}

	chatID := message.Chat.ID
	text := message.Text
	if text == "" {
		tgdispatch.InfoLogger.Printf("Received a non-text message in chat %d", chatID)
		return
	}

	if err := b.typing.SendTyping(ctx, chatID); err != nil {
		tgdispatch.ErrorLogger.Printf("Error sending typing status to chat %d: %v", chatID, err)
	}

	memory := b.chatMemory(chatID)
	memory.Add(b.userTurn(message))

	response, err := b.responder.Respond(ctx, b.systemPrompt(), contextMessages(memory.Messages()))
	if err != nil {
		tgdispatch.ErrorLogger.Printf("Error getting Anthropic response: %v", err)
		response = fallbackResponse
	}

	_, err = b.dispatcher.Dispatch(ctx, tgdispatch.OutboundMessage{
		ChatID:    chatID,
		Text:      response,
		ParseMode: models.ParseModeHTML,
		ReplyTo:   &models.ReplyParameters{MessageID: message.ID},
	})
	if err != nil {
		var deliveryErr *tgdispatch.DeliveryError
		if errors.As(err, &deliveryErr) && len(deliveryErr.Delivered) > 0 {
			tgdispatch.ErrorLogger.Printf("Reply to chat %d only partially delivered (%d of %d segments): %v",
				chatID, len(deliveryErr.Delivered), deliveryErr.Total, err)
		} else {
			tgdispatch.ErrorLogger.Printf("Error sending response to chat %d: %v", chatID, err)
		}
		return
	}

	if response != fallbackResponse {
		memory.Add(b.assistantTurn(chatID, response))
	}
}
