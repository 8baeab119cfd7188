package main

import (
	"context"
	"strings"
	"sync"

	"github.com/go-telegram/bot/models"
	"github.com/liushuangls/go-anthropic/v2"

	tgdispatch "github.com/HugeFrog24/go-telegram-dispatch"
)

const defaultSystemPrompt = "You are a helpful AI assistant. Format replies for Telegram using only <b>, <i>, <u> and <a> tags."

// messageDispatcher is the part of *tgdispatch.Dispatcher the bot uses.
type messageDispatcher interface {
	Dispatch(ctx context.Context, msg tgdispatch.OutboundMessage) ([]tgdispatch.Receipt, error)
}

// typingSender is the part of *tgdispatch.Client the bot uses.
type typingSender interface {
	SendTyping(ctx context.Context, chatID any) error
}

type Bot struct {
	config     BotConfig
	typing     typingSender
	dispatcher messageDispatcher
	responder  Responder
	clock      tgdispatch.Clock

	mu       sync.Mutex
	memories map[int64]*ChatMemory
}

func NewBot(config BotConfig, typing typingSender, dispatcher messageDispatcher, responder Responder, clock tgdispatch.Clock) *Bot {
	return &Bot{
		config:     config,
		typing:     typing,
		dispatcher: dispatcher,
		responder:  responder,
		clock:      clock,
		memories:   make(map[int64]*ChatMemory),
	}
}

func (b *Bot) systemPrompt() string {
	if b.config.SystemPrompt != "" {
		return b.config.SystemPrompt
	}
	return defaultSystemPrompt
}

// chatMemory returns the memory of chatID, creating it on first use.
// MemorySize counts exchanges, so it holds twice as many turns.
func (b *Bot) chatMemory(chatID int64) *ChatMemory {
	b.mu.Lock()
	defer b.mu.Unlock()

	memory, ok := b.memories[chatID]
	if !ok {
		memory = newChatMemory(b.config.MemorySize * 2)
		b.memories[chatID] = memory
	}
	return memory
}

func (b *Bot) userTurn(message *models.Message) Message {
	turn := Message{
		ChatID:    message.Chat.ID,
		Text:      message.Text,
		Timestamp: b.clock.Now(),
		IsUser:    true,
	}
	if message.From != nil {
		turn.UserID = message.From.ID
		turn.Username = message.From.Username
	}
	return turn
}

func (b *Bot) assistantTurn(chatID int64, text string) Message {
	return Message{
		ChatID:    chatID,
		Username:  "AI Assistant",
		Text:      text,
		Timestamp: b.clock.Now(),
	}
}

// contextMessages turns remembered history into an Anthropic conversation.
// The result opens with a user turn and alternates roles: leading assistant
// turns are dropped, blank turns skipped and consecutive turns of one role
// merged. Consecutive user turns appear whenever a reply was not delivered.
func contextMessages(history []Message) []anthropic.Message {
	type turn struct {
		isUser bool
		texts  []string
	}

	var turns []turn
	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}

		switch {
		case len(turns) == 0 && !msg.IsUser:
			continue
		case len(turns) > 0 && turns[len(turns)-1].isUser == msg.IsUser:
			last := &turns[len(turns)-1]
			last.texts = append(last.texts, text)
		default:
			turns = append(turns, turn{isUser: msg.IsUser, texts: []string{text}})
		}
	}

	messages := make([]anthropic.Message, 0, len(turns))
	for _, t := range turns {
		role := anthropic.RoleUser
		if !t.isUser {
			role = anthropic.RoleAssistant
		}
		messages = append(messages, anthropic.Message{
			Role: role,
			Content: []anthropic.MessageContent{
				anthropic.NewTextMessageContent(strings.Join(t.texts, "\n\n")),
			},
		})
	}
	return messages
}
