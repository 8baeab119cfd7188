package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tgdispatch "github.com/HugeFrog24/go-telegram-dispatch"
)

func TestMain(m *testing.M) {
	tgdispatch.SetLoggers(log.New(io.Discard, "", 0), log.New(io.Discard, "", 0))
	os.Exit(m.Run())
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, msg tgdispatch.OutboundMessage) ([]tgdispatch.Receipt, error) {
	args := m.Called(ctx, msg)
	receipts, _ := args.Get(0).([]tgdispatch.Receipt)
	return receipts, args.Error(1)
}

type mockTyping struct {
	mock.Mock
}

func (m *mockTyping) SendTyping(ctx context.Context, chatID any) error {
	return m.Called(ctx, chatID).Error(0)
}

type fakeResponder struct {
	reply    string
	err      error
	system   string
	messages []anthropic.Message
}

func (f *fakeResponder) Respond(ctx context.Context, system string, messages []anthropic.Message) (string, error) {
	f.system = system
	f.messages = messages
	return f.reply, f.err
}

func newTestBot(responder Responder) (*Bot, *mockTyping, *mockDispatcher) {
	typing := &mockTyping{}
	typing.On("SendTyping", mock.Anything, mock.Anything).Return(nil)
	dispatcher := &mockDispatcher{}
	config := BotConfig{ID: "test_bot", MemorySize: 2, Model: anthropic.ModelClaude3Dot5Sonnet20240620}
	clock := tgdispatch.NewMockClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	return NewBot(config, typing, dispatcher, responder, clock), typing, dispatcher
}

func textUpdate(chatID int64, messageID int, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   messageID,
			Chat: models.Chat{ID: chatID},
			From: &models.User{ID: 456, Username: "testuser"},
			Text: text,
		},
	}
}

func TestHandleUpdate_RepliesThroughDispatcher(t *testing.T) {
	responder := &fakeResponder{reply: "## Hello <b>there</b>"}
	b, typing, dispatcher := newTestBot(responder)

	dispatcher.On("Dispatch", mock.Anything, tgdispatch.OutboundMessage{
		ChatID:    int64(1000),
		Text:      "## Hello <b>there</b>",
		ParseMode: models.ParseModeHTML,
		ReplyTo:   &models.ReplyParameters{MessageID: 7},
	}).Return([]tgdispatch.Receipt{{MessageID: 8}}, nil).Once()

	b.handleUpdate(context.Background(), textUpdate(1000, 7, "Hi"))

	typing.AssertCalled(t, "SendTyping", mock.Anything, int64(1000))
	dispatcher.AssertExpectations(t)
	assert.Equal(t, defaultSystemPrompt, responder.system)
	require.Len(t, responder.messages, 1)
	assert.Equal(t, anthropic.RoleUser, responder.messages[0].Role)

	history := b.chatMemory(1000).Messages()
	require.Len(t, history, 2)
	assert.True(t, history[0].IsUser)
	assert.Equal(t, "testuser", history[0].Username)
	assert.Equal(t, int64(456), history[0].UserID)
	assert.False(t, history[1].IsUser)
}

func TestHandleUpdate_FallbackOnResponderError(t *testing.T) {
	b, _, dispatcher := newTestBot(&fakeResponder{err: errors.New("overloaded")})

	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(msg tgdispatch.OutboundMessage) bool {
		return msg.Text == fallbackResponse
	})).Return([]tgdispatch.Receipt{{MessageID: 1}}, nil).Once()

	b.handleUpdate(context.Background(), textUpdate(1000, 7, "Hi"))

	dispatcher.AssertExpectations(t)
	assert.Len(t, b.chatMemory(1000).Messages(), 1, "fallback replies are not remembered")
}

func TestHandleUpdate_DeliveryFailureNotRemembered(t *testing.T) {
	b, _, dispatcher := newTestBot(&fakeResponder{reply: "answer"})

	dispatcher.On("Dispatch", mock.Anything, mock.Anything).
		Return(nil, &tgdispatch.DeliveryError{Index: 0, Total: 1, Err: errors.New("chat not found")}).Once()

	b.handleUpdate(context.Background(), textUpdate(1000, 7, "Hi"))

	assert.Len(t, b.chatMemory(1000).Messages(), 1)
}

func TestHandleUpdate_IgnoresNonText(t *testing.T) {
	b, typing, dispatcher := newTestBot(&fakeResponder{reply: "answer"})

	b.handleUpdate(context.Background(), &models.Update{})
	b.handleUpdate(context.Background(), textUpdate(1000, 7, ""))

	typing.AssertNotCalled(t, "SendTyping", mock.Anything, mock.Anything)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestHandleUpdate_UndeliveredTurnsAreMerged(t *testing.T) {
	responder := &fakeResponder{reply: "answer"}
	b, _, dispatcher := newTestBot(responder)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).
		Return(nil, errors.New("network down")).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).
		Return([]tgdispatch.Receipt{{MessageID: 1}}, nil).Once()

	b.handleUpdate(context.Background(), textUpdate(1000, 7, "first"))
	b.handleUpdate(context.Background(), textUpdate(1000, 8, "second"))

	require.Len(t, responder.messages, 1)
	assert.Equal(t, anthropic.RoleUser, responder.messages[0].Role)
	assert.Equal(t, "first\n\nsecond", responder.messages[0].Content[0].GetText())
}

func TestChatMemory_KeepsMostRecent(t *testing.T) {
	b, _, _ := newTestBot(&fakeResponder{})
	memory := b.chatMemory(1)

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		memory.Add(Message{ChatID: 1, Text: text, IsUser: true})
	}

	// MemorySize counts exchanges, so the buffer holds twice as many messages.
	history := memory.Messages()
	require.Len(t, history, 4)
	assert.Equal(t, "two", history[0].Text)
	assert.Equal(t, "five", history[3].Text)
	assert.Same(t, memory, b.chatMemory(1))
}

func TestContextMessages(t *testing.T) {
	tests := []struct {
		name      string
		history   []Message
		wantRoles []string
		wantTexts []string
	}{
		{
			name:      "Alternating turns kept",
			history:   []Message{{Text: "q", IsUser: true}, {Text: "a"}, {Text: "q2", IsUser: true}},
			wantRoles: []string{"user", "assistant", "user"},
			wantTexts: []string{"q", "a", "q2"},
		},
		{
			name:      "Leading assistant turn dropped",
			history:   []Message{{Text: "old answer"}, {Text: "q", IsUser: true}},
			wantRoles: []string{"user"},
			wantTexts: []string{"q"},
		},
		{
			name:      "Blank turns skipped and neighbours merged",
			history:   []Message{{Text: "q", IsUser: true}, {Text: "   "}, {Text: " more ", IsUser: true}, {Text: "a"}},
			wantRoles: []string{"user", "assistant"},
			wantTexts: []string{"q\n\nmore", "a"},
		},
		{
			name:    "Empty history",
			history: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := contextMessages(tt.history)
			require.Len(t, messages, len(tt.wantRoles))
			for i, msg := range messages {
				assert.Equal(t, tt.wantRoles[i], string(msg.Role))
				assert.Equal(t, tt.wantTexts[i], msg.Content[0].GetText())
			}
		})
	}
}
