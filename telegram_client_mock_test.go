package tgdispatch

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/mock"
)

// MockTelegramClient is a mock implementation of TelegramClient for testing.
type MockTelegramClient struct {
	mock.Mock
	SendMessageFunc     func(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageTextFunc func(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}

// SendMessage mocks sending a message.
func (m *MockTelegramClient) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, params)
	}
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*models.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

// EditMessageText mocks editing a message.
func (m *MockTelegramClient) EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	if m.EditMessageTextFunc != nil {
		return m.EditMessageTextFunc(ctx, params)
	}
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*models.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUpdateSource is a mock implementation of UpdateSource for testing.
type MockUpdateSource struct {
	mock.Mock
	FetchUpdatesFunc func(ctx context.Context, offset int64) ([]models.Update, error)
}

// FetchUpdates mocks one long-poll request.
func (m *MockUpdateSource) FetchUpdates(ctx context.Context, offset int64) ([]models.Update, error) {
	if m.FetchUpdatesFunc != nil {
		return m.FetchUpdatesFunc(ctx, offset)
	}
	args := m.Called(ctx, offset)
	if updates, ok := args.Get(0).([]models.Update); ok {
		return updates, args.Error(1)
	}
	return nil, args.Error(1)
}
