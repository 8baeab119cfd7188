package main

import (
	"sync"
	"time"
)

// Message is one turn of a chat kept in memory.
type Message struct {
	ChatID    int64
	UserID    int64
	Username  string
	Text      string
	Timestamp time.Time
	IsUser    bool
}

// ChatMemory holds the most recent turns of one chat. It is safe for
// concurrent use.
type ChatMemory struct {
	mu       sync.Mutex
	messages []Message
	limit    int
}

func newChatMemory(limit int) *ChatMemory {
	return &ChatMemory{limit: limit}
}

// Add appends msg and forgets the oldest turns beyond the limit.
func (m *ChatMemory) Add(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)
	if over := len(m.messages) - m.limit; m.limit > 0 && over > 0 {
		m.messages = append([]Message(nil), m.messages[over:]...)
	}
}

// Messages returns a copy of the remembered turns, oldest first.
func (m *ChatMemory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}
