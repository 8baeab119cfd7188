package tgdispatch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// chatLimiter paces outbound calls per chat. A nil *chatLimiter never waits.
type chatLimiter struct {
	limit    rate.Limit
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

func newChatLimiter(perSecond float64) *chatLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &chatLimiter{
		limit:    rate.Limit(perSecond),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *chatLimiter) get(chatID any) *rate.Limiter {
	key := fmt.Sprint(chatID)

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.limit, 1)
		l.limiters[key] = limiter
	}
	return limiter
}

// wait blocks until chatID may receive another message or ctx is done.
func (l *chatLimiter) wait(ctx context.Context, chatID any) error {
	if l == nil {
		return nil
	}
	return l.get(chatID).Wait(ctx)
}
