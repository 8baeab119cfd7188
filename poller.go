package tgdispatch

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-telegram/bot/models"
)

const (
	maxConsecutivePollingErrors = 5
	errorPauseDuration          = 30 * time.Second
)

// UpdateHandler processes one update. Updates are handed over one at a time
// in the order the server returned them.
type UpdateHandler func(ctx context.Context, update *models.Update)

// OffsetStore persists the next update offset between runs.
type OffsetStore interface {
	LoadOffset(ctx context.Context) (int64, error)
	SaveOffset(ctx context.Context, offset int64) error
}

// MemoryOffsetStore keeps the offset in memory only.
type MemoryOffsetStore struct {
	mu     sync.Mutex
	offset int64
}

func (s *MemoryOffsetStore) LoadOffset(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, nil
}

func (s *MemoryOffsetStore) SaveOffset(_ context.Context, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
	return nil
}

// Poller runs the getUpdates loop, issuing one fetch at a time.
type Poller struct {
	source     UpdateSource
	handler    UpdateHandler
	store      OffsetStore
	backOff    backoff.BackOff
	errorPause time.Duration
}

// NewPoller creates a Poller. A nil store keeps the offset in memory.
func NewPoller(source UpdateSource, handler UpdateHandler, store OffsetStore) *Poller {
	if store == nil {
		store = &MemoryOffsetStore{}
	}
	return &Poller{
		source:     source,
		handler:    handler,
		store:      store,
		backOff:    newPollBackOff(),
		errorPause: errorPauseDuration,
	}
}

// newPollBackOff spaces out fetches after failures: 1s, growing up to the
// error pause.
func newPollBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = errorPauseDuration
	return b
}

// Run polls until ctx is cancelled and returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	offset, err := p.store.LoadOffset(ctx)
	if err != nil {
		ErrorLogger.Printf("Error loading update offset, starting from 0: %v", err)
		offset = 0
	}

	consecutiveErrors := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.source.FetchUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			consecutiveErrors++
			ErrorLogger.Printf("Polling getUpdates failed (%d consecutive): %v", consecutiveErrors, err)

			wait := p.backOff.NextBackOff()
			if consecutiveErrors >= maxConsecutivePollingErrors {
				InfoLogger.Printf("Polling paused for %s after consecutive errors", p.errorPause)
				wait = p.errorPause
				consecutiveErrors = 0
			}
			if err := sleepContext(ctx, wait); err != nil {
				return err
			}
			continue
		}
		consecutiveErrors = 0
		p.backOff.Reset()

		for i := range updates {
			p.handler(ctx, &updates[i])
			offset = updates[i].ID + 1
		}
		if len(updates) > 0 {
			if err := p.store.SaveOffset(ctx, offset); err != nil {
				ErrorLogger.Printf("Error saving update offset %d: %v", offset, err)
			}
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
