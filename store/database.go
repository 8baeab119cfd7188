// Package store persists long-poll state in SQLite through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	tgdispatch "github.com/HugeFrog24/go-telegram-dispatch"
)

// PollOffset is the next getUpdates offset of one bot.
type PollOffset struct {
	gorm.Model
	BotID  string `gorm:"uniqueIndex;not null"`
	Offset int64
}

// Open opens (or creates) the SQLite database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&PollOffset{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return db, nil
}

// OffsetStore keeps the poll offset of one bot in the database.
type OffsetStore struct {
	db    *gorm.DB
	botID string
}

var _ tgdispatch.OffsetStore = (*OffsetStore)(nil)

// NewOffsetStore returns the offset store of botID.
func NewOffsetStore(db *gorm.DB, botID string) *OffsetStore {
	return &OffsetStore{db: db, botID: botID}
}

// LoadOffset returns the saved offset, or 0 if none was saved yet.
func (s *OffsetStore) LoadOffset(ctx context.Context) (int64, error) {
	var row PollOffset
	err := s.db.WithContext(ctx).
		Where(PollOffset{BotID: s.botID}).
		FirstOrCreate(&row).Error
	if err != nil {
		return 0, fmt.Errorf("load offset for %s: %w", s.botID, err)
	}
	return row.Offset, nil
}

// SaveOffset stores offset as the next one to request.
func (s *OffsetStore) SaveOffset(ctx context.Context, offset int64) error {
	db := s.db.WithContext(ctx)

	var row PollOffset
	err := db.Where("bot_id = ?", s.botID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = PollOffset{BotID: s.botID, Offset: offset}
		err = db.Create(&row).Error
	} else if err == nil {
		row.Offset = offset
		err = db.Save(&row).Error
	}
	if err != nil {
		return fmt.Errorf("save offset %d for %s: %w", offset, s.botID, err)
	}
	return nil
}
