package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wellbeing-reminder-backend/internal/model"
)

// Store defines the interface for device registry, tracker and settings
// database operations.
type Store interface {
	// Device registry.
	UpsertRegistration(ctx context.Context, userID int64, token string, platform model.Platform) error
	RemoveRegistration(ctx context.Context, token string) error
	ActiveRegistrations(ctx context.Context, userID int64) ([]model.DeviceRegistration, error)
	DeleteRegistrations(ctx context.Context, userID int64, tokens []string) error
	TouchRegistrations(ctx context.Context, userID int64, tokens []string, usedAt time.Time) error
	ActiveOwnersPage(ctx context.Context, afterUserID int64, limit int) ([]int64, error)
	ListRegistrations(ctx context.Context, offset, limit int) ([]model.DeviceRegistration, int64, error)

	// Notification tracker.
	LastSent(ctx context.Context, userID int64, t model.NotificationType) (*time.Time, error)
	MarkSent(ctx context.Context, userID int64, t model.NotificationType, sentAt time.Time) error
	ListTrackers(ctx context.Context, offset, limit int) ([]model.NotificationTracker, int64, error)

	// Settings row.
	GetSettings(ctx context.Context) (*model.NotificationSetting, error)
	SeedSettings(ctx context.Context, seed *model.NotificationSetting) error
	UpdateSettings(ctx context.Context, s *model.NotificationSetting) error

	// DB exposes the underlying handle for read-only aggregate queries.
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}
