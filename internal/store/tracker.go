package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellbeing-reminder-backend/internal/model"
)

// LastSent returns the last successful send time for (user, type), or nil
// when the user was never notified for that kind.
func (s *gormStore) LastSent(ctx context.Context, userID int64, t model.NotificationType) (*time.Time, error) {
	var tracker model.NotificationTracker
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, t).
		First(&tracker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch tracker for user %d type %s: %w", userID, t, err)
	}
	return tracker.LastSentAt, nil
}

// MarkSent upserts the tracker row for (user, type) with the given send
// time. Called only after at least one device token accepted the push.
func (s *gormStore) MarkSent(ctx context.Context, userID int64, t model.NotificationType, sentAt time.Time) error {
	tracker := model.NotificationTracker{
		UserID:     userID,
		Type:       t,
		LastSentAt: &sentAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_sent_at", "updated_at"}),
	}).Create(&tracker).Error
	if err != nil {
		return fmt.Errorf("mark sent for user %d type %s: %w", userID, t, err)
	}
	return nil
}

// ListTrackers returns a page of tracker rows plus the total count.
func (s *gormStore) ListTrackers(ctx context.Context, offset, limit int) ([]model.NotificationTracker, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.NotificationTracker{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var trackers []model.NotificationTracker
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&trackers).Error
	if err != nil {
		return nil, 0, err
	}
	return trackers, total, nil
}
