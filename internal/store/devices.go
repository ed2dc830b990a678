package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"wellbeing-reminder-backend/internal/model"
)

// UpsertRegistration creates or refreshes a device registration keyed by
// (user, token). A re-registered token is reactivated in place.
func (s *gormStore) UpsertRegistration(ctx context.Context, userID int64, token string, platform model.Platform) error {
	reg := model.DeviceRegistration{
		UserID:   userID,
		Token:    token,
		Platform: platform,
		IsActive: true,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"platform", "is_active", "updated_at"}),
	}).Create(&reg).Error
	if err != nil {
		return fmt.Errorf("upsert registration for user %d: %w", userID, err)
	}
	return nil
}

// RemoveRegistration deletes a registration by token, regardless of owner.
// Deleting an unknown token is a no-op.
func (s *gormStore) RemoveRegistration(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.DeviceRegistration{}).Error
}

// ActiveRegistrations returns the active registrations for one user.
func (s *gormStore) ActiveRegistrations(ctx context.Context, userID int64) ([]model.DeviceRegistration, error) {
	var regs []model.DeviceRegistration
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id ASC").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("fetch registrations for user %d: %w", userID, err)
	}
	return regs, nil
}

// DeleteRegistrations removes the given tokens for a user. Idempotent:
// tokens already gone are skipped silently, which makes concurrent
// delivery workers for the same user safe.
func (s *gormStore) DeleteRegistrations(ctx context.Context, userID int64, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("user_id = ? AND token IN ?", userID, tokens).
		Delete(&model.DeviceRegistration{}).Error
}

// TouchRegistrations refreshes last_used_at on the given tokens.
func (s *gormStore) TouchRegistrations(ctx context.Context, userID int64, tokens []string, usedAt time.Time) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.DeviceRegistration{}).
		Where("user_id = ? AND token IN ?", userID, tokens).
		Update("last_used_at", usedAt).Error
}

// ActiveOwnersPage returns one page of distinct user ids that own at
// least one active registration, ordered ascending and strictly greater
// than afterUserID. A page shorter than limit is the last page.
func (s *gormStore) ActiveOwnersPage(ctx context.Context, afterUserID int64, limit int) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&model.DeviceRegistration{}).
		Distinct("user_id").
		Where("is_active = ? AND user_id > ?", true, afterUserID).
		Order("user_id ASC").
		Limit(limit).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("page active device owners after %d: %w", afterUserID, err)
	}
	return ids, nil
}

// ListRegistrations returns a page of registrations plus the total count,
// for the admin listing endpoints.
func (s *gormStore) ListRegistrations(ctx context.Context, offset, limit int) ([]model.DeviceRegistration, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.DeviceRegistration{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var regs []model.DeviceRegistration
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&regs).Error
	if err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}
