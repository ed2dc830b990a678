package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellbeing-reminder-backend/internal/model"
)

// GetSettings returns the notification settings row.
func (s *gormStore) GetSettings(ctx context.Context) (*model.NotificationSetting, error) {
	var setting model.NotificationSetting
	err := s.db.WithContext(ctx).First(&setting, 1).Error
	if err != nil {
		return nil, fmt.Errorf("fetch notification settings: %w", err)
	}
	return &setting, nil
}

// SeedSettings creates the settings row from config defaults if it does
// not exist yet. An existing row wins over the seed.
func (s *gormStore) SeedSettings(ctx context.Context, seed *model.NotificationSetting) error {
	var existing model.NotificationSetting
	err := s.db.WithContext(ctx).First(&existing, 1).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check notification settings: %w", err)
	}

	seed.ID = 1
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return fmt.Errorf("seed notification settings: %w", err)
	}
	return nil
}

// UpdateSettings replaces the settings row.
func (s *gormStore) UpdateSettings(ctx context.Context, setting *model.NotificationSetting) error {
	setting.ID = 1
	if err := s.db.WithContext(ctx).Save(setting).Error; err != nil {
		return fmt.Errorf("update notification settings: %w", err)
	}
	return nil
}
