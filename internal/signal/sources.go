package signal

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wellbeing-reminder-backend/internal/model"
)

// AccountTimes carries the account creation and last profile update
// timestamps for one user.
type AccountTimes struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sources provides bulk read-only access to the domain signals the
// eligibility evaluators consume. Every method issues a single query for
// the whole user id slice; users without a signal are simply absent from
// the returned map.
type Sources interface {
	LastActivity(ctx context.Context, userIDs []int64) (map[int64]time.Time, error)
	LastMoodEntry(ctx context.Context, userIDs []int64) (map[int64]time.Time, error)
	MoodEntryOwnersOn(ctx context.Context, userIDs []int64, day time.Time) (map[int64]bool, error)
	LastSurveySubmission(ctx context.Context, userIDs []int64) (map[int64]time.Time, error)
	LastArticleDismissal(ctx context.Context, userIDs []int64) (map[int64]time.Time, error)
	AccountTimes(ctx context.Context, userIDs []int64) (map[int64]AccountTimes, error)
}

// gormSources implements Sources over the application schema.
type gormSources struct {
	db *gorm.DB
}

// NewGormSources creates a gorm-backed signal source.
func NewGormSources(db *gorm.DB) Sources {
	return &gormSources{db: db}
}

// LastActivity returns the most recent logged activity per user.
func (g *gormSources) LastActivity(ctx context.Context, userIDs []int64) (map[int64]time.Time, error) {
	if len(userIDs) == 0 {
		return map[int64]time.Time{}, nil
	}
	sub := g.db.Model(&model.ActivityLog{}).
		Select("MAX(id)").
		Where("user_id IN ?", userIDs).
		Group("user_id")

	var rows []model.ActivityLog
	if err := g.db.WithContext(ctx).Where("id IN (?)", sub).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("bulk fetch last activity: %w", err)
	}

	out := make(map[int64]time.Time, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.CreatedAt
	}
	return out, nil
}

// LastMoodEntry returns the most recent mood entry per user.
func (g *gormSources) LastMoodEntry(ctx context.Context, userIDs []int64) (map[int64]time.Time, error) {
	if len(userIDs) == 0 {
		return map[int64]time.Time{}, nil
	}
	sub := g.db.Model(&model.MoodEntry{}).
		Select("MAX(id)").
		Where("user_id IN ?", userIDs).
		Group("user_id")

	var rows []model.MoodEntry
	if err := g.db.WithContext(ctx).Where("id IN (?)", sub).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("bulk fetch last mood entry: %w", err)
	}

	out := make(map[int64]time.Time, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.CreatedAt
	}
	return out, nil
}

// MoodEntryOwnersOn returns the subset of users that recorded a mood on
// the calendar day containing `day` (in day's location).
func (g *gormSources) MoodEntryOwnersOn(ctx context.Context, userIDs []int64, day time.Time) (map[int64]bool, error) {
	if len(userIDs) == 0 {
		return map[int64]bool{}, nil
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var ids []int64
	err := g.db.WithContext(ctx).
		Model(&model.MoodEntry{}).
		Distinct("user_id").
		Where("user_id IN ? AND created_at >= ? AND created_at < ?", userIDs, start, end).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("bulk fetch mood entry owners: %w", err)
	}

	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// LastSurveySubmission returns the most recent survey submission per user.
func (g *gormSources) LastSurveySubmission(ctx context.Context, userIDs []int64) (map[int64]time.Time, error) {
	if len(userIDs) == 0 {
		return map[int64]time.Time{}, nil
	}
	sub := g.db.Model(&model.SurveyResponse{}).
		Select("MAX(id)").
		Where("user_id IN ?", userIDs).
		Group("user_id")

	var rows []model.SurveyResponse
	if err := g.db.WithContext(ctx).Where("id IN (?)", sub).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("bulk fetch last survey submission: %w", err)
	}

	out := make(map[int64]time.Time, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.SubmittedAt
	}
	return out, nil
}

// LastArticleDismissal returns the most recent article dismissal per user.
func (g *gormSources) LastArticleDismissal(ctx context.Context, userIDs []int64) (map[int64]time.Time, error) {
	if len(userIDs) == 0 {
		return map[int64]time.Time{}, nil
	}
	sub := g.db.Model(&model.ArticleDismissal{}).
		Select("MAX(id)").
		Where("user_id IN ?", userIDs).
		Group("user_id")

	var rows []model.ArticleDismissal
	if err := g.db.WithContext(ctx).Where("id IN (?)", sub).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("bulk fetch last article dismissal: %w", err)
	}

	out := make(map[int64]time.Time, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.CreatedAt
	}
	return out, nil
}

// AccountTimes returns creation and last profile update times per user.
func (g *gormSources) AccountTimes(ctx context.Context, userIDs []int64) (map[int64]AccountTimes, error) {
	if len(userIDs) == 0 {
		return map[int64]AccountTimes{}, nil
	}
	var users []model.User
	if err := g.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("bulk fetch account times: %w", err)
	}

	out := make(map[int64]AccountTimes, len(users))
	for _, u := range users {
		out[u.ID] = AccountTimes{CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
	}
	return out, nil
}
