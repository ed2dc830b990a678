package reminder

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"wellbeing-reminder-backend/config"
	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/store"
)

const settingsCacheKey = "notification_settings"

// SettingsProvider serves the notification settings row through a short
// TTL cache. Every scheduling pass and every delivery reads settings, so
// the row would otherwise be the hottest query in the system.
type SettingsProvider struct {
	store store.Store
	cache *cache.Cache
	ttl   time.Duration
}

// NewSettingsProvider creates a provider with the given cache TTL.
func NewSettingsProvider(s store.Store, ttl time.Duration) *SettingsProvider {
	return &SettingsProvider{
		store: s,
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get returns the current settings, from cache when fresh.
func (p *SettingsProvider) Get(ctx context.Context) (*model.NotificationSetting, error) {
	if v, found := p.cache.Get(settingsCacheKey); found {
		return v.(*model.NotificationSetting), nil
	}
	s, err := p.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.Set(settingsCacheKey, s, p.ttl)
	return s, nil
}

// Invalidate drops the cached row. Called after a settings update.
func (p *SettingsProvider) Invalidate() {
	p.cache.Delete(settingsCacheKey)
}

// Cooldown returns the configured resend cooldown as a duration.
func (p *SettingsProvider) Cooldown(ctx context.Context) (time.Duration, error) {
	s, err := p.Get(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(s.ResendCooldownHours) * time.Hour, nil
}

// SeedFromConfig converts config defaults into a settings row seed.
func SeedFromConfig(n *config.NotificationConfig) *model.NotificationSetting {
	return &model.NotificationSetting{
		InactivityCron:          n.InactivityCron,
		MissingMoodCron:         n.MissingMoodCron,
		PendingSurveyCron:       n.PendingSurveyCron,
		UnreadArticleCron:       n.UnreadArticleCron,
		GlobalInactivityCron:    n.GlobalInactivityCron,
		InactivityThresholdDays: n.InactivityThresholdDays,
		MoodReminderHour:        n.MoodReminderHour,
		SurveyReminderDays:      n.SurveyReminderDays,
		ArticleReminderDays:     n.ArticleReminderDays,
		ResendCooldownHours:     n.ResendCooldownHours,
		PageSize:                n.PageSize,
		PageDelayMs:             n.PageDelayMs,
		BroadcastBatchSize:      n.BroadcastBatchSize,
	}
}
