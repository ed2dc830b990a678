package model

import "time"

// NotificationSetting is the single operator-tunable settings row for the
// reminder pipeline. Seeded from config defaults on first run; the row is
// authoritative afterwards.
type NotificationSetting struct {
	ID int64 `gorm:"primaryKey"`

	InactivityCron       string `gorm:"size:64;not null" json:"inactivity_cron"`
	MissingMoodCron      string `gorm:"size:64;not null" json:"missing_mood_cron"`
	PendingSurveyCron    string `gorm:"size:64;not null" json:"pending_survey_cron"`
	UnreadArticleCron    string `gorm:"size:64;not null" json:"unread_article_cron"`
	GlobalInactivityCron string `gorm:"size:64;not null" json:"global_inactivity_cron"`

	InactivityThresholdDays int `gorm:"not null" json:"inactivity_threshold_days"`
	MoodReminderHour        int `gorm:"not null" json:"mood_reminder_hour"`
	SurveyReminderDays      int `gorm:"not null" json:"survey_reminder_days"`
	ArticleReminderDays     int `gorm:"not null" json:"article_reminder_days"`
	ResendCooldownHours     int `gorm:"not null" json:"resend_cooldown_hours"`

	PageSize           int `gorm:"not null" json:"page_size"`
	PageDelayMs        int `gorm:"not null" json:"page_delay_ms"`
	BroadcastBatchSize int `gorm:"not null" json:"broadcast_batch_size"`

	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

// CronFor returns the cron expression for a scheduled reminder kind.
func (s *NotificationSetting) CronFor(t NotificationType) string {
	switch t {
	case TypeInactivity:
		return s.InactivityCron
	case TypeMissingMood:
		return s.MissingMoodCron
	case TypePendingSurvey:
		return s.PendingSurveyCron
	case TypeUnreadArticle:
		return s.UnreadArticleCron
	case TypeGlobalInactivity:
		return s.GlobalInactivityCron
	}
	return ""
}
