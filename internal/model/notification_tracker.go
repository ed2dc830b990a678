package model

import "time"

// NotificationType is a reminder kind, or the operator broadcast category.
type NotificationType string

const (
	TypeInactivity       NotificationType = "inactivity"
	TypeMissingMood      NotificationType = "missing_mood"
	TypePendingSurvey    NotificationType = "pending_survey"
	TypeUnreadArticle    NotificationType = "unread_article"
	TypeGlobalInactivity NotificationType = "global_inactivity"
	TypeCustomBroadcast  NotificationType = "custom_broadcast"
)

// ScheduledTypes lists the reminder kinds driven by the scheduler, in a
// fixed order.
var ScheduledTypes = []NotificationType{
	TypeInactivity,
	TypeMissingMood,
	TypePendingSurvey,
	TypeUnreadArticle,
	TypeGlobalInactivity,
}

// ValidType reports whether s names a known notification type.
func ValidType(s string) bool {
	switch NotificationType(s) {
	case TypeInactivity, TypeMissingMood, TypePendingSurvey,
		TypeUnreadArticle, TypeGlobalInactivity, TypeCustomBroadcast:
		return true
	}
	return false
}

// NotificationTracker records the last successful send per (user, type).
// It is the sole cooldown source of truth: created lazily on the first
// successful send and updated only when at least one device token
// succeeded for that attempt.
type NotificationTracker struct {
	ID         int64            `gorm:"primaryKey"`
	UserID     int64            `gorm:"not null;uniqueIndex:idx_user_type"`
	Type       NotificationType `gorm:"size:32;not null;uniqueIndex:idx_user_type"`
	LastSentAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
