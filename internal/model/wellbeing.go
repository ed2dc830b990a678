package model

import "time"

// User is the wellbeing app account. Only the fields the reminder
// pipeline reads are modeled; profile data lives elsewhere.
type User struct {
	ID        int64     `gorm:"primaryKey"`
	Email     string    `gorm:"size:256;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ActivityLog is a single logged wellbeing activity.
type ActivityLog struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	Kind      string    `gorm:"size:64;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// MoodEntry is a recorded mood for a calendar day.
type MoodEntry struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	Score     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// SurveyResponse is a submitted wellbeing survey.
type SurveyResponse struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      int64     `gorm:"not null;index"`
	SurveyKey   string    `gorm:"size:64;not null"`
	SubmittedAt time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
}

// ArticleDismissal marks an article a user has read or dismissed.
type ArticleDismissal struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	ArticleID int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
