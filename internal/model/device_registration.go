package model

import "time"

// Platform identifies the push platform a device token belongs to.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
	PlatformUnknown Platform = "unknown"
)

// ParsePlatform maps a client-supplied platform string to a known value.
func ParsePlatform(s string) Platform {
	switch Platform(s) {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return Platform(s)
	default:
		return PlatformUnknown
	}
}

// DeviceRegistration is a push-addressable device installation for a user.
// A registration is deleted outright when the push channel reports its
// token as permanently invalid; a new registration may legitimately reuse
// the slot, so tokens are never merely marked dead.
type DeviceRegistration struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_user_token;index"`
	Token      string    `gorm:"size:512;not null;uniqueIndex:idx_user_token"`
	Platform   Platform  `gorm:"size:16;not null"`
	IsActive   bool      `gorm:"not null;default:true"`
	LastUsedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
