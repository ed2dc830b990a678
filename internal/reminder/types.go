package reminder

import (
	"time"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
)

// Queue job types. Payload shapes are one struct per type, decoded at the
// consumer boundary.
const (
	JobTypeReminderBatch   = "reminder.batch"
	JobTypePushDelivery    = "push.delivery"
	JobTypeBroadcastFanout = "broadcast.fanout"
	JobTypeBroadcastPage   = "broadcast.page"
)

// BatchJob carries one page of user ids for a scheduling pass of one
// reminder kind. AsOf is the pass start time; eligibility gaps are
// measured against it so that page evaluation order does not matter.
type BatchJob struct {
	ReminderType model.NotificationType `json:"reminder_type"`
	UserIDs      []int64                `json:"user_ids"`
	AsOf         time.Time              `json:"as_of"`
}

// DeliveryJob is an approved decision to push one payload to one user.
type DeliveryJob struct {
	UserID  int64                  `json:"user_id"`
	Type    model.NotificationType `json:"type"`
	Payload push.Payload           `json:"payload"`
}

// BroadcastFanoutJob triggers pagination of all active device owners.
type BroadcastFanoutJob struct {
	Payload push.Payload `json:"payload"`
}

// BroadcastPageJob carries one page of user ids plus the broadcast payload.
type BroadcastPageJob struct {
	UserIDs []int64      `json:"user_ids"`
	Payload push.Payload `json:"payload"`
}

// Stats is the outcome of one evaluator run over a batch of users.
// Users that fail the eligibility threshold are not counted at all;
// Skipped counts users suppressed by the cooldown window.
type Stats struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
