package api

import (
	"wellbeing-reminder-backend/internal/reminder"
	"wellbeing-reminder-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       store.Store
	broadcaster *reminder.Broadcaster
	scheduler   *reminder.Scheduler
	settings    *reminder.SettingsProvider
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, b *reminder.Broadcaster, sch *reminder.Scheduler, settings *reminder.SettingsProvider) *Handler {
	return &Handler{
		store:       s,
		broadcaster: b,
		scheduler:   sch,
		settings:    settings,
	}
}
