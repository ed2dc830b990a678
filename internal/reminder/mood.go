package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/signal"
)

// MissingMoodEvaluator reminds users who have not recorded a mood entry
// today. The whole run is a no-op before the configured hour of day, so
// users get the afternoon to record on their own first.
type MissingMoodEvaluator struct {
	deps
}

// NewMissingMoodEvaluator creates the missing-mood evaluator.
func NewMissingMoodEvaluator(orch *Orchestrator, settings *SettingsProvider, sources signal.Sources, log zerolog.Logger) *MissingMoodEvaluator {
	return &MissingMoodEvaluator{deps{
		orch:     orch,
		settings: settings,
		sources:  sources,
		log:      log.With().Str("evaluator", string(model.TypeMissingMood)).Logger(),
	}}
}

func (e *MissingMoodEvaluator) Type() model.NotificationType {
	return model.TypeMissingMood
}

func (e *MissingMoodEvaluator) Execute(ctx context.Context, userIDs []int64, asOf time.Time) (Stats, error) {
	s, err := e.settings.Get(ctx)
	if err != nil {
		return Stats{}, err
	}
	if asOf.Hour() < s.MoodReminderHour {
		return Stats{}, nil
	}

	recordedToday, err := e.sources.MoodEntryOwnersOn(ctx, userIDs, asOf)
	if err != nil {
		return Stats{}, err
	}

	var candidates []candidate
	for _, id := range userIDs {
		if recordedToday[id] {
			continue
		}
		candidates = append(candidates, candidate{
			userID: id,
			payload: push.Payload{
				Title: "How are you feeling today?",
				Body:  "Take a moment to record today's mood before the day is over.",
				Data:  map[string]string{"type": string(model.TypeMissingMood)},
			},
		})
	}

	return e.notify(ctx, model.TypeMissingMood, candidates, asOf)
}
