package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/signal"
)

// PendingSurveyEvaluator reminds users whose last survey submission is
// older than the configured threshold. Users who never submitted are
// treated as exactly at the threshold, so they qualify on first pass.
type PendingSurveyEvaluator struct {
	deps
}

// NewPendingSurveyEvaluator creates the pending-survey evaluator.
func NewPendingSurveyEvaluator(orch *Orchestrator, settings *SettingsProvider, sources signal.Sources, log zerolog.Logger) *PendingSurveyEvaluator {
	return &PendingSurveyEvaluator{deps{
		orch:     orch,
		settings: settings,
		sources:  sources,
		log:      log.With().Str("evaluator", string(model.TypePendingSurvey)).Logger(),
	}}
}

func (e *PendingSurveyEvaluator) Type() model.NotificationType {
	return model.TypePendingSurvey
}

func (e *PendingSurveyEvaluator) Execute(ctx context.Context, userIDs []int64, asOf time.Time) (Stats, error) {
	s, err := e.settings.Get(ctx)
	if err != nil {
		return Stats{}, err
	}

	lastSubmission, err := e.sources.LastSurveySubmission(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}

	var candidates []candidate
	for _, id := range userIDs {
		days := s.SurveyReminderDays
		if last, ok := lastSubmission[id]; ok {
			days = gapDays(asOf, last)
			if days < s.SurveyReminderDays {
				continue
			}
		}
		candidates = append(candidates, candidate{
			userID: id,
			payload: push.Payload{
				Title: "Your check-in is waiting",
				Body:  fmt.Sprintf("It's been %d days since your last wellbeing survey. It only takes a minute.", days),
				Data:  dataWithDays(model.TypePendingSurvey, days),
			},
		})
	}

	return e.notify(ctx, model.TypePendingSurvey, candidates, asOf)
}
