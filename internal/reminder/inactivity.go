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

// InactivityEvaluator reminds users whose last logged activity is older
// than the configured threshold. Users who never logged an activity are
// measured from account creation.
type InactivityEvaluator struct {
	deps
}

// NewInactivityEvaluator creates the inactivity evaluator.
func NewInactivityEvaluator(orch *Orchestrator, settings *SettingsProvider, sources signal.Sources, log zerolog.Logger) *InactivityEvaluator {
	return &InactivityEvaluator{deps{
		orch:     orch,
		settings: settings,
		sources:  sources,
		log:      log.With().Str("evaluator", string(model.TypeInactivity)).Logger(),
	}}
}

func (e *InactivityEvaluator) Type() model.NotificationType {
	return model.TypeInactivity
}

func (e *InactivityEvaluator) Execute(ctx context.Context, userIDs []int64, asOf time.Time) (Stats, error) {
	s, err := e.settings.Get(ctx)
	if err != nil {
		return Stats{}, err
	}
	threshold := time.Duration(s.InactivityThresholdDays) * 24 * time.Hour

	lastActivity, err := e.sources.LastActivity(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}
	accounts, err := e.sources.AccountTimes(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}

	var candidates []candidate
	for _, id := range userIDs {
		since, ok := lastActivity[id]
		if !ok {
			acct, known := accounts[id]
			if !known {
				continue
			}
			since = acct.CreatedAt
		}
		if asOf.Sub(since) < threshold {
			continue
		}

		days := gapDays(asOf, since)
		candidates = append(candidates, candidate{
			userID: id,
			payload: push.Payload{
				Title: "We miss you!",
				Body:  fmt.Sprintf("It's been %d days since your last activity. A small step today counts.", days),
				Data:  dataWithDays(model.TypeInactivity, days),
			},
		})
	}

	return e.notify(ctx, model.TypeInactivity, candidates, asOf)
}
