package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/signal"
)

type globalTier struct {
	days  int
	title string
	body  string
}

// Global inactivity tiers, by whole days of silence across every signal.
// The evaluator picks the largest tier the gap clears and grades the
// message accordingly.
var globalTiers = []globalTier{
	{180, "It's been a long time", "Your wellbeing space is still here for you, exactly as you left it."},
	{30, "A month without you", "A lot can change in a month. Come see what's new and check in with yourself."},
	{14, "Checking in", "You haven't stopped by in a couple of weeks. A short visit can go a long way."},
}

// GlobalInactivityEvaluator reminds users with no signal of any kind:
// the reference time is the latest of profile update, activity, mood,
// survey and article signals, falling back to account creation.
type GlobalInactivityEvaluator struct {
	deps
}

// NewGlobalInactivityEvaluator creates the global-inactivity evaluator.
func NewGlobalInactivityEvaluator(orch *Orchestrator, settings *SettingsProvider, sources signal.Sources, log zerolog.Logger) *GlobalInactivityEvaluator {
	return &GlobalInactivityEvaluator{deps{
		orch:     orch,
		settings: settings,
		sources:  sources,
		log:      log.With().Str("evaluator", string(model.TypeGlobalInactivity)).Logger(),
	}}
}

func (e *GlobalInactivityEvaluator) Type() model.NotificationType {
	return model.TypeGlobalInactivity
}

func (e *GlobalInactivityEvaluator) Execute(ctx context.Context, userIDs []int64, asOf time.Time) (Stats, error) {
	accounts, err := e.sources.AccountTimes(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}
	activity, err := e.sources.LastActivity(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}
	mood, err := e.sources.LastMoodEntry(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}
	survey, err := e.sources.LastSurveySubmission(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}
	article, err := e.sources.LastArticleDismissal(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}

	var candidates []candidate
	for _, id := range userIDs {
		acct, known := accounts[id]
		if !known {
			continue
		}

		latest := acct.CreatedAt
		for _, t := range []time.Time{acct.UpdatedAt, activity[id], mood[id], survey[id], article[id]} {
			if t.After(latest) {
				latest = t
			}
		}

		days := gapDays(asOf, latest)
		tier, ok := pickTier(days)
		if !ok {
			continue
		}

		candidates = append(candidates, candidate{
			userID: id,
			payload: push.Payload{
				Title: tier.title,
				Body:  tier.body,
				Data:  dataWithDays(model.TypeGlobalInactivity, days),
			},
		})
	}

	return e.notify(ctx, model.TypeGlobalInactivity, candidates, asOf)
}

func pickTier(days int) (globalTier, bool) {
	for _, tier := range globalTiers {
		if days >= tier.days {
			return tier, true
		}
	}
	return globalTier{}, false
}
