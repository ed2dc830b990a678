package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/signal"
)

// UnreadArticleEvaluator reminds users who have not opened or dismissed
// an article recently. Same fallback pattern as the survey evaluator:
// never-dismissed users qualify at the threshold.
type UnreadArticleEvaluator struct {
	deps
}

// NewUnreadArticleEvaluator creates the unread-article evaluator.
func NewUnreadArticleEvaluator(orch *Orchestrator, settings *SettingsProvider, sources signal.Sources, log zerolog.Logger) *UnreadArticleEvaluator {
	return &UnreadArticleEvaluator{deps{
		orch:     orch,
		settings: settings,
		sources:  sources,
		log:      log.With().Str("evaluator", string(model.TypeUnreadArticle)).Logger(),
	}}
}

func (e *UnreadArticleEvaluator) Type() model.NotificationType {
	return model.TypeUnreadArticle
}

func (e *UnreadArticleEvaluator) Execute(ctx context.Context, userIDs []int64, asOf time.Time) (Stats, error) {
	s, err := e.settings.Get(ctx)
	if err != nil {
		return Stats{}, err
	}

	lastDismissal, err := e.sources.LastArticleDismissal(ctx, userIDs)
	if err != nil {
		return Stats{}, err
	}

	var candidates []candidate
	for _, id := range userIDs {
		days := s.ArticleReminderDays
		if last, ok := lastDismissal[id]; ok {
			days = gapDays(asOf, last)
			if days < s.ArticleReminderDays {
				continue
			}
		}
		candidates = append(candidates, candidate{
			userID: id,
			payload: push.Payload{
				Title: "Something new to read",
				Body:  "There are fresh articles in your wellbeing library. Take a quiet minute for yourself.",
				Data:  dataWithDays(model.TypeUnreadArticle, days),
			},
		})
	}

	return e.notify(ctx, model.TypeUnreadArticle, candidates, asOf)
}
