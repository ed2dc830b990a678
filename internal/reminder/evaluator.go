package reminder

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/signal"
)

// Evaluator decides, for one reminder kind, which users in a batch should
// be notified, and hands the approved ones to the delivery orchestrator.
// The five kinds share this contract and differ only in signal, threshold
// and copy.
type Evaluator interface {
	Type() model.NotificationType
	Execute(ctx context.Context, userIDs []int64, asOf time.Time) (Stats, error)
}

// deps bundles what every evaluator needs.
type deps struct {
	orch     *Orchestrator
	settings *SettingsProvider
	sources  signal.Sources
	log      zerolog.Logger
}

// candidate is a user that passed the eligibility threshold, with the
// payload already built.
type candidate struct {
	userID  int64
	payload push.Payload
}

// notify runs the cooldown check for each candidate and enqueues delivery
// for the allowed ones. Users inside the cooldown window count as
// skipped; enqueue or tracker errors count as failed.
func (d *deps) notify(ctx context.Context, kind model.NotificationType, candidates []candidate, asOf time.Time) (Stats, error) {
	var stats Stats
	if len(candidates) == 0 {
		return stats, nil
	}

	cooldown, err := d.settings.Cooldown(ctx)
	if err != nil {
		return stats, err
	}

	for _, c := range candidates {
		stats.Attempted++

		allowed, err := d.orch.Allowed(ctx, c.userID, kind, cooldown, asOf)
		if err != nil {
			d.log.Error().Err(err).Int64("user_id", c.userID).Str("type", string(kind)).Msg("cooldown check failed")
			stats.Failed++
			continue
		}
		if !allowed {
			stats.Skipped++
			continue
		}

		if err := d.orch.Send(ctx, c.userID, kind, c.payload); err != nil {
			d.log.Error().Err(err).Int64("user_id", c.userID).Str("type", string(kind)).Msg("failed to enqueue delivery")
			stats.Failed++
			continue
		}
		stats.Sent++
	}
	return stats, nil
}

// gapDays converts an eligibility gap to whole days.
func gapDays(asOf, since time.Time) int {
	return int(asOf.Sub(since).Hours() / 24)
}

func dataWithDays(kind model.NotificationType, days int) map[string]string {
	return map[string]string{
		"type": string(kind),
		"days": strconv.Itoa(days),
	}
}
