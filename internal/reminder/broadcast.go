package reminder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/queue"
	"wellbeing-reminder-backend/internal/store"
)

// Broadcaster fans an operator message out to every active device owner.
// The admin call only enqueues a fanout job; pagination and the per-user
// sends all happen in queue workers.
type Broadcaster struct {
	store    store.Store
	queue    *queue.Queue
	settings *SettingsProvider
	orch     *Orchestrator
	log      zerolog.Logger
}

// NewBroadcaster creates a broadcast orchestrator.
func NewBroadcaster(s store.Store, q *queue.Queue, settings *SettingsProvider, orch *Orchestrator, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		store:    s,
		queue:    q,
		settings: settings,
		orch:     orch,
		log:      log.With().Str("component", "broadcast").Logger(),
	}
}

// Broadcast enqueues the fanout job and returns immediately; the caller
// never blocks on delivery.
func (b *Broadcaster) Broadcast(ctx context.Context, payload push.Payload) (int64, error) {
	return b.queue.Enqueue(ctx, JobTypeBroadcastFanout, BroadcastFanoutJob{Payload: payload})
}

// HandleFanout paginates the active device owners and enqueues one page
// job per page, each independently retryable.
func (b *Broadcaster) HandleFanout(ctx context.Context, payload []byte) error {
	var job BroadcastFanoutJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decode broadcast fanout job: %w", err)
	}

	setting, err := b.settings.Get(ctx)
	if err != nil {
		return err
	}
	pageSize := setting.BroadcastBatchSize

	var (
		after int64
		pages int
		users int
	)
	for {
		ids, err := b.store.ActiveOwnersPage(ctx, after, pageSize)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			_, err := b.queue.Enqueue(ctx, JobTypeBroadcastPage, BroadcastPageJob{
				UserIDs: ids,
				Payload: job.Payload,
			})
			if err != nil {
				return err
			}
			pages++
			users += len(ids)
			after = ids[len(ids)-1]
		}
		if len(ids) < pageSize {
			break
		}
	}

	b.log.Info().Int("pages", pages).Int("users", users).Msg("broadcast fanned out")
	return nil
}

// HandlePage sends the broadcast to each user on the page through the
// cooldown-checked path. Counts are logged for observability only;
// per-user failures do not fail the page, because a page retry would
// re-send to the users that already succeeded.
func (b *Broadcaster) HandlePage(ctx context.Context, payload []byte) error {
	var job BroadcastPageJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decode broadcast page job: %w", err)
	}

	var sent, skipped, failed int
	for _, userID := range job.UserIDs {
		ok, err := b.orch.SendIfAllowed(ctx, userID, model.TypeCustomBroadcast, job.Payload)
		switch {
		case err != nil:
			b.log.Error().Err(err).Int64("user_id", userID).Msg("broadcast send failed")
			failed++
		case !ok:
			skipped++
		default:
			sent++
		}
	}

	b.log.Info().Int("sent", sent).Int("skipped", skipped).Int("failed", failed).
		Msg("broadcast page processed")
	return nil
}
