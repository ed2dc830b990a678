package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/queue"
	"wellbeing-reminder-backend/internal/store"
)

// Orchestrator turns "approved to notify" decisions into durable delivery
// jobs and executes those jobs: multicast push, per-token outcome
// handling, tracker update and dead-registration pruning.
type Orchestrator struct {
	store    store.Store
	queue    *queue.Queue
	channel  push.Channel
	settings *SettingsProvider
	limiter  *rate.Limiter
	log      zerolog.Logger
	now      func() time.Time
}

// NewOrchestrator creates a delivery orchestrator. sendsPerSecond caps
// push channel calls across all delivery workers.
func NewOrchestrator(s store.Store, q *queue.Queue, ch push.Channel, settings *SettingsProvider, sendsPerSecond float64, log zerolog.Logger) *Orchestrator {
	// A rate below one send per second must still leave a burst of one,
	// or Wait can never hand out a token.
	burst := int(sendsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Orchestrator{
		store:    s,
		queue:    q,
		channel:  ch,
		settings: settings,
		limiter:  rate.NewLimiter(rate.Limit(sendsPerSecond), burst),
		log:      log.With().Str("component", "delivery").Logger(),
		now:      time.Now,
	}
}

// Allowed reports whether the cooldown window for (user, kind) has
// elapsed since the last successful send.
func (o *Orchestrator) Allowed(ctx context.Context, userID int64, kind model.NotificationType, cooldown time.Duration, now time.Time) (bool, error) {
	lastSent, err := o.store.LastSent(ctx, userID, kind)
	if err != nil {
		return false, err
	}
	if lastSent != nil && now.Sub(*lastSent) < cooldown {
		return false, nil
	}
	return true, nil
}

// Send unconditionally enqueues a delivery job. The decision to notify is
// durable the moment this returns, independent of later delivery outcome.
func (o *Orchestrator) Send(ctx context.Context, userID int64, kind model.NotificationType, payload push.Payload) error {
	_, err := o.queue.Enqueue(ctx, JobTypePushDelivery, DeliveryJob{
		UserID:  userID,
		Type:    kind,
		Payload: payload,
	})
	return err
}

// SendIfAllowed re-checks the tracker cooldown before sending. Callers
// that already checked (the evaluators) use Send directly; this is the
// entry point for paths that skip evaluator-level checks, such as
// broadcasts.
func (o *Orchestrator) SendIfAllowed(ctx context.Context, userID int64, kind model.NotificationType, payload push.Payload) (bool, error) {
	cooldown, err := o.settings.Cooldown(ctx)
	if err != nil {
		return false, err
	}
	allowed, err := o.Allowed(ctx, userID, kind, cooldown, o.now().UTC())
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, nil
	}
	return true, o.Send(ctx, userID, kind, payload)
}

// HandleDelivery is the queue handler for push delivery jobs.
//
// The tracker is updated only when at least one token succeeded; a run
// where every token failed leaves last_sent_at untouched so the user is
// retried on the next pass. Failed tokens are deleted outright. A
// transport failure of the whole channel call deletes every token for the
// user and propagates the error so the queue retries the job.
func (o *Orchestrator) HandleDelivery(ctx context.Context, payload []byte) error {
	var job DeliveryJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decode delivery job: %w", err)
	}

	regs, err := o.store.ActiveRegistrations(ctx, job.UserID)
	if err != nil {
		return err
	}
	if len(regs) == 0 {
		// The user deregistered between decision and delivery.
		return nil
	}

	tokens := make([]string, len(regs))
	for i, r := range regs {
		tokens[i] = r.Token
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return err
	}

	res, err := o.channel.SendMulticast(ctx, tokens, job.Payload)
	if err != nil {
		if delErr := o.store.DeleteRegistrations(ctx, job.UserID, tokens); delErr != nil {
			o.log.Error().Err(delErr).Int64("user_id", job.UserID).Msg("failed to prune tokens after transport failure")
		}
		return fmt.Errorf("multicast send for user %d: %w", job.UserID, err)
	}

	var failed, succeeded []string
	for i, r := range res.Responses {
		if r.Success {
			succeeded = append(succeeded, tokens[i])
			continue
		}
		failed = append(failed, tokens[i])
		o.log.Info().Int64("user_id", job.UserID).Str("type", string(job.Type)).
			Bool("permanent", r.Permanent).Str("error", r.ErrorCode).Msg("pruning failed token")
	}

	if len(succeeded) == 0 {
		return o.store.DeleteRegistrations(ctx, job.UserID, failed)
	}

	sentAt := o.now().UTC()
	if err := o.store.MarkSent(ctx, job.UserID, job.Type, sentAt); err != nil {
		return err
	}
	if err := o.store.DeleteRegistrations(ctx, job.UserID, failed); err != nil {
		return err
	}
	if err := o.store.TouchRegistrations(ctx, job.UserID, succeeded, sentAt); err != nil {
		return err
	}

	o.log.Debug().Int64("user_id", job.UserID).Str("type", string(job.Type)).
		Int("delivered", len(succeeded)).Int("pruned", len(failed)).Msg("delivery complete")
	return nil
}
