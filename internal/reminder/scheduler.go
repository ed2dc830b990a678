package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/queue"
	"wellbeing-reminder-backend/internal/store"
)

// ErrRunInProgress is returned when a scheduling pass for a kind is
// dropped because the previous pass has not finished.
var ErrRunInProgress = errors.New("scheduling pass already in progress")

// Scheduler owns the cron triggers and the batch enqueuing for the five
// scheduled reminder kinds. A pass paginates the active device owners and
// emits one batch job per page; evaluation and delivery happen in queue
// workers, concurrently with each other and with future passes.
type Scheduler struct {
	store      store.Store
	queue      *queue.Queue
	settings   *SettingsProvider
	evaluators map[model.NotificationType]Evaluator
	guard      *runGuard
	cron       *cron.Cron
	log        zerolog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewScheduler creates a scheduler with no evaluators registered.
func NewScheduler(s store.Store, q *queue.Queue, settings *SettingsProvider, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:      s,
		queue:      q,
		settings:   settings,
		evaluators: make(map[model.NotificationType]Evaluator),
		guard:      newRunGuard(),
		log:        log.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Register adds an evaluator for its reminder kind.
func (s *Scheduler) Register(e Evaluator) {
	s.evaluators[e.Type()] = e
}

// Start reads the per-kind cron expressions and launches the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	setting, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings for scheduler: %w", err)
	}

	s.cron = cron.New()
	for _, kind := range model.ScheduledTypes {
		kind := kind
		spec := setting.CronFor(kind)
		if _, err := s.cron.AddFunc(spec, func() { s.runScheduled(ctx, kind) }); err != nil {
			return fmt.Errorf("register cron %q for %s: %w", spec, kind, err)
		}
		s.log.Info().Str("type", string(kind)).Str("cron", spec).Msg("reminder schedule registered")
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron runner. Running passes are not interrupted.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// runScheduled is the cron entry point: any failure is logged and
// swallowed so the next trigger is unaffected.
func (s *Scheduler) runScheduled(ctx context.Context, kind model.NotificationType) {
	pages, err := s.RunKind(ctx, kind)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.log.Warn().Str("type", string(kind)).Msg("previous pass still running, skipping this tick")
	case err != nil:
		s.log.Error().Err(err).Str("type", string(kind)).Msg("scheduling pass failed")
	default:
		s.log.Info().Str("type", string(kind)).Int("pages", pages).Msg("scheduling pass enqueued")
	}
}

// RunKind runs one scheduling pass for a reminder kind: pages through
// distinct users with at least one active device token, ascending by user
// id, and enqueues one batch job per non-empty page. Users without an
// active token are never evaluated, since there is nowhere to deliver
// anyway. Returns the number of pages enqueued.
func (s *Scheduler) RunKind(ctx context.Context, kind model.NotificationType) (int, error) {
	if _, ok := s.evaluators[kind]; !ok {
		return 0, fmt.Errorf("no evaluator registered for %s", kind)
	}
	if !s.guard.TryAcquire(kind) {
		return 0, ErrRunInProgress
	}
	defer s.guard.Release(kind)

	setting, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	pageSize := setting.PageSize
	delay := time.Duration(setting.PageDelayMs) * time.Millisecond
	asOf := s.now().UTC()

	var (
		after int64
		pages int
	)
	for {
		ids, err := s.store.ActiveOwnersPage(ctx, after, pageSize)
		if err != nil {
			return pages, err
		}
		if len(ids) > 0 {
			_, err := s.queue.Enqueue(ctx, JobTypeReminderBatch, BatchJob{
				ReminderType: kind,
				UserIDs:      ids,
				AsOf:         asOf,
			})
			if err != nil {
				return pages, err
			}
			pages++
			after = ids[len(ids)-1]
		}
		if len(ids) < pageSize {
			return pages, nil
		}
		if delay > 0 {
			s.sleep(delay)
		}
	}
}

// HandleBatch is the queue handler for reminder batch jobs: it selects
// the evaluator for the batch kind and runs it. A domain query failure
// inside the evaluator is logged and yields zero stats; it does not fail
// the job, so a broken signal source cannot wedge the queue with retries.
func (s *Scheduler) HandleBatch(ctx context.Context, payload []byte) error {
	var job BatchJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decode batch job: %w", err)
	}

	eval, ok := s.evaluators[job.ReminderType]
	if !ok {
		return fmt.Errorf("no evaluator registered for %s", job.ReminderType)
	}

	stats, err := eval.Execute(ctx, job.UserIDs, job.AsOf)
	if err != nil {
		s.log.Error().Err(err).Str("type", string(job.ReminderType)).
			Int("users", len(job.UserIDs)).Msg("evaluator run failed")
		return nil
	}

	s.log.Info().Str("type", string(job.ReminderType)).
		Int("users", len(job.UserIDs)).
		Int("attempted", stats.Attempted).Int("sent", stats.Sent).
		Int("skipped", stats.Skipped).Int("failed", stats.Failed).
		Msg("batch evaluated")
	return nil
}
