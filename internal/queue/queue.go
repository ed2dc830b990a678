package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellbeing-reminder-backend/config"
	"wellbeing-reminder-backend/internal/model"
)

// Handler processes one job payload. A returned error reschedules the job
// with backoff; handlers must therefore tolerate repeated invocation
// (delivery is at-least-once).
type Handler func(ctx context.Context, payload []byte) error

// Options override the queue defaults for a single enqueue call.
type Options struct {
	MaxAttempts int
	RunAt       time.Time
}

// Queue is a database-backed durable job queue. Jobs survive restarts;
// workers claim batches transactionally and dispatch to the handler
// registered for each job type.
type Queue struct {
	db  *gorm.DB
	cfg config.QueueConfig
	log zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	now func() time.Time
}

// New creates a queue on the given database.
func New(db *gorm.DB, cfg config.QueueConfig, log zerolog.Logger) *Queue {
	if cfg.LeaseSeconds <= 0 {
		cfg.LeaseSeconds = 300
	}
	return &Queue{
		db:       db,
		cfg:      cfg,
		log:      log.With().Str("component", "queue").Logger(),
		handlers: make(map[string]Handler),
		now:      time.Now,
	}
}

// Handle registers the handler for a job type. Registering twice for the
// same type replaces the previous handler.
func (q *Queue) Handle(jobType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

// Enqueue persists a job. The job is durable the moment this returns.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload any, opts ...Options) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal %s payload: %w", jobType, err)
	}

	job := model.Job{
		Type:        jobType,
		Payload:     body,
		Status:      model.JobPending,
		MaxAttempts: q.cfg.MaxAttempts,
		RunAt:       q.now().UTC(),
	}
	if len(opts) > 0 {
		if opts[0].MaxAttempts > 0 {
			job.MaxAttempts = opts[0].MaxAttempts
		}
		if !opts[0].RunAt.IsZero() {
			job.RunAt = opts[0].RunAt.UTC()
		}
	}

	if err := q.db.WithContext(ctx).Create(&job).Error; err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return job.ID, nil
}

// claim transitions up to limit due pending jobs to processing and
// returns them. A processing row whose lease has expired belongs to a
// worker that died before settling it; it is claimable again, which is
// what makes delivery at-least-once across crashes (handlers must
// tolerate the replay). On postgres the select takes row locks with
// SKIP LOCKED so concurrent claimers do not contend.
func (q *Queue) claim(ctx context.Context, limit int) ([]model.Job, error) {
	now := q.now().UTC()
	leaseCutoff := now.Add(-time.Duration(q.cfg.LeaseSeconds) * time.Second)
	var claimed []model.Job

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sel := tx.Model(&model.Job{}).
			Where("(status = ? AND run_at <= ?) OR (status = ? AND updated_at <= ?)",
				model.JobPending, now, model.JobProcessing, leaseCutoff).
			Order("run_at ASC, id ASC").
			Limit(limit)
		if tx.Dialector.Name() == "postgres" {
			sel = sel.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := sel.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]int64, len(claimed))
		for i, j := range claimed {
			ids[i] = j.ID
		}
		return tx.Model(&model.Job{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": model.JobProcessing, "updated_at": now}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	return claimed, nil
}

// runJob executes one claimed job and settles its row.
func (q *Queue) runJob(ctx context.Context, job model.Job) error {
	q.mu.RLock()
	h, ok := q.handlers[job.Type]
	q.mu.RUnlock()

	if !ok {
		q.log.Error().Str("type", job.Type).Int64("job_id", job.ID).Msg("no handler registered, marking dead")
		return q.markDead(ctx, job, "no handler registered")
	}

	if err := h(ctx, job.Payload); err != nil {
		job.Attempts++
		if job.Attempts >= job.MaxAttempts {
			q.log.Error().Err(err).Str("type", job.Type).Int64("job_id", job.ID).
				Int("attempts", job.Attempts).Msg("job exhausted retries")
			return q.markDead(ctx, job, err.Error())
		}

		delay := q.backoff(job.Attempts)
		q.log.Warn().Err(err).Str("type", job.Type).Int64("job_id", job.ID).
			Int("attempt", job.Attempts).Dur("retry_in", delay).Msg("job failed, rescheduling")
		return q.db.WithContext(ctx).Model(&model.Job{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status":     model.JobPending,
				"attempts":   job.Attempts,
				"run_at":     q.now().UTC().Add(delay),
				"last_error": truncateError(err.Error()),
			}).Error
	}

	// Completed jobs are discarded rather than archived.
	return q.db.WithContext(ctx).Delete(&model.Job{}, job.ID).Error
}

func (q *Queue) markDead(ctx context.Context, job model.Job, reason string) error {
	return q.db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":     model.JobDead,
			"attempts":   job.Attempts,
			"last_error": truncateError(reason),
		}).Error
}

// backoff returns the delay before the given retry attempt: exponential
// from the configured base, capped at one hour.
func (q *Queue) backoff(attempt int) time.Duration {
	base := time.Duration(q.cfg.BackoffBaseSeconds) * time.Second
	delay := base << (attempt - 1)
	if delay > time.Hour {
		delay = time.Hour
	}
	return delay
}

func truncateError(s string) string {
	const max = 1024
	if len(s) > max {
		return s[:max]
	}
	return s
}
