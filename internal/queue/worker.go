package queue

import (
	"context"
	"time"

	"wellbeing-reminder-backend/internal/model"
)

// Start launches the poll loop and worker pool. Workers pull claimed jobs
// from a channel and run independently; multiple jobs of the same type may
// execute concurrently. Blocks only until the goroutines are launched.
func (q *Queue) Start(ctx context.Context) {
	jobs := make(chan model.Job, q.cfg.ClaimBatchSize)

	for i := 0; i < q.cfg.Workers; i++ {
		go q.worker(ctx, i, jobs)
	}
	go q.pollLoop(ctx, jobs)
}

// pollLoop is the single claimer: it periodically claims a due batch and
// fans the jobs out to the workers.
func (q *Queue) pollLoop(ctx context.Context, jobs chan<- model.Job) {
	interval := time.Duration(q.cfg.PollIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.log.Info().Msg("queue poll loop stopped")
			return
		case <-ticker.C:
			claimed, err := q.claim(ctx, q.cfg.ClaimBatchSize)
			if err != nil {
				q.log.Error().Err(err).Msg("claim failed")
				continue
			}
			for _, job := range claimed {
				select {
				case jobs <- job:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (q *Queue) worker(ctx context.Context, id int, jobs <-chan model.Job) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-jobs:
			if err := q.runJob(ctx, job); err != nil {
				q.log.Error().Err(err).Int("worker", id).Int64("job_id", job.ID).
					Msg("failed to settle job")
			}
		}
	}
}

// RunOnce claims one batch and runs every job in it synchronously on the
// calling goroutine. Returns the number of jobs executed. Used by tests
// and by anything that needs deterministic drain semantics.
func (q *Queue) RunOnce(ctx context.Context) (int, error) {
	claimed, err := q.claim(ctx, q.cfg.ClaimBatchSize)
	if err != nil {
		return 0, err
	}
	for _, job := range claimed {
		if err := q.runJob(ctx, job); err != nil {
			return 0, err
		}
	}
	return len(claimed), nil
}

// Drain repeatedly runs batches until no due jobs remain. Jobs enqueued by
// running jobs are picked up in subsequent batches.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		n, err := q.RunOnce(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
