package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/signal"
)

func TestInactivityEvaluator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	asOf := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	env.orch.now = func() time.Time { return asOf }

	sources := &fakeSources{
		activity: map[int64]time.Time{
			1: asOf.AddDate(0, 0, -5), // over the 3-day threshold
			2: asOf.Add(-6 * time.Hour),
		},
		accounts: map[int64]signal.AccountTimes{
			1: {CreatedAt: asOf.AddDate(0, 0, -60)},
			2: {CreatedAt: asOf.AddDate(0, 0, -60)},
			3: {CreatedAt: asOf.AddDate(0, 0, -10)}, // never logged activity
		},
	}

	for _, id := range []int64{1, 2, 3, 4} {
		env.registerDevice(t, id, "token-"+string(rune('a'+id)))
	}

	eval := NewInactivityEvaluator(env.orch, env.settings, sources, zerolog.Nop())
	assert.Equal(t, model.TypeInactivity, eval.Type())

	// User 3 falls back to account creation; user 4 has no account row
	// and is silently excluded, not even attempted.
	stats, err := eval.Execute(ctx, []int64{1, 2, 3, 4}, asOf)
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 3, Sent: 3}, stats)

	require.NoError(t, env.queue.Drain(ctx))
	require.Equal(t, 3, env.channel.callCount())
	assert.Equal(t, "We miss you!", env.channel.calls[0].payload.Title)
	assert.Equal(t, "5", env.channel.calls[0].payload.Data["days"])
	assert.Equal(t, "10", env.channel.calls[1].payload.Data["days"])

	// One hour later the cooldown suppresses everyone just notified.
	later := asOf.Add(time.Hour)
	stats, err = eval.Execute(ctx, []int64{1, 2, 3, 4}, later)
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 3, Skipped: 3}, stats)

	require.NoError(t, env.queue.Drain(ctx))
	assert.Equal(t, 3, env.channel.callCount())
}

func TestMissingMoodEvaluator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sources := &fakeSources{moodToday: map[int64]bool{1: true}}
	for _, id := range []int64{1, 2} {
		env.registerDevice(t, id, "token-"+string(rune('a'+id)))
	}

	eval := NewMissingMoodEvaluator(env.orch, env.settings, sources, zerolog.Nop())

	// Before the configured hour the whole run is a no-op.
	morning := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	stats, err := eval.Execute(ctx, []int64{1, 2}, morning)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	// After the hour, only the user without a recorded mood is notified.
	evening := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	env.orch.now = func() time.Time { return evening }
	stats, err = eval.Execute(ctx, []int64{1, 2}, evening)
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 1, Sent: 1}, stats)

	require.NoError(t, env.queue.Drain(ctx))
	require.Equal(t, 1, env.channel.callCount())
	assert.Equal(t, []string{"token-c"}, env.channel.calls[0].tokens)
}

func TestPendingSurveyEvaluator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	asOf := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	env.orch.now = func() time.Time { return asOf }

	sources := &fakeSources{
		survey: map[int64]time.Time{
			1: asOf.AddDate(0, 0, -10), // over the 7-day threshold
			2: asOf.AddDate(0, 0, -2),  // recent, excluded
		},
	}
	for _, id := range []int64{1, 2, 3} {
		env.registerDevice(t, id, "token-"+string(rune('a'+id)))
	}

	eval := NewPendingSurveyEvaluator(env.orch, env.settings, sources, zerolog.Nop())

	// User 3 never submitted and qualifies on the first pass.
	stats, err := eval.Execute(ctx, []int64{1, 2, 3}, asOf)
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 2, Sent: 2}, stats)

	require.NoError(t, env.queue.Drain(ctx))
	require.Equal(t, 2, env.channel.callCount())
	assert.Equal(t, "10", env.channel.calls[0].payload.Data["days"])
	assert.Equal(t, "7", env.channel.calls[1].payload.Data["days"])
}

func TestUnreadArticleEvaluator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	asOf := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.orch.now = func() time.Time { return asOf }

	sources := &fakeSources{
		article: map[int64]time.Time{
			1: asOf.AddDate(0, 0, -8),
			2: asOf.AddDate(0, 0, -1),
		},
	}
	for _, id := range []int64{1, 2} {
		env.registerDevice(t, id, "token-"+string(rune('a'+id)))
	}

	eval := NewUnreadArticleEvaluator(env.orch, env.settings, sources, zerolog.Nop())

	stats, err := eval.Execute(ctx, []int64{1, 2}, asOf)
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 1, Sent: 1}, stats)

	require.NoError(t, env.queue.Drain(ctx))
	require.Equal(t, 1, env.channel.callCount())
	assert.Equal(t, []string{"token-b"}, env.channel.calls[0].tokens)
}

func TestGlobalInactivityEvaluator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	asOf := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	env.orch.now = func() time.Time { return asOf }

	sources := &fakeSources{
		accounts: map[int64]signal.AccountTimes{
			1: {CreatedAt: asOf.AddDate(0, 0, -200), UpdatedAt: asOf.AddDate(0, 0, -200)},
			2: {CreatedAt: asOf.AddDate(0, 0, -200), UpdatedAt: asOf.AddDate(0, 0, -200)},
			3: {CreatedAt: asOf.AddDate(0, 0, -200), UpdatedAt: asOf.AddDate(0, 0, -200)},
		},
		// User 2's mood entry 35 days ago moves them down to the month
		// tier; user 3's activity 5 days ago disqualifies them entirely.
		mood:     map[int64]time.Time{2: asOf.AddDate(0, 0, -35)},
		activity: map[int64]time.Time{3: asOf.AddDate(0, 0, -5)},
	}
	for _, id := range []int64{1, 2, 3} {
		env.registerDevice(t, id, "token-"+string(rune('a'+id)))
	}

	eval := NewGlobalInactivityEvaluator(env.orch, env.settings, sources, zerolog.Nop())

	stats, err := eval.Execute(ctx, []int64{1, 2, 3}, asOf)
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 2, Sent: 2}, stats)

	require.NoError(t, env.queue.Drain(ctx))
	require.Equal(t, 2, env.channel.callCount())
	assert.Equal(t, "It's been a long time", env.channel.calls[0].payload.Title)
	assert.Equal(t, "A month without you", env.channel.calls[1].payload.Title)
}

func TestPickTier(t *testing.T) {
	tier, ok := pickTier(13)
	assert.False(t, ok)
	assert.Zero(t, tier)

	tier, ok = pickTier(14)
	require.True(t, ok)
	assert.Equal(t, 14, tier.days)

	tier, ok = pickTier(45)
	require.True(t, ok)
	assert.Equal(t, 30, tier.days)

	tier, ok = pickTier(400)
	require.True(t, ok)
	assert.Equal(t, 180, tier.days)
}

func TestEvaluatorSourceFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sources := &fakeSources{err: assert.AnError}
	eval := NewInactivityEvaluator(env.orch, env.settings, sources, zerolog.Nop())

	_, err := eval.Execute(ctx, []int64{1}, time.Now())
	require.Error(t, err)
}
