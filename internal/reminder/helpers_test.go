package reminder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"wellbeing-reminder-backend/config"
	"wellbeing-reminder-backend/internal/db"
	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/queue"
	"wellbeing-reminder-backend/internal/signal"
	"wellbeing-reminder-backend/internal/store"
)

// fakeChannel records multicast calls and answers with a configurable
// result. The default is success for every token.
type fakeChannel struct {
	mu     sync.Mutex
	calls  []sendCall
	sendFn func(tokens []string, payload push.Payload) (*push.Result, error)
}

type sendCall struct {
	tokens  []string
	payload push.Payload
}

func (f *fakeChannel) SendMulticast(ctx context.Context, tokens []string, payload push.Payload) (*push.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sendCall{tokens: tokens, payload: payload})

	if f.sendFn != nil {
		return f.sendFn(tokens, payload)
	}
	res := &push.Result{SuccessCount: len(tokens), Responses: make([]push.TokenResult, len(tokens))}
	for i := range res.Responses {
		res.Responses[i].Success = true
	}
	return res, nil
}

func (f *fakeChannel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeSources serves evaluator signals from in-memory maps. A non-nil
// err fails every method, simulating a broken domain database.
type fakeSources struct {
	activity  map[int64]time.Time
	mood      map[int64]time.Time
	moodToday map[int64]bool
	survey    map[int64]time.Time
	article   map[int64]time.Time
	accounts  map[int64]signal.AccountTimes
	err       error
}

func (f *fakeSources) LastActivity(ctx context.Context, userIDs []int64) (map[int64]time.Time, error) {
	return f.timesOrErr(f.activity)
}

func (f *fakeSources) LastMoodEntry(ctx context.Context, userIDs []int64) (map[int64]time.Time, error) {
	return f.timesOrErr(f.mood)
}

func (f *fakeSources) MoodEntryOwnersOn(ctx context.Context, userIDs []int64, day time.Time) (map[int64]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.moodToday == nil {
		return map[int64]bool{}, nil
	}
	return f.moodToday, nil
}

func (f *fakeSources) LastSurveySubmission(ctx context.Context, userIDs []int64) (map[int64]time.Time, error) {
	return f.timesOrErr(f.survey)
}

func (f *fakeSources) LastArticleDismissal(ctx context.Context, userIDs []int64) (map[int64]time.Time, error) {
	return f.timesOrErr(f.article)
}

func (f *fakeSources) AccountTimes(ctx context.Context, userIDs []int64) (map[int64]signal.AccountTimes, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.accounts == nil {
		return map[int64]signal.AccountTimes{}, nil
	}
	return f.accounts, nil
}

func (f *fakeSources) timesOrErr(m map[int64]time.Time) (map[int64]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m == nil {
		return map[int64]time.Time{}, nil
	}
	return m, nil
}

// testEnv wires a real sqlite-backed store and queue to a fake push
// channel, with the settings row seeded.
type testEnv struct {
	db       *gorm.DB
	store    store.Store
	queue    *queue.Queue
	settings *SettingsProvider
	channel  *fakeChannel
	orch     *Orchestrator
}

func defaultTestSettings() *model.NotificationSetting {
	return &model.NotificationSetting{
		InactivityCron:          "0 10 * * *",
		MissingMoodCron:         "0 18 * * *",
		PendingSurveyCron:       "0 11 * * *",
		UnreadArticleCron:       "0 12 * * *",
		GlobalInactivityCron:    "0 9 * * 1",
		InactivityThresholdDays: 3,
		MoodReminderHour:        17,
		SurveyReminderDays:      7,
		ArticleReminderDays:     7,
		ResendCooldownHours:     24,
		PageSize:                2,
		PageDelayMs:             0,
		BroadcastBatchSize:      4,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(testDB))

	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})

	s := store.NewGormStore(testDB)
	require.NoError(t, s.SeedSettings(context.Background(), defaultTestSettings()))

	q := queue.New(testDB, config.QueueConfig{
		Workers:             1,
		PollIntervalSeconds: 1,
		ClaimBatchSize:      100,
		MaxAttempts:         3,
		BackoffBaseSeconds:  1,
	}, zerolog.Nop())

	settings := NewSettingsProvider(s, time.Minute)
	channel := &fakeChannel{}
	orch := NewOrchestrator(s, q, channel, settings, 1000, zerolog.Nop())

	q.Handle(JobTypePushDelivery, orch.HandleDelivery)

	return &testEnv{
		db:       testDB,
		store:    s,
		queue:    q,
		settings: settings,
		channel:  channel,
		orch:     orch,
	}
}

// registerDevice gives the user one active device token.
func (e *testEnv) registerDevice(t *testing.T, userID int64, token string) {
	t.Helper()
	require.NoError(t, e.store.UpsertRegistration(context.Background(), userID, token, model.PlatformIOS))
}
