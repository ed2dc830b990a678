package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
)

func newTestBroadcaster(env *testEnv) *Broadcaster {
	b := NewBroadcaster(env.store, env.queue, env.settings, env.orch, zerolog.Nop())
	env.queue.Handle(JobTypeBroadcastFanout, b.HandleFanout)
	env.queue.Handle(JobTypeBroadcastPage, b.HandlePage)
	return b
}

func TestHandleFanoutPaginates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Ten owners with the configured broadcast batch size of four makes
	// three page jobs.
	for i := int64(1); i <= 10; i++ {
		env.registerDevice(t, i, fmt.Sprintf("token-%d", i))
	}

	b := newTestBroadcaster(env)

	payload, err := json.Marshal(BroadcastFanoutJob{Payload: push.Payload{Title: "news", Body: "hello"}})
	require.NoError(t, err)
	require.NoError(t, b.HandleFanout(ctx, payload))

	var jobs []model.Job
	require.NoError(t, env.db.Where("type = ?", JobTypeBroadcastPage).Order("id ASC").Find(&jobs).Error)
	require.Len(t, jobs, 3)

	var seen []int64
	for _, j := range jobs {
		var page BroadcastPageJob
		require.NoError(t, json.Unmarshal(j.Payload, &page))
		assert.Equal(t, "news", page.Payload.Title)
		seen = append(seen, page.UserIDs...)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seen)
}

func TestBroadcastEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := int64(1); i <= 6; i++ {
		env.registerDevice(t, i, fmt.Sprintf("token-%d", i))
	}

	b := newTestBroadcaster(env)

	jobID, err := b.Broadcast(ctx, push.Payload{Title: "maintenance", Body: "tonight"})
	require.NoError(t, err)
	assert.NotZero(t, jobID)

	// Nothing has been delivered yet: the admin call only enqueued.
	assert.Equal(t, 0, env.channel.callCount())

	require.NoError(t, env.queue.Drain(ctx))
	assert.Equal(t, 6, env.channel.callCount())

	// Every user now carries a broadcast tracker row.
	for i := int64(1); i <= 6; i++ {
		last, err := env.store.LastSent(ctx, i, model.TypeCustomBroadcast)
		require.NoError(t, err)
		assert.NotNil(t, last)
	}

	// A second broadcast inside the cooldown window reaches nobody.
	_, err = b.Broadcast(ctx, push.Payload{Title: "again", Body: "so soon"})
	require.NoError(t, err)
	require.NoError(t, env.queue.Drain(ctx))
	assert.Equal(t, 6, env.channel.callCount())
}

func TestHandlePageSkipsCooldownUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerDevice(t, 1, "token-1")
	env.registerDevice(t, 2, "token-2")

	// User 1 was already broadcast to moments ago.
	require.NoError(t, env.store.MarkSent(ctx, 1, model.TypeCustomBroadcast, env.orch.now().UTC()))

	b := newTestBroadcaster(env)

	payload, err := json.Marshal(BroadcastPageJob{
		UserIDs: []int64{1, 2},
		Payload: push.Payload{Title: "hi", Body: "there"},
	})
	require.NoError(t, err)
	require.NoError(t, b.HandlePage(ctx, payload))

	require.NoError(t, env.queue.Drain(ctx))
	require.Equal(t, 1, env.channel.callCount())
	assert.Equal(t, []string{"token-2"}, env.channel.calls[0].tokens)
}
