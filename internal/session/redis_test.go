package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-scheduling-agent/internal/availability"
)

func newRedisBackend(t *testing.T, ttl time.Duration) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client, ttl), mr
}

func TestRedisBackendRoundTrip(t *testing.T) {
	backend, mr := newRedisBackend(t, 0)
	ctx := context.Background()

	missing, err := backend.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	st := &State{
		SessionID:      "s1",
		DialogState:    StateAwaitingSlot,
		PreferredDate:  "2025-03-06",
		AvailableSlots: []availability.TimeSlot{{StartTime: "09:00", EndTime: "09:30", Available: true, DoctorID: 1}},
	}
	require.NoError(t, backend.Save(ctx, st))
	assert.True(t, mr.Exists("session:s1"))
	assert.Equal(t, time.Duration(0), mr.TTL("session:s1"))

	got, err := backend.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingSlot, got.DialogState)
	require.Len(t, got.AvailableSlots, 1)
	assert.Equal(t, "09:00", got.AvailableSlots[0].StartTime)

	require.NoError(t, backend.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("session:s1"))
}

func TestRedisBackendTTL(t *testing.T) {
	backend, mr := newRedisBackend(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, &State{SessionID: "s1"}))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))

	mr.FastForward(2 * time.Hour)
	got, err := backend.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisBackendCorruptPayload(t *testing.T) {
	backend, mr := newRedisBackend(t, 0)
	require.NoError(t, mr.Set("session:bad", "{nope"))

	_, err := backend.Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestStoreOverRedis(t *testing.T) {
	backend, _ := newRedisBackend(t, 0)
	store := NewStore(backend, nil)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, "s1", func(st *State) error {
		st.DialogState = StateAwaitingName
		return nil
	}))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingName, got.DialogState)
}
