package assets

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

func newSchedulerFixture(t *testing.T, at time.Time, interval time.Duration, resetHour int) (*Scheduler, *memStore, *clockwork.FakeClock) {
	t.Helper()
	store := newMemStore()
	clock := clockwork.NewFakeClockAt(at)
	engine := NewResetEngine(store, clock)
	sched := NewScheduler(engine, primitive.NewObjectID(), interval, resetHour, clock)
	t.Cleanup(sched.Stop)
	return sched, store, clock
}

func markerSet(store *memStore, date string) func() bool {
	return func() bool {
		done, err := store.HasDailyResetMarker(context.Background(), date)
		return err == nil && done
	}
}

func TestSchedulerRunsAfterResetHour(t *testing.T) {
	at := time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC)
	sched, store, clock := newSchedulerFixture(t, at, time.Hour, 1)
	seedState(t, store, primitive.NewObjectID(), "Thabo Nkosi", models.AssetTypeLaptop, "2024-06-01", models.StateCollected)

	sched.Start()
	clock.BlockUntil(1)
	clock.Advance(time.Hour)

	require.Eventually(t, markerSet(store, "2024-06-02"), 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, store.incidentCount())

	require.Eventually(t, func() bool {
		return !sched.Status().LastRunAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerTickIsIdempotentPerDay(t *testing.T) {
	at := time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC)
	sched, store, clock := newSchedulerFixture(t, at, time.Hour, 1)
	seedState(t, store, primitive.NewObjectID(), "Thabo Nkosi", models.AssetTypeLaptop, "2024-06-01", models.StateCollected)

	sched.Start()
	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	require.Eventually(t, markerSet(store, "2024-06-02"), 2*time.Second, 10*time.Millisecond)

	// Later checks the same day find the marker and do nothing.
	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	assert.Never(t, func() bool {
		return store.incidentCount() > 1
	}, 300*time.Millisecond, 25*time.Millisecond)
}

func TestSchedulerWaitsForResetHour(t *testing.T) {
	at := time.Date(2024, 6, 2, 0, 10, 0, 0, time.UTC)
	sched, store, clock := newSchedulerFixture(t, at, 10*time.Minute, 1)
	seedState(t, store, primitive.NewObjectID(), "Thabo Nkosi", models.AssetTypeLaptop, "2024-06-01", models.StateCollected)

	sched.Start()
	clock.BlockUntil(1)
	clock.Advance(10 * time.Minute) // 00:20, before the reset hour

	assert.Never(t, markerSet(store, "2024-06-02"), 300*time.Millisecond, 25*time.Millisecond)

	clock.BlockUntil(1)
	clock.Advance(50 * time.Minute) // past 01:00

	require.Eventually(t, markerSet(store, "2024-06-02"), 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerStartAndStop(t *testing.T) {
	at := time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC)
	sched, _, _ := newSchedulerFixture(t, at, time.Hour, 1)

	assert.False(t, sched.Status().Running)

	sched.Start()
	sched.Start() // second call is a no-op
	status := sched.Status()
	assert.True(t, status.Running)
	assert.Equal(t, time.Hour.String(), status.CheckInterval)
	assert.Equal(t, 1, status.ResetHour)

	sched.Stop()
	sched.Stop()
	assert.False(t, sched.Status().Running)
}

func TestSchedulerTriggerNow(t *testing.T) {
	at := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	sched, store, _ := newSchedulerFixture(t, at, time.Hour, 1)
	seedState(t, store, primitive.NewObjectID(), "Lindiwe Dlamini", models.AssetTypeHeadsets, "2024-06-01", models.StateNotReturned)

	result, err := sched.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Performed)
	assert.Equal(t, 1, result.ResetCount)
	assert.Equal(t, at, sched.Status().LastRunAt)

	result, err = sched.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Performed)
}
