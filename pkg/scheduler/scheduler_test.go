package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/db"
	"github.com/hccplan/dispo/pkg/db/memory"
)

// fakeRuntime records calls instead of starting real timers, so bridge
// tests can assert on ordering without waiting.
type fakeRuntime struct {
	mu      sync.Mutex
	added   map[string]time.Time
	removed []string
	fns     map[string]func()
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		added: make(map[string]time.Time),
		fns:   make(map[string]func()),
	}
}

func (f *fakeRuntime) Add(id string, fireAt time.Time, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added[id] = fireAt
	f.fns[id] = fn
}

func (f *fakeRuntime) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	delete(f.added, id)
	delete(f.fns, id)
}

func (f *fakeRuntime) Pending() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.added))
	for id := range f.added {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeRuntime) Stop() {}

// fire invokes the registered callback for id, as the runtime would at
// the fire time.
func (f *fakeRuntime) fire(id string) {
	f.mu.Lock()
	fn := f.fns[id]
	delete(f.added, id)
	delete(f.fns, id)
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func TestFireAt_MidnightOnDeadlineDay(t *testing.T) {
	deadline := time.Date(2026, 3, 15, 17, 42, 11, 0, time.UTC)

	got := FireAt(deadline)

	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestBridge_SchedulePersistsBeforeAdding(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	runtime := newFakeRuntime()
	bridge := NewBridge(runtime, store, func(context.Context, string) {}, zap.NewNop())
	deadline := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	err := bridge.Schedule(ctx, "pp-1", deadline)

	require.NoError(t, err)
	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "pp-1", jobs[0].PlanPeriodID)
	assert.Equal(t, CallbackDeadlineReminder, jobs[0].Callback)
	assert.Equal(t, FireAt(deadline), jobs[0].FireAt)
	assert.Equal(t, FireAt(deadline), runtime.added["pp-1"])
}

func TestBridge_RescheduleReplacesRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	runtime := newFakeRuntime()
	bridge := NewBridge(runtime, store, func(context.Context, string) {}, zap.NewNop())
	require.NoError(t, bridge.Schedule(ctx, "pp-1", time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)))

	newDeadline := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
	err := bridge.Reschedule(ctx, "pp-1", newDeadline)

	require.NoError(t, err)
	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, FireAt(newDeadline), jobs[0].FireAt)
	assert.Equal(t, FireAt(newDeadline), runtime.added["pp-1"])
}

func TestBridge_CancelRemovesTimerAndRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	runtime := newFakeRuntime()
	bridge := NewBridge(runtime, store, func(context.Context, string) {}, zap.NewNop())
	require.NoError(t, bridge.Schedule(ctx, "pp-1", time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)))

	err := bridge.Cancel(ctx, "pp-1")

	require.NoError(t, err)
	assert.Contains(t, runtime.removed, "pp-1")
	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestBridge_CancelAbsentJobIsNoError(t *testing.T) {
	store := memory.NewStore()
	bridge := NewBridge(newFakeRuntime(), store, func(context.Context, string) {}, zap.NewNop())

	err := bridge.Cancel(context.Background(), "never-scheduled")

	assert.NoError(t, err)
}

func TestBridge_FireRunsCallbackAndDeletesRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	runtime := newFakeRuntime()
	var fired []string
	bridge := NewBridge(runtime, store, func(_ context.Context, id string) {
		fired = append(fired, id)
	}, zap.NewNop())
	require.NoError(t, bridge.Schedule(ctx, "pp-1", time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)))

	runtime.fire("pp-1")

	assert.Equal(t, []string{"pp-1"}, fired)
	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestBridge_OnRestartRebuildsTimers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	fireAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveJob(ctx, db.ReminderJob{
		PlanPeriodID: "pp-1",
		FireAt:       fireAt,
		Callback:     CallbackDeadlineReminder,
	}))
	require.NoError(t, store.SaveJob(ctx, db.ReminderJob{
		PlanPeriodID: "pp-2",
		FireAt:       fireAt.AddDate(0, 0, 7),
		Callback:     CallbackDeadlineReminder,
	}))
	runtime := newFakeRuntime()
	bridge := NewBridge(runtime, store, func(context.Context, string) {}, zap.NewNop())

	err := bridge.OnRestart(ctx)

	require.NoError(t, err)
	assert.Equal(t, fireAt, runtime.added["pp-1"])
	assert.Equal(t, fireAt.AddDate(0, 0, 7), runtime.added["pp-2"])
}

func TestBridge_OnRestartSkipsUnknownCallback(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveJob(ctx, db.ReminderJob{
		PlanPeriodID: "pp-1",
		FireAt:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Callback:     "unknown-callback",
	}))
	runtime := newFakeRuntime()
	bridge := NewBridge(runtime, store, func(context.Context, string) {}, zap.NewNop())

	err := bridge.OnRestart(ctx)

	require.NoError(t, err)
	assert.Empty(t, runtime.Pending())
}

func TestRuntime_PastFireTimeFiresImmediately(t *testing.T) {
	runtime := NewRuntime()
	defer runtime.Stop()
	fired := make(chan struct{})

	runtime.Add("pp-1", time.Now().Add(-time.Hour), func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("overdue timer did not fire")
	}
}

func TestRuntime_AddReplacesExistingTimer(t *testing.T) {
	runtime := NewRuntime()
	defer runtime.Stop()
	fired := make(chan string, 2)

	runtime.Add("pp-1", time.Now().Add(time.Hour), func() { fired <- "first" })
	runtime.Add("pp-1", time.Now().Add(20*time.Millisecond), func() { fired <- "second" })

	assert.Equal(t, []string{"pp-1"}, runtime.Pending())
	select {
	case got := <-fired:
		assert.Equal(t, "second", got)
	case <-time.After(2 * time.Second):
		t.Fatal("replacement timer did not fire")
	}
	select {
	case got := <-fired:
		t.Fatalf("replaced timer fired: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRuntime_FiredJobLeavesPending(t *testing.T) {
	runtime := NewRuntime()
	defer runtime.Stop()
	fired := make(chan struct{})

	runtime.Add("pp-1", time.Now().Add(10*time.Millisecond), func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Empty(t, runtime.Pending())
}

func TestRuntime_RemoveStopsTimer(t *testing.T) {
	runtime := NewRuntime()
	defer runtime.Stop()
	fired := make(chan struct{}, 1)

	runtime.Add("pp-1", time.Now().Add(30*time.Millisecond), func() { fired <- struct{}{} })
	runtime.Remove("pp-1")

	assert.Empty(t, runtime.Pending())
	select {
	case <-fired:
		t.Fatal("removed timer fired")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestRuntime_StopCancelsAll(t *testing.T) {
	runtime := NewRuntime()
	fired := make(chan struct{}, 2)

	runtime.Add("pp-1", time.Now().Add(30*time.Millisecond), func() { fired <- struct{}{} })
	runtime.Add("pp-2", time.Now().Add(30*time.Millisecond), func() { fired <- struct{}{} })
	runtime.Stop()

	assert.Empty(t, runtime.Pending())
	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(150 * time.Millisecond):
	}
}
