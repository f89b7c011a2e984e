package scheduler

import (
	"sort"
	"sync"
	"time"
)

// TimerRuntime is the in-process timer primitive the bridge schedules
// on: one-shot jobs keyed by ID. Injected as a dependency so tests can
// substitute their own.
type TimerRuntime interface {
	// Add registers fn to run once at fireAt, replacing any existing
	// job with the same ID (stop old, then start new; never zero or
	// two timers for one ID). A fire time in the past fires
	// immediately.
	Add(id string, fireAt time.Time, fn func())
	// Remove stops and drops a job; no-op if absent.
	Remove(id string)
	// Pending returns the IDs of jobs that have not fired yet.
	Pending() []string
	// Stop cancels all jobs.
	Stop()
}

type timerJob struct {
	timer  *time.Timer
	fireAt time.Time
}

// Runtime schedules one-shot jobs on time.Timer, a map of jobs behind
// one mutex. Callbacks run on their own goroutine (time.AfterFunc), so
// a slow callback never delays other timers.
type Runtime struct {
	mu   sync.Mutex
	jobs map[string]*timerJob
}

func NewRuntime() *Runtime {
	return &Runtime{jobs: make(map[string]*timerJob)}
}

var _ TimerRuntime = (*Runtime)(nil)

func (r *Runtime) Add(id string, fireAt time.Time, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[id]; ok {
		existing.timer.Stop()
	}

	wrapped := func() {
		r.mu.Lock()
		delete(r.jobs, id)
		r.mu.Unlock()
		fn()
	}
	r.jobs[id] = &timerJob{
		timer:  time.AfterFunc(time.Until(fireAt), wrapped),
		fireAt: fireAt,
	}
}

func (r *Runtime) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.timer.Stop()
		delete(r.jobs, id)
	}
}

func (r *Runtime) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, job := range r.jobs {
		job.timer.Stop()
		delete(r.jobs, id)
	}
}
