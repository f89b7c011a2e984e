// Package scheduler maintains the durable mapping from plan periods to
// their one-shot deadline reminder timers. Timer records are persisted
// as structured {period, fire time, callback name} rows, never as
// serialized closures, so OnRestart can rebuild every timer after a
// process restart.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// CallbackDeadlineReminder is the symbolic name persisted in job
// records; it resolves to the bridge's fire function in any process.
const CallbackDeadlineReminder = "deadline-reminder"

// FireFunc handles a fired reminder for one plan period.
type FireFunc func(ctx context.Context, planPeriodID string)

// FireAt maps a deadline date to the instant its reminder fires:
// 00:00 UTC on the deadline day itself. Earlier revisions of the system
// wavered between the deadline and the day before; this is the one
// place encoding the policy.
func FireAt(deadline time.Time) time.Time {
	return model.Date(deadline)
}

// Bridge ties the timer runtime to the persisted job records and the
// fire callback.
type Bridge struct {
	runtime TimerRuntime
	jobs    db.JobStore
	fire    FireFunc
	logger  *zap.Logger
}

func NewBridge(runtime TimerRuntime, jobs db.JobStore, fire FireFunc, logger *zap.Logger) *Bridge {
	return &Bridge{runtime: runtime, jobs: jobs, fire: fire, logger: logger}
}

// Schedule registers a reminder timer for a plan period, persisting the
// job record first so a crash between the write and the timer add loses
// nothing across the next restart.
func (b *Bridge) Schedule(ctx context.Context, planPeriodID string, deadline time.Time) error {
	fireAt := FireAt(deadline)
	job := db.ReminderJob{
		PlanPeriodID: planPeriodID,
		FireAt:       fireAt,
		Callback:     CallbackDeadlineReminder,
	}
	if err := b.jobs.SaveJob(ctx, job); err != nil {
		return err
	}
	b.runtime.Add(planPeriodID, fireAt, b.fireJob(planPeriodID))

	b.logger.Info("reminder scheduled",
		zap.String("plan_period_id", planPeriodID),
		zap.Time("fire_at", fireAt))
	return nil
}

// Reschedule atomically replaces the timer for a plan period. The
// runtime's Add replaces in one step, so there is never a window with
// zero or two timers for the same period.
func (b *Bridge) Reschedule(ctx context.Context, planPeriodID string, deadline time.Time) error {
	return b.Schedule(ctx, planPeriodID, deadline)
}

// Cancel removes the timer and its persisted record. Cancelling an
// absent or already-fired job is not an error; losing the race against
// an in-flight fire just means one extra notification.
func (b *Bridge) Cancel(ctx context.Context, planPeriodID string) error {
	b.runtime.Remove(planPeriodID)
	return b.jobs.DeleteJob(ctx, planPeriodID)
}

// OnRestart reloads all persisted job records and re-registers their
// timers. Called once at process startup. A record whose fire time has
// already passed fires immediately rather than being dropped.
func (b *Bridge) OnRestart(ctx context.Context) error {
	records, err := b.jobs.ListJobs(ctx)
	if err != nil {
		return err
	}
	for _, job := range records {
		if job.Callback != CallbackDeadlineReminder {
			b.logger.Warn("skipping job with unknown callback",
				zap.String("plan_period_id", job.PlanPeriodID),
				zap.String("callback", job.Callback))
			continue
		}
		b.runtime.Add(job.PlanPeriodID, job.FireAt, b.fireJob(job.PlanPeriodID))
	}
	b.logger.Info("scheduler restored", zap.Int("jobs", len(records)))
	return nil
}

// fireJob wraps the fire callback for one period: run the handler, then
// delete the job's own record (self-deleting one-shot). The runtime
// already runs this off its dispatch path.
func (b *Bridge) fireJob(planPeriodID string) func() {
	return func() {
		ctx := context.Background()
		b.logger.Info("reminder fired", zap.String("plan_period_id", planPeriodID))
		b.fire(ctx, planPeriodID)
		if err := b.jobs.DeleteJob(ctx, planPeriodID); err != nil {
			b.logger.Error("failed to delete fired job record",
				zap.String("plan_period_id", planPeriodID), zap.Error(err))
		}
	}
}
