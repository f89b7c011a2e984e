package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// ReminderScheduler is the scheduler bridge as seen by the lifecycle
// operations: deadline timers keyed by plan period ID.
type ReminderScheduler interface {
	Schedule(ctx context.Context, planPeriodID string, deadline time.Time) error
	Reschedule(ctx context.Context, planPeriodID string, deadline time.Time) error
	Cancel(ctx context.Context, planPeriodID string) error
}

// PlanPeriodStore defines the database operations the lifecycle needs
type PlanPeriodStore interface {
	db.TeamStore
	db.PlanPeriodStore
}

// CreatePlanPeriodInput carries the dispatcher's creation request.
// Start may be nil: it then defaults to the day after the team's most
// recent period end.
type CreatePlanPeriodInput struct {
	TeamID   string
	Start    *time.Time
	End      time.Time
	Deadline time.Time
	Notes    string
}

// CreatePlanPeriod creates a plan period for a team and registers its
// deadline reminder. A new period must lie strictly after every
// existing period of the team.
func CreatePlanPeriod(
	ctx context.Context,
	store PlanPeriodStore,
	scheduler ReminderScheduler,
	logger *zap.Logger,
	caller Caller,
	in CreatePlanPeriodInput,
) (model.PlanPeriod, error) {
	if _, err := requireDispatcherOfTeam(ctx, store, caller, in.TeamID); err != nil {
		return model.PlanPeriod{}, err
	}

	maxEnd, hasPrior, err := LastRecentEnd(ctx, store, in.TeamID)
	if err != nil {
		return model.PlanPeriod{}, err
	}

	start := time.Time{}
	if in.Start != nil {
		start = model.Date(*in.Start)
	}
	end := model.Date(in.End)
	deadline := model.Date(in.Deadline)

	switch {
	case start.IsZero() && !hasPrior:
		return model.PlanPeriod{}, fmt.Errorf("%w: team has no prior plan period", db.ErrMissingStartDate)
	case start.IsZero():
		start = maxEnd.AddDate(0, 0, 1)
	case hasPrior && !start.After(maxEnd):
		return model.PlanPeriod{}, fmt.Errorf("%w: start date lies within the last plan period", db.ErrInvariant)
	}
	if end.Before(start) {
		return model.PlanPeriod{}, fmt.Errorf("%w: end date must not be before start date", db.ErrInvariant)
	}

	now := time.Now().UTC()
	pp := model.PlanPeriod{
		ID:        uuid.NewString(),
		TeamID:    in.TeamID,
		Start:     start,
		End:       end,
		Deadline:  deadline,
		Notes:     in.Notes,
		Closed:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreatePlanPeriod(ctx, &pp); err != nil {
		return model.PlanPeriod{}, err
	}

	if err := scheduler.Schedule(ctx, pp.ID, pp.Deadline); err != nil {
		// The period exists; a lost timer is recoverable by editing the
		// deadline, so surface the problem without undoing the create.
		logger.Error("failed to schedule deadline reminder",
			zap.String("plan_period_id", pp.ID), zap.Error(err))
	}

	logger.Info("plan period created",
		zap.String("plan_period_id", pp.ID),
		zap.String("team_id", pp.TeamID),
		zap.String("start", pp.Start.Format(model.DateFormat)),
		zap.String("end", pp.End.Format(model.DateFormat)),
		zap.String("deadline", pp.Deadline.Format(model.DateFormat)))

	return pp, nil
}

// UpdatePlanPeriodInput is a full-field overwrite of one plan period.
type UpdatePlanPeriodInput struct {
	ID       string
	Start    time.Time
	End      time.Time
	Deadline time.Time
	Notes    string
	Closed   bool
}

// UpdatePlanPeriod overwrites a plan period. A changed deadline
// atomically replaces the reminder timer; an open→closed transition
// triggers the period-closed notification batch. Notification failures
// never roll back the write.
func UpdatePlanPeriod(
	ctx context.Context,
	store AggregatorStore,
	scheduler ReminderScheduler,
	sender Sender,
	logger *zap.Logger,
	caller Caller,
	in UpdatePlanPeriodInput,
) (model.PlanPeriod, error) {
	existing, err := store.GetPlanPeriod(ctx, in.ID)
	if err != nil {
		return model.PlanPeriod{}, err
	}
	if _, err := requireDispatcherOfTeam(ctx, store, caller, existing.TeamID); err != nil {
		return model.PlanPeriod{}, err
	}

	pp := existing
	pp.Start = model.Date(in.Start)
	pp.End = model.Date(in.End)
	pp.Deadline = model.Date(in.Deadline)
	pp.Notes = in.Notes
	pp.Closed = in.Closed
	pp.UpdatedAt = time.Now().UTC()

	if pp.End.Before(pp.Start) {
		return model.PlanPeriod{}, fmt.Errorf("%w: end date must not be before start date", db.ErrInvariant)
	}

	if err := store.UpdatePlanPeriod(ctx, pp); err != nil {
		return model.PlanPeriod{}, err
	}

	if !pp.Deadline.Equal(existing.Deadline) {
		if err := scheduler.Reschedule(ctx, pp.ID, pp.Deadline); err != nil {
			logger.Error("failed to reschedule deadline reminder",
				zap.String("plan_period_id", pp.ID), zap.Error(err))
		}
	}

	if pp.Closed && !existing.Closed {
		sent, failed := notifyPeriodClosed(ctx, store, sender, logger, pp)
		logger.Info("period closed notifications dispatched",
			zap.String("plan_period_id", pp.ID),
			zap.Int("sent", sent), zap.Int("failed", failed))
	}

	return pp, nil
}

// DeletePlanPeriod removes a plan period together with all of its
// availabilities and cancels any pending reminder.
func DeletePlanPeriod(
	ctx context.Context,
	store PlanPeriodStore,
	scheduler ReminderScheduler,
	logger *zap.Logger,
	caller Caller,
	planPeriodID string,
) error {
	pp, err := store.GetPlanPeriod(ctx, planPeriodID)
	if err != nil {
		return err
	}
	if _, err := requireDispatcherOfTeam(ctx, store, caller, pp.TeamID); err != nil {
		return err
	}

	if err := store.DeletePlanPeriod(ctx, planPeriodID); err != nil {
		return err
	}
	if err := scheduler.Cancel(ctx, planPeriodID); err != nil {
		logger.Error("failed to cancel deadline reminder",
			zap.String("plan_period_id", planPeriodID), zap.Error(err))
	}

	logger.Info("plan period deleted", zap.String("plan_period_id", planPeriodID))
	return nil
}

// LastRecentEnd returns the latest end date across a team's plan
// periods. ok is false when the team has no periods yet.
func LastRecentEnd(ctx context.Context, store db.PlanPeriodStore, teamID string) (time.Time, bool, error) {
	periods, err := store.PlanPeriodsOfTeam(ctx, teamID)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(periods) == 0 {
		return time.Time{}, false, nil
	}
	maxEnd := periods[0].End
	for _, pp := range periods[1:] {
		if pp.End.After(maxEnd) {
			maxEnd = pp.End
		}
	}
	return maxEnd, true, nil
}

// PlanPeriodFilledIn is an open plan period together with whether the
// actor has already submitted days for it.
type PlanPeriodFilledIn struct {
	PlanPeriod model.PlanPeriod
	FilledIn   bool
}

// OpenPlanPeriods returns the open periods of the actor's team, sorted
// by start date, each flagged with the actor's submission state.
func OpenPlanPeriods(ctx context.Context, store AggregatorStore, actorID string) ([]PlanPeriodFilledIn, error) {
	person, err := store.GetPerson(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if person.ActorTeamID == "" {
		return nil, fmt.Errorf("%w: person is not an actor", db.ErrPermission)
	}

	periods, err := store.PlanPeriodsOfTeam(ctx, person.ActorTeamID)
	if err != nil {
		return nil, err
	}

	var out []PlanPeriodFilledIn
	for _, pp := range periods {
		if pp.Closed {
			continue
		}
		sub, ok, err := store.GetAvailability(ctx, actorID, pp.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, PlanPeriodFilledIn{
			PlanPeriod: pp,
			FilledIn:   ok && len(sub.Days) > 0,
		})
	}
	return out, nil
}

// PlanPeriodsOfTeam lists a team's periods for the dispatcher, newest
// first. limit > 0 caps the result; onlyOpen filters closed periods.
func PlanPeriodsOfTeam(
	ctx context.Context,
	store PlanPeriodStore,
	caller Caller,
	teamID string,
	limit int,
	onlyOpen bool,
) ([]model.PlanPeriod, error) {
	if _, err := requireDispatcherOfTeam(ctx, store, caller, teamID); err != nil {
		return nil, err
	}
	periods, err := store.PlanPeriodsOfTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	// newest first
	for i, j := 0, len(periods)-1; i < j; i, j = i+1, j-1 {
		periods[i], periods[j] = periods[j], periods[i]
	}

	var out []model.PlanPeriod
	for _, pp := range periods {
		if onlyOpen && pp.Closed {
			continue
		}
		out = append(out, pp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// PeriodDays expands a plan period into its calendar days, used to
// render the availability form.
func PeriodDays(pp model.PlanPeriod) ([]time.Time, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: pp.Start,
		Until:   pp.End,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expand plan period days: %w", err)
	}
	return rule.All(), nil
}
