package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/db"
)

func TestCreatePlanPeriod_FirstPeriodRequiresStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := CreatePlanPeriod(ctx, f.store, newFakeScheduler(), zap.NewNop(), f.dispatcherCaller(), CreatePlanPeriodInput{
		TeamID:   f.team.ID,
		End:      date("2026-03-31"),
		Deadline: date("2026-02-20"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrMissingStartDate)
}

func TestCreatePlanPeriod_DefaultStartFollowsLastPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	scheduler := newFakeScheduler()
	pp, err := CreatePlanPeriod(ctx, f.store, scheduler, zap.NewNop(), f.dispatcherCaller(), CreatePlanPeriodInput{
		TeamID:   f.team.ID,
		End:      date("2026-04-30"),
		Deadline: date("2026-02-20"),
	})
	require.NoError(t, err)

	assert.Equal(t, date("2026-03-01"), pp.Start)
	assert.Contains(t, scheduler.scheduled, pp.ID)
}

func TestCreatePlanPeriod_RejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	start := date("2026-02-28")
	_, err := CreatePlanPeriod(ctx, f.store, newFakeScheduler(), zap.NewNop(), f.dispatcherCaller(), CreatePlanPeriodInput{
		TeamID:   f.team.ID,
		Start:    &start,
		End:      date("2026-04-30"),
		Deadline: date("2026-02-20"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrInvariant)
}

func TestCreatePlanPeriod_AllowsStartDirectlyAfterLastEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	start := date("2026-03-01")
	pp, err := CreatePlanPeriod(ctx, f.store, newFakeScheduler(), zap.NewNop(), f.dispatcherCaller(), CreatePlanPeriodInput{
		TeamID:   f.team.ID,
		Start:    &start,
		End:      date("2026-04-30"),
		Deadline: date("2026-02-20"),
	})
	require.NoError(t, err)
	assert.Equal(t, date("2026-03-01"), pp.Start)
}

func TestCreatePlanPeriod_RejectsEndBeforeStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := date("2026-03-01")
	_, err := CreatePlanPeriod(ctx, f.store, newFakeScheduler(), zap.NewNop(), f.dispatcherCaller(), CreatePlanPeriodInput{
		TeamID:   f.team.ID,
		Start:    &start,
		End:      date("2026-02-01"),
		Deadline: date("2026-02-20"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrInvariant)
}

func TestCreatePlanPeriod_RequiresDispatcherOfTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := date("2026-03-01")
	_, err := CreatePlanPeriod(ctx, f.store, newFakeScheduler(), zap.NewNop(), f.actorCaller(f.actor1.ID), CreatePlanPeriodInput{
		TeamID:   f.team.ID,
		Start:    &start,
		End:      date("2026-04-30"),
		Deadline: date("2026-02-20"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrPermission)
}

func TestCreatePlanPeriod_SurvivesSchedulerFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scheduler := newFakeScheduler()
	scheduler.err = assert.AnError

	start := date("2026-03-01")
	pp, err := CreatePlanPeriod(ctx, f.store, scheduler, zap.NewNop(), f.dispatcherCaller(), CreatePlanPeriodInput{
		TeamID:   f.team.ID,
		Start:    &start,
		End:      date("2026-04-30"),
		Deadline: date("2026-02-20"),
	})
	require.NoError(t, err)

	// The period is created even though the timer registration failed.
	_, err = f.store.GetPlanPeriod(ctx, pp.ID)
	require.NoError(t, err)
}

func TestUpdatePlanPeriod_DeadlineChangeReschedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pp := f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	scheduler := newFakeScheduler()
	sender := &mockSender{}
	updated, err := UpdatePlanPeriod(ctx, f.store, scheduler, sender, zap.NewNop(), f.dispatcherCaller(), UpdatePlanPeriodInput{
		ID:       pp.ID,
		Start:    pp.Start,
		End:      pp.End,
		Deadline: date("2025-12-20"),
		Notes:    pp.Notes,
		Closed:   false,
	})
	require.NoError(t, err)

	assert.Equal(t, date("2025-12-20"), updated.Deadline)
	assert.Contains(t, scheduler.rescheduled, pp.ID)
	assert.Empty(t, sender.sentEmails)
}

func TestUpdatePlanPeriod_UnchangedDeadlineDoesNotReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pp := f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	scheduler := newFakeScheduler()
	_, err := UpdatePlanPeriod(ctx, f.store, scheduler, &mockSender{}, zap.NewNop(), f.dispatcherCaller(), UpdatePlanPeriodInput{
		ID:       pp.ID,
		Start:    pp.Start,
		End:      pp.End,
		Deadline: pp.Deadline,
		Notes:    "updated notes",
		Closed:   false,
	})
	require.NoError(t, err)
	assert.Empty(t, scheduler.rescheduled)
}

func TestUpdatePlanPeriod_ClosingNotifiesActors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pp := f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	sender := &mockSender{}
	updated, err := UpdatePlanPeriod(ctx, f.store, newFakeScheduler(), sender, zap.NewNop(), f.dispatcherCaller(), UpdatePlanPeriodInput{
		ID:       pp.ID,
		Start:    pp.Start,
		End:      pp.End,
		Deadline: pp.Deadline,
		Notes:    pp.Notes,
		Closed:   true,
	})
	require.NoError(t, err)

	assert.True(t, updated.Closed)
	assert.Contains(t, sender.recipients(), f.actor1.Email)
	assert.Contains(t, sender.recipients(), f.actor2.Email)
}

func TestUpdatePlanPeriod_MailFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pp := f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	sender := &mockSender{failFor: []string{f.actor1.Email, f.actor2.Email}}
	updated, err := UpdatePlanPeriod(ctx, f.store, newFakeScheduler(), sender, zap.NewNop(), f.dispatcherCaller(), UpdatePlanPeriodInput{
		ID:       pp.ID,
		Start:    pp.Start,
		End:      pp.End,
		Deadline: pp.Deadline,
		Notes:    pp.Notes,
		Closed:   true,
	})
	require.NoError(t, err)
	assert.True(t, updated.Closed)

	stored, err := f.store.GetPlanPeriod(ctx, pp.ID)
	require.NoError(t, err)
	assert.True(t, stored.Closed)
}

func TestDeletePlanPeriod_CascadesAndCancelsTimer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pp := f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	require.NoError(t, Submit(ctx, f.store, zap.NewNop(), f.actorCaller(f.actor1.ID), SubmitInput{
		PlanPeriodID: pp.ID,
		Notes:        "bin flexibel",
		Days:         []DayEntry{{Day: date("2026-01-05"), Value: "g"}},
	}))

	scheduler := newFakeScheduler()
	require.NoError(t, DeletePlanPeriod(ctx, f.store, scheduler, zap.NewNop(), f.dispatcherCaller(), pp.ID))

	_, err := f.store.GetPlanPeriod(ctx, pp.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Contains(t, scheduler.cancelled, pp.ID)

	_, ok, err := f.store.GetAvailability(ctx, f.actor1.ID, pp.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastRecentEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok, err := LastRecentEnd(ctx, f.store, f.team.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)
	f.createPeriod(t, "pp-2", "2026-03-01", "2026-04-30", "2026-02-15", false)

	end, ok, err := LastRecentEnd(ctx, f.store, f.team.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date("2026-04-30"), end)
}

func TestOpenPlanPeriods_SkipsClosedAndFlagsFilledIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.createPeriod(t, "pp-open", "2026-01-01", "2026-02-28", "2025-12-15", false)
	f.createPeriod(t, "pp-closed", "2026-03-01", "2026-04-30", "2026-02-15", true)

	require.NoError(t, Submit(ctx, f.store, zap.NewNop(), f.actorCaller(f.actor1.ID), SubmitInput{
		PlanPeriodID: open.ID,
		Days:         []DayEntry{{Day: date("2026-01-05"), Value: "v"}},
	}))

	periods, err := OpenPlanPeriods(ctx, f.store, f.actor1.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, open.ID, periods[0].PlanPeriod.ID)
	assert.True(t, periods[0].FilledIn)

	// actor2 has not submitted anything
	periods, err = OpenPlanPeriods(ctx, f.store, f.actor2.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.False(t, periods[0].FilledIn)
}

func TestPlanPeriodsOfTeam_LimitAndOnlyOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", true)
	f.createPeriod(t, "pp-2", "2026-03-01", "2026-04-30", "2026-02-15", false)
	f.createPeriod(t, "pp-3", "2026-05-01", "2026-06-30", "2026-04-15", false)

	periods, err := PlanPeriodsOfTeam(ctx, f.store, f.dispatcherCaller(), f.team.ID, 0, false)
	require.NoError(t, err)
	require.Len(t, periods, 3)
	// newest first
	assert.Equal(t, "pp-3", periods[0].ID)

	periods, err = PlanPeriodsOfTeam(ctx, f.store, f.dispatcherCaller(), f.team.ID, 1, true)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "pp-3", periods[0].ID)
}

func TestPeriodDays_ExpandsInclusiveRange(t *testing.T) {
	f := newFixture(t)
	pp := f.createPeriod(t, "pp-1", "2026-01-01", "2026-01-05", "2025-12-15", false)

	days, err := PeriodDays(pp)
	require.NoError(t, err)
	require.Len(t, days, 5)
	assert.Equal(t, date("2026-01-01"), days[0])
	assert.Equal(t, date("2026-01-05"), days[4])
}
