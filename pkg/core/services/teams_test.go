package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

func TestCreateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := CreateTeam(ctx, f.store, zap.NewNop(), f.adminCaller(), "Technik", f.dispatcher.ID)
	require.NoError(t, err)
	assert.Equal(t, "Technik", team.Name)
	assert.Equal(t, f.dispatcher.ID, team.DispatcherID)
}

func TestCreateTeam_RejectsDispatcherFromOtherProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	other := model.Project{ID: "proj-2", Name: "Other", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.CreateProject(ctx, &other))
	outsider := model.Person{ID: "out-1", Email: "out@example.com", ProjectID: "proj-2", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.CreatePerson(ctx, &outsider))

	_, err := CreateTeam(ctx, f.store, zap.NewNop(), f.adminCaller(), "Fremd", outsider.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrPermission)
}

func TestRenameTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := RenameTeam(ctx, f.store, zap.NewNop(), f.adminCaller(), f.team.ID, "Bühne Nord")
	require.NoError(t, err)
	assert.Equal(t, "Bühne Nord", team.Name)
}

func TestDeleteTeam_OrderedCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pp := f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	require.NoError(t, Submit(ctx, f.store, zap.NewNop(), f.actorCaller(f.actor1.ID), SubmitInput{
		PlanPeriodID: pp.ID,
		Days:         []DayEntry{{Day: date("2026-01-05"), Value: "g"}},
	}))

	scheduler := newFakeScheduler()
	require.NoError(t, DeleteTeam(ctx, f.store, scheduler, zap.NewNop(), f.adminCaller(), f.team.ID))

	_, err := f.store.GetTeam(ctx, f.team.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = f.store.GetPlanPeriod(ctx, pp.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Contains(t, scheduler.cancelled, pp.ID)

	// Actors survive the team delete, just without a team.
	actor, err := f.store.GetPerson(ctx, f.actor1.ID)
	require.NoError(t, err)
	assert.Empty(t, actor.ActorTeamID)
}

func TestDeleteProject_OrderedCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pp := f.createPeriod(t, "pp-1", "2026-01-01", "2026-02-28", "2025-12-15", false)

	scheduler := newFakeScheduler()
	require.NoError(t, DeleteProject(ctx, f.store, scheduler, zap.NewNop(), f.adminCaller(), f.project.ID))

	_, err := f.store.GetProject(ctx, f.project.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = f.store.GetTeam(ctx, f.team.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Contains(t, scheduler.cancelled, pp.ID)
}

func TestTeamsOfDispatcher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	teams, err := TeamsOfDispatcher(ctx, f.store, f.dispatcherCaller())
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, f.team.ID, teams[0].ID)
}

func TestActorsOfDispatcher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	actors, err := ActorsOfDispatcher(ctx, f.store, f.dispatcherCaller())
	require.NoError(t, err)
	assert.Len(t, actors, 2)
}
