package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// TeamAdminStore defines the database operations for team management.
// Team deletion needs the plan period store because the cascade through
// periods and availabilities is explicit and ordered, never left to the
// storage engine.
type TeamAdminStore interface {
	db.ProjectStore
	db.PersonStore
	db.TeamStore
	db.PlanPeriodStore
}

// CreateTeam creates a team under the caller's project (admin-gated).
// The dispatcher must belong to the same project.
func CreateTeam(
	ctx context.Context,
	store TeamAdminStore,
	logger *zap.Logger,
	caller Caller,
	name, dispatcherID string,
) (model.Team, error) {
	admin, err := store.GetPerson(ctx, caller.PersonID)
	if err != nil {
		return model.Team{}, err
	}
	if err := requireAdminOfProject(ctx, store, caller, admin.ProjectID); err != nil {
		return model.Team{}, err
	}
	dispatcher, err := store.GetPerson(ctx, dispatcherID)
	if err != nil {
		return model.Team{}, err
	}
	if dispatcher.ProjectID != admin.ProjectID {
		return model.Team{}, fmt.Errorf("%w: dispatcher belongs to another project", db.ErrPermission)
	}

	now := time.Now().UTC()
	team := model.Team{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		DispatcherID: dispatcher.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateTeam(ctx, &team); err != nil {
		return model.Team{}, err
	}

	logger.Info("team created",
		zap.String("team_id", team.ID), zap.String("dispatcher_id", dispatcher.ID))
	return team, nil
}

// RenameTeam changes a team's name (admin-gated, same project).
func RenameTeam(ctx context.Context, store TeamAdminStore, logger *zap.Logger, caller Caller, teamID, newName string) (model.Team, error) {
	team, err := store.GetTeam(ctx, teamID)
	if err != nil {
		return model.Team{}, err
	}
	dispatcher, err := store.GetPerson(ctx, team.DispatcherID)
	if err != nil {
		return model.Team{}, err
	}
	if err := requireAdminOfProject(ctx, store, caller, dispatcher.ProjectID); err != nil {
		return model.Team{}, err
	}

	team.Name = strings.TrimSpace(newName)
	team.UpdatedAt = time.Now().UTC()
	if err := store.UpdateTeam(ctx, team); err != nil {
		return model.Team{}, err
	}
	return team, nil
}

// DeleteTeam removes a team (admin-gated). The delete is explicitly
// ordered: every plan period of the team goes first, each cascading its
// own availabilities and cancelling its reminder, then the team record.
func DeleteTeam(
	ctx context.Context,
	store TeamAdminStore,
	scheduler ReminderScheduler,
	logger *zap.Logger,
	caller Caller,
	teamID string,
) error {
	team, err := store.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	dispatcher, err := store.GetPerson(ctx, team.DispatcherID)
	if err != nil {
		return err
	}
	if err := requireAdminOfProject(ctx, store, caller, dispatcher.ProjectID); err != nil {
		return err
	}

	periods, err := store.PlanPeriodsOfTeam(ctx, teamID)
	if err != nil {
		return err
	}
	for _, pp := range periods {
		if err := store.DeletePlanPeriod(ctx, pp.ID); err != nil {
			return err
		}
		if err := scheduler.Cancel(ctx, pp.ID); err != nil {
			logger.Error("failed to cancel deadline reminder",
				zap.String("plan_period_id", pp.ID), zap.Error(err))
		}
	}
	if err := store.DeleteTeam(ctx, teamID); err != nil {
		return err
	}

	logger.Info("team deleted",
		zap.String("team_id", teamID), zap.Int("plan_periods_removed", len(periods)))
	return nil
}

// DeleteProject removes a project (admin-gated): every team first, each
// via the ordered team delete, then persons and the project record.
func DeleteProject(
	ctx context.Context,
	store TeamAdminStore,
	scheduler ReminderScheduler,
	logger *zap.Logger,
	caller Caller,
	projectID string,
) error {
	if err := requireAdminOfProject(ctx, store, caller, projectID); err != nil {
		return err
	}

	teams, err := store.TeamsOfProject(ctx, projectID)
	if err != nil {
		return err
	}
	for _, team := range teams {
		if err := DeleteTeam(ctx, store, scheduler, logger, caller, team.ID); err != nil {
			return err
		}
	}
	if err := store.DeleteProject(ctx, projectID); err != nil {
		return err
	}

	logger.Info("project deleted",
		zap.String("project_id", projectID), zap.Int("teams_removed", len(teams)))
	return nil
}

// TeamsOfDispatcher lists the teams the caller dispatches.
func TeamsOfDispatcher(ctx context.Context, store db.TeamStore, caller Caller) ([]model.Team, error) {
	return store.TeamsOfDispatcher(ctx, caller.PersonID)
}

// ActorsOfDispatcher lists every actor across the caller's teams.
func ActorsOfDispatcher(ctx context.Context, store AggregatorStore, caller Caller) ([]model.Person, error) {
	teams, err := store.TeamsOfDispatcher(ctx, caller.PersonID)
	if err != nil {
		return nil, err
	}
	var out []model.Person
	for _, team := range teams {
		actors, err := store.ActorsOfTeam(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, actors...)
	}
	return out, nil
}
