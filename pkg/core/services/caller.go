package services

import (
	"context"
	"fmt"

	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// Caller identifies who is invoking an operation. The person ID and
// role set come from an already-verified bearer token plus the role
// resolver; services never see credential material.
type Caller struct {
	PersonID string
	Roles    auth.RoleSet
}

// requireAdminOfProject checks that the caller administers the project.
func requireAdminOfProject(ctx context.Context, store db.ProjectStore, caller Caller, projectID string) error {
	if !caller.Roles.Has(auth.RoleAdmin) {
		return fmt.Errorf("%w: admin role required", db.ErrPermission)
	}
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.AdminID != caller.PersonID {
		return fmt.Errorf("%w: not the admin of this project", db.ErrPermission)
	}
	return nil
}

// requireDispatcherOfTeam checks that the caller dispatches the team.
func requireDispatcherOfTeam(ctx context.Context, store db.TeamStore, caller Caller, teamID string) (model.Team, error) {
	if !caller.Roles.Has(auth.RoleDispatcher) {
		return model.Team{}, fmt.Errorf("%w: dispatcher role required", db.ErrPermission)
	}
	team, err := store.GetTeam(ctx, teamID)
	if err != nil {
		return model.Team{}, err
	}
	if team.DispatcherID != caller.PersonID {
		return model.Team{}, fmt.Errorf("%w: not the dispatcher of this team", db.ErrPermission)
	}
	return team, nil
}

// requireActorOfTeam checks that the caller is the actor-member of the
// team. Actors only ever operate on their own team's plan periods.
func requireActorOfTeam(ctx context.Context, store db.PersonStore, caller Caller, teamID string) (model.Person, error) {
	if !caller.Roles.Has(auth.RoleActor) {
		return model.Person{}, fmt.Errorf("%w: actor role required", db.ErrPermission)
	}
	person, err := store.GetPerson(ctx, caller.PersonID)
	if err != nil {
		return model.Person{}, err
	}
	if person.ActorTeamID != teamID {
		return model.Person{}, fmt.Errorf("%w: not an actor of this team", db.ErrPermission)
	}
	return person, nil
}
