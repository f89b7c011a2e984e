package auth

import (
	"context"

	"github.com/hccplan/dispo/pkg/db"
)

// Role is a capability a person holds, derived from the entity graph.
type Role string

const (
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleActor      Role = "actor"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSupervisor, RoleAdmin, RoleDispatcher, RoleActor:
		return true
	}
	return false
}

// RoleSet is the set of roles a person currently holds.
type RoleSet map[Role]bool

func (rs RoleSet) Has(r Role) bool { return rs[r] }

// RoleGraph is the slice of the entity graph the resolver reads.
type RoleGraph interface {
	db.ProjectStore
	db.TeamStore
	db.PersonStore
}

// Resolve computes the role set of a person from the current entity
// graph: admin iff the person administers their project, dispatcher iff
// they dispatch at least one team, actor iff they are the actor-member
// of a team. No caching; recomputed per request.
func Resolve(ctx context.Context, graph RoleGraph, personID string) (RoleSet, error) {
	person, err := graph.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	roles := make(RoleSet)

	project, err := graph.GetProject(ctx, person.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.AdminID == person.ID {
		roles[RoleAdmin] = true
	}

	teams, err := graph.TeamsOfDispatcher(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	if len(teams) > 0 {
		roles[RoleDispatcher] = true
	}

	if person.ActorTeamID != "" {
		roles[RoleActor] = true
	}

	return roles, nil
}
