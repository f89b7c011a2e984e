package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// AccountStore defines the database operations for account and person
// management
type AccountStore interface {
	db.ProjectStore
	db.PersonStore
	db.TeamStore
}

// NewPerson carries the fields for creating a person. Password may be
// empty; a random one is generated and returned for the welcome mail.
type NewPerson struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// CreateAccountResult is a freshly bootstrapped project: the project,
// its admin and the admin's plaintext password (returned exactly once).
type CreateAccountResult struct {
	Project  model.Project
	Admin    model.Person
	Password string
}

// CreateAccount bootstraps a new project together with its admin. This
// is the supervisor-level operation; the supervisor is authenticated by
// the API layer, not by the entity graph.
func CreateAccount(
	ctx context.Context,
	store AccountStore,
	logger *zap.Logger,
	projectName string,
	admin NewPerson,
) (CreateAccountResult, error) {
	password, hash, err := resolvePassword(admin.Password)
	if err != nil {
		return CreateAccountResult{}, err
	}

	now := time.Now().UTC()
	project := model.Project{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(projectName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateProject(ctx, &project); err != nil {
		return CreateAccountResult{}, err
	}

	person := model.Person{
		ID:           uuid.NewString(),
		FirstName:    admin.FirstName,
		LastName:     admin.LastName,
		Email:        strings.ToLower(strings.TrimSpace(admin.Email)),
		PasswordHash: hash,
		ProjectID:    project.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreatePerson(ctx, &person); err != nil {
		return CreateAccountResult{}, err
	}

	project.AdminID = person.ID
	if err := store.UpdateProject(ctx, project); err != nil {
		return CreateAccountResult{}, err
	}

	logger.Info("account created",
		zap.String("project_id", project.ID), zap.String("admin_id", person.ID))
	return CreateAccountResult{Project: project, Admin: person, Password: password}, nil
}

// CreatePersonResult is a created person plus their plaintext password
// when one was generated.
type CreatePersonResult struct {
	Person   model.Person
	Password string
}

// CreatePerson adds a person to the caller's project (admin-gated).
func CreatePerson(
	ctx context.Context,
	store AccountStore,
	logger *zap.Logger,
	caller Caller,
	in NewPerson,
) (CreatePersonResult, error) {
	admin, err := store.GetPerson(ctx, caller.PersonID)
	if err != nil {
		return CreatePersonResult{}, err
	}
	if err := requireAdminOfProject(ctx, store, caller, admin.ProjectID); err != nil {
		return CreatePersonResult{}, err
	}

	password, hash, err := resolvePassword(in.Password)
	if err != nil {
		return CreatePersonResult{}, err
	}

	now := time.Now().UTC()
	person := model.Person{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		ProjectID:    admin.ProjectID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreatePerson(ctx, &person); err != nil {
		return CreatePersonResult{}, err
	}

	logger.Info("person created",
		zap.String("person_id", person.ID), zap.String("project_id", person.ProjectID))
	return CreatePersonResult{Person: person, Password: password}, nil
}

// UpdatePersonInput sets a person's name and role facets. The facets
// are absolute: DispatcherOfTeams lists every team the person should
// dispatch, ActorTeamID is empty to clear actor membership, MakeAdmin
// moves the project's admin facet onto this person.
type UpdatePersonInput struct {
	PersonID          string
	FirstName         string
	LastName          string
	MakeAdmin         bool
	DispatcherOfTeams []string
	ActorTeamID       string
}

// UpdatePerson updates a person and their relationship facets
// (admin-gated, same project). The store keeps both relationship sides
// consistent; setting a team's dispatcher here rewires the team record.
func UpdatePerson(
	ctx context.Context,
	store AccountStore,
	logger *zap.Logger,
	caller Caller,
	in UpdatePersonInput,
) (model.Person, error) {
	person, err := store.GetPerson(ctx, in.PersonID)
	if err != nil {
		return model.Person{}, err
	}
	if err := requireAdminOfProject(ctx, store, caller, person.ProjectID); err != nil {
		return model.Person{}, err
	}

	if in.MakeAdmin {
		project, err := store.GetProject(ctx, person.ProjectID)
		if err != nil {
			return model.Person{}, err
		}
		// At most one admin per project: the facet moves, it is never
		// duplicated.
		project.AdminID = person.ID
		project.UpdatedAt = time.Now().UTC()
		if err := store.UpdateProject(ctx, project); err != nil {
			return model.Person{}, err
		}
	}

	for _, teamID := range in.DispatcherOfTeams {
		team, err := store.GetTeam(ctx, teamID)
		if err != nil {
			return model.Person{}, err
		}
		if team.DispatcherID != person.ID {
			team.DispatcherID = person.ID
			team.UpdatedAt = time.Now().UTC()
			if err := store.UpdateTeam(ctx, team); err != nil {
				return model.Person{}, err
			}
		}
	}

	person.FirstName = in.FirstName
	person.LastName = in.LastName
	person.ActorTeamID = in.ActorTeamID
	person.UpdatedAt = time.Now().UTC()
	if err := store.UpdatePerson(ctx, person); err != nil {
		return model.Person{}, err
	}

	logger.Info("person updated", zap.String("person_id", person.ID))
	return person, nil
}

// DeletePerson removes a person from the caller's project. The store
// rejects deleting a person who still administers the project or
// dispatches a team.
func DeletePerson(ctx context.Context, store AccountStore, logger *zap.Logger, caller Caller, personID string) error {
	person, err := store.GetPerson(ctx, personID)
	if err != nil {
		return err
	}
	if err := requireAdminOfProject(ctx, store, caller, person.ProjectID); err != nil {
		return err
	}
	if err := store.DeletePerson(ctx, personID); err != nil {
		return err
	}
	logger.Info("person deleted", zap.String("person_id", personID))
	return nil
}

// SetNewPassword generates a fresh password for a person, stores the
// hash and mails the plaintext (admin-gated).
func SetNewPassword(
	ctx context.Context,
	store AccountStore,
	sender Sender,
	logger *zap.Logger,
	caller Caller,
	personID string,
) error {
	person, err := store.GetPerson(ctx, personID)
	if err != nil {
		return err
	}
	if err := requireAdminOfProject(ctx, store, caller, person.ProjectID); err != nil {
		return err
	}
	project, err := store.GetProject(ctx, person.ProjectID)
	if err != nil {
		return err
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	person.PasswordHash = hash
	person.UpdatedAt = time.Now().UTC()
	if err := store.UpdatePerson(ctx, person); err != nil {
		return err
	}

	subject, body := newPasswordMail(person, project.Name, password)
	if err := sender.SendEmail(person.Email, subject, body); err != nil {
		// The password is already rotated; the admin can trigger a
		// resend, so report without undoing the write.
		logger.Warn("new password mail failed",
			zap.String("person_id", person.ID), zap.Error(err))
	}
	return nil
}

// SetActorAccountSettings lets an actor change their own login email
// and password.
func SetActorAccountSettings(
	ctx context.Context,
	store db.PersonStore,
	logger *zap.Logger,
	caller Caller,
	newEmail, newPassword string,
) (model.Person, error) {
	if !caller.Roles.Has(auth.RoleActor) {
		return model.Person{}, fmt.Errorf("%w: actor role required", db.ErrPermission)
	}
	person, err := store.GetPerson(ctx, caller.PersonID)
	if err != nil {
		return model.Person{}, err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return model.Person{}, err
	}
	person.Email = strings.ToLower(strings.TrimSpace(newEmail))
	person.PasswordHash = hash
	person.UpdatedAt = time.Now().UTC()
	if err := store.UpdatePerson(ctx, person); err != nil {
		return model.Person{}, err
	}
	logger.Info("actor account settings changed", zap.String("person_id", person.ID))
	return person, nil
}

// Login verifies credentials and the requested authorization and issues
// a bearer token. The role check runs against the current entity graph.
func Login(
	ctx context.Context,
	graph auth.RoleGraph,
	secret string,
	email, password string,
	authorization auth.Role,
) (string, error) {
	person, err := graph.GetPersonByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("%w: invalid credentials", db.ErrPermission)
	}
	if !auth.VerifyPassword(password, person.PasswordHash) {
		return "", fmt.Errorf("%w: invalid credentials", db.ErrPermission)
	}
	roles, err := auth.Resolve(ctx, graph, person.ID)
	if err != nil {
		return "", err
	}
	if !roles.Has(auth.Role(authorization)) {
		return "", fmt.Errorf("%w: role %s not held", db.ErrPermission, authorization)
	}
	return auth.IssueToken(secret, person.ID, authorization)
}

func resolvePassword(password string) (plaintext, hash string, err error) {
	if password == "" {
		if password, err = auth.GeneratePassword(); err != nil {
			return "", "", err
		}
	}
	if hash, err = auth.HashPassword(password); err != nil {
		return "", "", err
	}
	return password, hash, nil
}
