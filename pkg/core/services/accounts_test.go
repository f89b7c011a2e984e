package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/db"
	"github.com/hccplan/dispo/pkg/db/memory"
)

func TestCreateAccount_BootstrapsProjectWithAdmin(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	result, err := CreateAccount(ctx, store, zap.NewNop(), "HCC", NewPerson{
		FirstName: "Anna",
		LastName:  "Acker",
		Email:     "Anna@Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "anna@example.com", result.Admin.Email)
	assert.NotEmpty(t, result.Password)
	assert.True(t, auth.VerifyPassword(result.Password, result.Admin.PasswordHash))

	project, err := store.GetProject(ctx, result.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Admin.ID, project.AdminID)

	roles, err := auth.Resolve(ctx, store, result.Admin.ID)
	require.NoError(t, err)
	assert.True(t, roles.Has(auth.RoleAdmin))
}

func TestCreateAccount_RejectsDuplicateProjectName(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_, err := CreateAccount(ctx, store, zap.NewNop(), "HCC", NewPerson{Email: "a@example.com"})
	require.NoError(t, err)

	_, err = CreateAccount(ctx, store, zap.NewNop(), "HCC", NewPerson{Email: "b@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrUniqueness)
}

func TestCreatePerson_GeneratesPasswordWhenAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := CreatePerson(ctx, f.store, zap.NewNop(), f.adminCaller(), NewPerson{
		FirstName: "Gustav",
		LastName:  "Graf",
		Email:     "gustav@example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Password)
	assert.True(t, auth.VerifyPassword(result.Password, result.Person.PasswordHash))
	assert.Equal(t, f.project.ID, result.Person.ProjectID)
}

func TestCreatePerson_RejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := CreatePerson(ctx, f.store, zap.NewNop(), f.adminCaller(), NewPerson{
		Email: f.actor1.Email,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrUniqueness)
}

func TestCreatePerson_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := CreatePerson(ctx, f.store, zap.NewNop(), f.dispatcherCaller(), NewPerson{
		Email: "new@example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrPermission)
}

func TestUpdatePerson_AdminFacetMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := UpdatePerson(ctx, f.store, zap.NewNop(), f.adminCaller(), UpdatePersonInput{
		PersonID:  f.dispatcher.ID,
		FirstName: f.dispatcher.FirstName,
		LastName:  f.dispatcher.LastName,
		MakeAdmin: true,
	})
	require.NoError(t, err)

	// At most one admin: the facet is on the new person only.
	project, err := f.store.GetProject(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, f.dispatcher.ID, project.AdminID)

	oldRoles, err := auth.Resolve(ctx, f.store, f.admin.ID)
	require.NoError(t, err)
	assert.False(t, oldRoles.Has(auth.RoleAdmin))

	newRoles, err := auth.Resolve(ctx, f.store, f.dispatcher.ID)
	require.NoError(t, err)
	assert.True(t, newRoles.Has(auth.RoleAdmin))
}

func TestUpdatePerson_RewiresDispatcherTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := UpdatePerson(ctx, f.store, zap.NewNop(), f.adminCaller(), UpdatePersonInput{
		PersonID:          f.actor1.ID,
		FirstName:         f.actor1.FirstName,
		LastName:          f.actor1.LastName,
		DispatcherOfTeams: []string{f.team.ID},
		ActorTeamID:       f.actor1.ActorTeamID,
	})
	require.NoError(t, err)

	team, err := f.store.GetTeam(ctx, f.team.ID)
	require.NoError(t, err)
	assert.Equal(t, f.actor1.ID, team.DispatcherID)

	roles, err := auth.Resolve(ctx, f.store, f.actor1.ID)
	require.NoError(t, err)
	assert.True(t, roles.Has(auth.RoleDispatcher))
	assert.True(t, roles.Has(auth.RoleActor))
}

func TestDeletePerson_RejectsActingAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := DeletePerson(ctx, f.store, zap.NewNop(), f.adminCaller(), f.admin.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrInvariant)
}

func TestSetNewPassword_RotatesAndMails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.store.GetPerson(ctx, f.actor1.ID)
	require.NoError(t, err)

	sender := &mockSender{}
	require.NoError(t, SetNewPassword(ctx, f.store, sender, zap.NewNop(), f.adminCaller(), f.actor1.ID))

	after, err := f.store.GetPerson(ctx, f.actor1.ID)
	require.NoError(t, err)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)

	require.Len(t, sender.sentEmails, 1)
	assert.Equal(t, f.actor1.Email, sender.sentEmails[0].to)
}

func TestSetNewPassword_MailFailureKeepsRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.store.GetPerson(ctx, f.actor1.ID)
	require.NoError(t, err)

	sender := &mockSender{failFor: []string{f.actor1.Email}}
	require.NoError(t, SetNewPassword(ctx, f.store, sender, zap.NewNop(), f.adminCaller(), f.actor1.ID))

	after, err := f.store.GetPerson(ctx, f.actor1.ID)
	require.NoError(t, err)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)
}

func TestSetActorAccountSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	person, err := SetActorAccountSettings(ctx, f.store, zap.NewNop(), f.actorCaller(f.actor1.ID),
		"Neu@Example.com", "neues-passwort")
	require.NoError(t, err)

	assert.Equal(t, "neu@example.com", person.Email)
	assert.True(t, auth.VerifyPassword("neues-passwort", person.PasswordHash))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	secret := "test-secret"

	hash, err := auth.HashPassword("geheim")
	require.NoError(t, err)
	f.dispatcher.PasswordHash = hash
	require.NoError(t, f.store.UpdatePerson(ctx, f.dispatcher))

	token, err := Login(ctx, f.store, secret, f.dispatcher.Email, "geheim", auth.RoleDispatcher)
	require.NoError(t, err)

	claims, err := auth.VerifyToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, f.dispatcher.ID, claims.PersonID)
	assert.Equal(t, auth.RoleDispatcher, claims.Authorization)
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("geheim")
	require.NoError(t, err)
	f.dispatcher.PasswordHash = hash
	require.NoError(t, f.store.UpdatePerson(ctx, f.dispatcher))

	_, err = Login(ctx, f.store, "s", f.dispatcher.Email, "falsch", auth.RoleDispatcher)
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrPermission)
}

func TestLogin_RejectsUnheldRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("geheim")
	require.NoError(t, err)
	f.actor1.PasswordHash = hash
	require.NoError(t, f.store.UpdatePerson(ctx, f.actor1))

	_, err = Login(ctx, f.store, "s", f.actor1.Email, "geheim", auth.RoleAdmin)
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrPermission)
}
