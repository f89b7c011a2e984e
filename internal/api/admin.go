package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hccplan/dispo/pkg/core/services"
)

// PersonsOfProject lists every person of the admin's project.
func (a *API) PersonsOfProject(c *fiber.Ctx) error {
	cl := caller(c)
	admin, err := a.store.GetPerson(c.Context(), cl.PersonID)
	if err != nil {
		return fail(c, err)
	}
	persons, err := a.store.PersonsOfProject(c.Context(), admin.ProjectID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(personInfos(persons))
}

type CreatePersonRequest struct {
	FirstName string `json:"f_name"`
	LastName  string `json:"l_name"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
}

type CreatePersonResponse struct {
	Person   PersonInfo `json:"person"`
	Password string     `json:"password,omitempty"`
}

func (a *API) CreatePerson(c *fiber.Ctx) error {
	var req CreatePersonRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "email is required")
	}

	result, err := services.CreatePerson(c.Context(), a.store, a.logger, caller(c), services.NewPerson{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(CreatePersonResponse{
		Person:   personInfo(result.Person),
		Password: result.Password,
	})
}

type UpdatePersonRequest struct {
	PersonID          string   `json:"person_id"`
	FirstName         string   `json:"f_name"`
	LastName          string   `json:"l_name"`
	MakeAdmin         bool     `json:"make_admin"`
	DispatcherOfTeams []string `json:"dispatcher_of_teams"`
	ActorTeamID       string   `json:"actor_team_id"`
}

func (a *API) UpdatePerson(c *fiber.Ctx) error {
	var req UpdatePersonRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	person, err := services.UpdatePerson(c.Context(), a.store, a.logger, caller(c), services.UpdatePersonInput{
		PersonID:          req.PersonID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		MakeAdmin:         req.MakeAdmin,
		DispatcherOfTeams: req.DispatcherOfTeams,
		ActorTeamID:       req.ActorTeamID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(personInfo(person))
}

func (a *API) DeletePerson(c *fiber.Ctx) error {
	personID := c.Params("id")
	if err := services.DeletePerson(c.Context(), a.store, a.logger, caller(c), personID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"deleted": personID})
}

// SetNewPassword rotates a person's password and mails the plaintext.
func (a *API) SetNewPassword(c *fiber.Ctx) error {
	personID := c.Params("id")
	if err := services.SetNewPassword(c.Context(), a.store, a.sender, a.logger, caller(c), personID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "password sent"})
}

func (a *API) TeamsOfProject(c *fiber.Ctx) error {
	cl := caller(c)
	admin, err := a.store.GetPerson(c.Context(), cl.PersonID)
	if err != nil {
		return fail(c, err)
	}
	teams, err := a.store.TeamsOfProject(c.Context(), admin.ProjectID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(teamInfos(teams))
}

type CreateTeamRequest struct {
	Name         string `json:"name"`
	DispatcherID string `json:"dispatcher_id"`
}

func (a *API) CreateTeam(c *fiber.Ctx) error {
	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Name == "" || req.DispatcherID == "" {
		return badRequest(c, "name and dispatcher_id are required")
	}

	team, err := services.CreateTeam(c.Context(), a.store, a.logger, caller(c), req.Name, req.DispatcherID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(teamInfo(team))
}

type RenameTeamRequest struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
}

func (a *API) RenameTeam(c *fiber.Ctx) error {
	var req RenameTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	team, err := services.RenameTeam(c.Context(), a.store, a.logger, caller(c), req.TeamID, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(teamInfo(team))
}

func (a *API) DeleteTeam(c *fiber.Ctx) error {
	teamID := c.Params("id")
	if err := services.DeleteTeam(c.Context(), a.store, a.scheduler, a.logger, caller(c), teamID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"deleted": teamID})
}
