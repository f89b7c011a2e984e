package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/core/services"
)

type CreateAccountRequest struct {
	ProjectName string `json:"project_name"`
	FirstName   string `json:"f_name"`
	LastName    string `json:"l_name"`
	Email       string `json:"email"`
	Password    string `json:"password,omitempty"`
}

type CreateAccountResponse struct {
	ProjectID string     `json:"project_id"`
	Admin     PersonInfo `json:"admin"`
	Password  string     `json:"password"`
}

// CreateAccount bootstraps a new project with its admin (supervisor
// only). The generated password is returned exactly once.
func (a *API) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ProjectName == "" || req.Email == "" {
		return badRequest(c, "project_name and email are required")
	}

	result, err := services.CreateAccount(c.Context(), a.store, a.logger, req.ProjectName, services.NewPerson{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(CreateAccountResponse{
		ProjectID: result.Project.ID,
		Admin:     personInfo(result.Admin),
		Password:  result.Password,
	})
}

// DeleteProject removes a whole project (supervisor only). The delete
// is ordered through the team and period cascades.
func (a *API) DeleteProject(c *fiber.Ctx) error {
	projectID := c.Params("id")

	project, err := a.store.GetProject(c.Context(), projectID)
	if err != nil {
		return fail(c, err)
	}
	// The service gates on the project admin; the supervisor acts as
	// that admin here.
	adminCaller := services.Caller{PersonID: project.AdminID, Roles: auth.RoleSet{auth.RoleAdmin: true}}
	if err := services.DeleteProject(c.Context(), a.store, a.scheduler, a.logger, adminCaller, projectID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"deleted": projectID})
}
