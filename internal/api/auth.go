package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/core/services"
)

type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Authorization string `json:"authorization"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Login verifies credentials under a requested authorization and
// returns a bearer token. Supervisor logins run against the configured
// environment credentials, everything else against the entity graph.
func (a *API) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	role := auth.Role(req.Authorization)
	if !role.IsValid() {
		return badRequest(c, "unknown authorization")
	}

	if role == auth.RoleSupervisor {
		if !strings.EqualFold(req.Email, a.supervisorEmail) || req.Password != a.supervisorPassword {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid credentials"})
		}
		token, err := auth.IssueToken(a.jwtSecret, SupervisorID, auth.RoleSupervisor)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(LoginResponse{Token: token})
	}

	token, err := services.Login(c.Context(), a.store, a.jwtSecret, req.Email, req.Password, role)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(LoginResponse{Token: token})
}
