package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/core/services"
)

// SupervisorID is the synthetic person ID carried by supervisor tokens.
// The supervisor is authenticated against environment credentials and
// never exists in the entity graph.
const SupervisorID = "supervisor"

// RequireAuth verifies the bearer token and checks that the caller
// still holds the required role against the current entity graph. The
// resolved caller is stored in locals for the handler.
func (a *API) RequireAuth(required auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
		}

		claims, err := auth.VerifyToken(a.jwtSecret, parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		if claims.Authorization != required {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
		}

		if required == auth.RoleSupervisor {
			if claims.PersonID != SupervisorID {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
			}
			c.Locals("caller", services.Caller{
				PersonID: SupervisorID,
				Roles:    auth.RoleSet{auth.RoleSupervisor: true},
			})
			return c.Next()
		}

		// Roles are derived from the graph per request, so a revoked
		// facet takes effect before the token expires.
		roles, err := auth.Resolve(c.Context(), a.store, claims.PersonID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		if !roles.Has(required) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
		}

		c.Locals("caller", services.Caller{PersonID: claims.PersonID, Roles: roles})
		return c.Next()
	}
}
