// Package api exposes the application over HTTP: fiber route groups per
// authorization (supervisor, admin, dispatcher, actor) in front of the
// core services, with bearer-token middleware and uniform error
// mapping.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/core/services"
	"github.com/hccplan/dispo/pkg/db"
)

// API bundles the collaborators the handlers need.
type API struct {
	store     db.Store
	scheduler services.ReminderScheduler
	sender    services.Sender
	logger    *zap.Logger

	jwtSecret          string
	supervisorEmail    string
	supervisorPassword string
}

func New(
	store db.Store,
	scheduler services.ReminderScheduler,
	sender services.Sender,
	logger *zap.Logger,
	jwtSecret, supervisorEmail, supervisorPassword string,
) *API {
	return &API{
		store:              store,
		scheduler:          scheduler,
		sender:             sender,
		logger:             logger,
		jwtSecret:          jwtSecret,
		supervisorEmail:    supervisorEmail,
		supervisorPassword: supervisorPassword,
	}
}

// RegisterRoutes mounts every route group on the app.
func (a *API) RegisterRoutes(app *fiber.App) {
	app.Post("/auth/login", a.Login)

	su := app.Group("/su", a.RequireAuth(auth.RoleSupervisor))
	su.Post("/account", a.CreateAccount)
	su.Delete("/project/:id", a.DeleteProject)

	admin := app.Group("/admin", a.RequireAuth(auth.RoleAdmin))
	admin.Get("/persons", a.PersonsOfProject)
	admin.Post("/person", a.CreatePerson)
	admin.Put("/person", a.UpdatePerson)
	admin.Delete("/person/:id", a.DeletePerson)
	admin.Post("/person/:id/new-password", a.SetNewPassword)
	admin.Get("/teams", a.TeamsOfProject)
	admin.Post("/team", a.CreateTeam)
	admin.Put("/team", a.RenameTeam)
	admin.Delete("/team/:id", a.DeleteTeam)

	dispatcher := app.Group("/dispatcher", a.RequireAuth(auth.RoleDispatcher))
	dispatcher.Get("/teams", a.TeamsOfDispatcher)
	dispatcher.Get("/actors", a.ActorsOfDispatcher)
	dispatcher.Get("/plan-periods/:teamID", a.PlanPeriodsOfTeam)
	dispatcher.Get("/pp-last-recent-date/:teamID", a.LastRecentEnd)
	dispatcher.Post("/plan-period", a.CreatePlanPeriod)
	dispatcher.Put("/plan-period", a.UpdatePlanPeriod)
	dispatcher.Delete("/plan-period/:id", a.DeletePlanPeriod)
	dispatcher.Get("/avail-days/:planPeriodID", a.AvailabilitiesOfPeriod)
	dispatcher.Get("/status-planperiod/:planPeriodID", a.PlanPeriodStatus)
	dispatcher.Post("/send-reminders/:planPeriodID", a.SendReminders)

	actors := app.Group("/actors", a.RequireAuth(auth.RoleActor))
	actors.Get("/plan-periods", a.OpenPlanPeriods)
	actors.Get("/availability/:planPeriodID", a.MyAvailability)
	actors.Post("/availability", a.SubmitAvailability)
	actors.Put("/account-settings", a.SetAccountSettings)
}

// caller extracts the authenticated caller stored by RequireAuth.
func caller(c *fiber.Ctx) services.Caller {
	cl, _ := c.Locals("caller").(services.Caller)
	return cl
}
