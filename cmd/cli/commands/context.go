package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/hccplan/dispo/internal/config"
	"github.com/hccplan/dispo/pkg/core/auth"
	"github.com/hccplan/dispo/pkg/core/services"
	"github.com/hccplan/dispo/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg       *config.Config
	Database  *postgres.DB
	Sender    services.Sender
	Scheduler services.ReminderScheduler
	Logger    *zap.Logger
	Ctx       context.Context
}

// callerByEmail loads the person acting as the command's caller and
// resolves their current roles. Admin commands act as a real admin of
// the target project, never as an ambient superuser.
func (app *AppContext) callerByEmail(email string) (services.Caller, error) {
	person, err := app.Database.GetPersonByEmail(app.Ctx, email)
	if err != nil {
		return services.Caller{}, err
	}
	roles, err := auth.Resolve(app.Ctx, app.Database, person.ID)
	if err != nil {
		return services.Caller{}, err
	}
	return services.Caller{PersonID: person.ID, Roles: roles}, nil
}
