package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hccplan/dispo/pkg/core/services"
)

// AddTeamCmd creates the addTeam command
func AddTeamCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addTeam <admin-email> <team-name> <dispatcher-email>",
		Short: "Create a team under the admin's project",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.callerByEmail(args[0])
			if err != nil {
				return err
			}
			dispatcher, err := app.Database.GetPersonByEmail(app.Ctx, args[2])
			if err != nil {
				return err
			}

			team, err := services.CreateTeam(app.Ctx, app.Database, app.Logger, caller, args[1], dispatcher.ID)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Team created: %s (%s), dispatcher %s\n", team.Name, team.ID, dispatcher.FullName())
			return nil
		},
	}

	return cmd
}
