package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hccplan/dispo/pkg/core/services"
)

// AddPersonCmd creates the addPerson command
func AddPersonCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addPerson <admin-email> <email>",
		Short: "Add a person to the admin's project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.callerByEmail(args[0])
			if err != nil {
				return err
			}
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")

			result, err := services.CreatePerson(app.Ctx, app.Database, app.Logger, caller, services.NewPerson{
				FirstName: firstName,
				LastName:  lastName,
				Email:     args[1],
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Person created: %s (%s)\n", result.Person.FullName(), result.Person.Email)
			fmt.Printf("Password: %s\n", result.Password)
			return nil
		},
	}

	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name")

	return cmd
}
