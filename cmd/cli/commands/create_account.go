package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hccplan/dispo/pkg/core/services"
)

// CreateAccountCmd creates the createAccount command
func CreateAccountCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createAccount <project-name> <admin-email>",
		Short: "Bootstrap a new project with its admin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectName := args[0]
			email := args[1]
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")

			result, err := services.CreateAccount(app.Ctx, app.Database, app.Logger, projectName, services.NewPerson{
				FirstName: firstName,
				LastName:  lastName,
				Email:     email,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Account created!\n\n")
			fmt.Printf("Project:  %s (%s)\n", result.Project.Name, result.Project.ID)
			fmt.Printf("Admin:    %s (%s)\n", result.Admin.FullName(), result.Admin.Email)
			fmt.Printf("Password: %s\n", result.Password)
			fmt.Println("\nThe password is shown exactly once - pass it on securely.")
			return nil
		},
	}

	cmd.Flags().String("first-name", "", "Admin's first name")
	cmd.Flags().String("last-name", "", "Admin's last name")

	return cmd
}
