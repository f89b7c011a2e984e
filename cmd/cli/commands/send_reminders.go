package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hccplan/dispo/pkg/core/services"
)

// SendRemindersCmd creates the sendReminders command
func SendRemindersCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sendReminders <plan-period-id>",
		Short: "Send deadline reminders to actors who have not responded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sent, failed, err := services.SendDeadlineReminders(app.Ctx, app.Database, app.Sender, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Reminder batch completed!\n\n")

			if len(sent) > 0 {
				fmt.Printf("Reminders sent to %d actors:\n", len(sent))
				for _, s := range sent {
					fmt.Printf("  ✓ %s (%s)\n", s.Name, s.Email)
				}
				fmt.Println()
			}

			if len(failed) > 0 {
				fmt.Printf("⚠️  Failed to send %d emails:\n", len(failed))
				for _, f := range failed {
					fmt.Printf("  ✗ %s (%s): %s\n", f.Name, f.Email, f.Error)
				}
				fmt.Println()
			}

			if len(sent) == 0 && len(failed) == 0 {
				fmt.Println("Everyone has already responded - nothing to send.")
			}
			return nil
		},
	}

	return cmd
}
