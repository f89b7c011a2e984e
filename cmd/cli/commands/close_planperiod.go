package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hccplan/dispo/pkg/core/services"
)

// ClosePlanPeriodCmd creates the closePlanPeriod command
func ClosePlanPeriodCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "closePlanPeriod <dispatcher-email> <plan-period-id>",
		Short: "Close a plan period and notify its actors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.callerByEmail(args[0])
			if err != nil {
				return err
			}
			pp, err := app.Database.GetPlanPeriod(app.Ctx, args[1])
			if err != nil {
				return err
			}

			updated, err := services.UpdatePlanPeriod(app.Ctx, app.Database, app.Scheduler, app.Sender, app.Logger, caller, services.UpdatePlanPeriodInput{
				ID:       pp.ID,
				Start:    pp.Start,
				End:      pp.End,
				Deadline: pp.Deadline,
				Notes:    pp.Notes,
				Closed:   true,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Plan period %s closed\n", updated.ID)
			return nil
		},
	}

	return cmd
}
