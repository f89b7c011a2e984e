package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/core/services"
)

// NewPlanPeriodCmd creates the newPlanPeriod command
func NewPlanPeriodCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newPlanPeriod <dispatcher-email> <team-id> <end> <deadline>",
		Short: "Create a plan period for a team (dates as YYYY-MM-DD)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.callerByEmail(args[0])
			if err != nil {
				return err
			}
			end, err := time.Parse(model.DateFormat, args[2])
			if err != nil {
				return fmt.Errorf("invalid end date: %w", err)
			}
			deadline, err := time.Parse(model.DateFormat, args[3])
			if err != nil {
				return fmt.Errorf("invalid deadline: %w", err)
			}

			var start *time.Time
			if startStr, _ := cmd.Flags().GetString("start"); startStr != "" {
				s, err := time.Parse(model.DateFormat, startStr)
				if err != nil {
					return fmt.Errorf("invalid start date: %w", err)
				}
				start = &s
			}
			notes, _ := cmd.Flags().GetString("notes")

			pp, err := services.CreatePlanPeriod(app.Ctx, app.Database, app.Scheduler, app.Logger, caller, services.CreatePlanPeriodInput{
				TeamID:   args[1],
				Start:    start,
				End:      end,
				Deadline: deadline,
				Notes:    notes,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Plan period created: %s\n", pp.ID)
			fmt.Printf("  %s to %s, feedback due %s\n",
				pp.Start.Format(model.DateFormat),
				pp.End.Format(model.DateFormat),
				pp.Deadline.Format(model.DateFormat))
			return nil
		},
	}

	cmd.Flags().String("start", "", "Start date (defaults to the day after the team's last period end)")
	cmd.Flags().String("notes", "", "Notes shown on the availability form")

	return cmd
}
