package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/core/services"
)

// ViewResponsesCmd creates the viewResponses command
func ViewResponsesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewResponses <plan-period-id>",
		Short: "Show every submitted availability for a plan period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPeriodID := args[0]

			pp, err := app.Database.GetPlanPeriod(app.Ctx, planPeriodID)
			if err != nil {
				return err
			}
			availabilities, err := services.ByPeriod(app.Ctx, app.Database, planPeriodID)
			if err != nil {
				return err
			}
			nonResponders, err := services.NotYetResponded(app.Ctx, app.Database, planPeriodID)
			if err != nil {
				return err
			}

			fmt.Printf("\nPlan period %s to %s (deadline %s)\n\n",
				pp.Start.Format(model.DateFormat),
				pp.End.Format(model.DateFormat),
				pp.Deadline.Format(model.DateFormat))

			if len(availabilities) == 0 {
				fmt.Println("No responses yet.")
			}
			for _, av := range availabilities {
				fmt.Printf("%s (%s)\n", av.Person.FullName(), av.Person.Email)
				for _, d := range av.Days {
					fmt.Printf("  %s  %s\n", d.Day.Format(model.DateFormat), d.TimeOfDay)
				}
				if av.Notes != "" {
					fmt.Printf("  Notes: %s\n", av.Notes)
				}
				fmt.Println()
			}

			if len(nonResponders) > 0 {
				fmt.Printf("Not yet responded (%d):\n", len(nonResponders))
				for _, p := range nonResponders {
					fmt.Printf("  - %s (%s)\n", p.FullName(), p.Email)
				}
			}
			return nil
		},
	}

	return cmd
}
