package schedule

import (
	"fmt"
	"strings"

	"github.com/domicare/rota/adapter/cli"
	"github.com/domicare/rota/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	unscheduledFrom string
	unscheduledTo   string
)

var unscheduledCmd = &cobra.Command{
	Use:   "unscheduled",
	Short: "List visits without an appointment",
	Long: `Expands every active care receiver's templates over the window and
reports the expansions that have no appointment, with the reason a
placement attempt would fail today.

Examples:
  rota schedule unscheduled --from 2026-01-05 --to 2026-01-11`,
	Aliases: []string{"gaps", "missing"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UnscheduledVisitsHandler == nil {
			fmt.Println("Schedule commands require a database connection.")
			fmt.Println("Set DATABASE_URL or ROTA_SQLITE_PATH and try again.")
			return nil
		}

		from, to, err := parseRange(unscheduledFrom, unscheduledTo)
		if err != nil {
			return err
		}

		report, err := app.UnscheduledVisitsHandler.Handle(cmd.Context(), queries.UnscheduledVisitsQuery{
			StartDate: from,
			EndDate:   to,
		})
		if err != nil {
			return fmt.Errorf("failed to list unscheduled visits: %w", err)
		}

		fmt.Printf("Unscheduled visits %s .. %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
		fmt.Println(strings.Repeat("=", 60))

		if report.TotalMissing == 0 {
			fmt.Println("\n  Every expanded visit has an appointment.")
			return nil
		}

		for _, receiver := range report.Receivers {
			fmt.Printf("\n%s (%s)\n", receiver.CareReceiverName, receiver.CareReceiverID)
			for _, visit := range receiver.Visits {
				marker := "[--]"
				if visit.Schedulable {
					marker = "[ok]"
				}
				fmt.Printf("  %s %s  %s  visit %d (%dm)  %s\n",
					marker,
					visit.Date.Format("2006-01-02"),
					visit.StartTime, visit.VisitNumber, visit.DurationMinutes,
					visit.Reason)
			}
		}

		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("Total missing: %d\n", report.TotalMissing)
		fmt.Println("Visits marked [ok] just need a generate run.")

		return nil
	},
}

func init() {
	unscheduledCmd.Flags().StringVar(&unscheduledFrom, "from", "", "start date (YYYY-MM-DD, default: today)")
	unscheduledCmd.Flags().StringVar(&unscheduledTo, "to", "", "end date (YYYY-MM-DD, default: one week from start)")
}
