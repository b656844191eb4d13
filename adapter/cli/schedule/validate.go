package schedule

import (
	"fmt"
	"strings"

	"github.com/domicare/rota/adapter/cli"
	"github.com/domicare/rota/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var (
	validateFrom string
	validateTo   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-check appointments against current state",
	Long: `Re-checks every scheduled and needs-reassignment appointment in the
window. Appointments whose care giver or receiver has been removed,
deactivated, or booked on time off move to needs_reassignment;
previously flagged appointments whose issues have cleared move back
to scheduled.

Examples:
  rota schedule validate --from 2026-01-05 --to 2026-01-11`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ValidateScheduleHandler == nil {
			fmt.Println("Schedule commands require a database connection.")
			fmt.Println("Set DATABASE_URL or ROTA_SQLITE_PATH and try again.")
			return nil
		}

		from, to, err := parseRange(validateFrom, validateTo)
		if err != nil {
			return err
		}

		report, err := app.ValidateScheduleHandler.Handle(cmd.Context(), commands.ValidateScheduleCommand{
			StartDate: from,
			EndDate:   to,
		})
		if err != nil {
			return fmt.Errorf("failed to validate schedule: %w", err)
		}

		fmt.Printf("Validation %s .. %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
		fmt.Println(strings.Repeat("=", 60))

		if len(report.Invalid) == 0 {
			fmt.Printf("\n  All %d appointments hold.\n", report.Checked)
		} else {
			fmt.Println("\nNeeds reassignment:")
			for _, invalid := range report.Invalid {
				appt := invalid.Appointment
				fmt.Printf("  %s  %s-%s  visit %d  (%s)\n",
					appt.Date().Format("2006-01-02"),
					appt.StartTime(), appt.EndTime(), appt.VisitNumber(), appt.ID())
				for _, issue := range invalid.Issues {
					fmt.Printf("      - %s\n", issue)
				}
			}
		}

		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("Summary: %d checked, %d valid, %d invalid, %d restored\n",
			report.Checked, len(report.Valid), len(report.Invalid), report.Restored)

		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFrom, "from", "", "start date (YYYY-MM-DD, default: today)")
	validateCmd.Flags().StringVar(&validateTo, "to", "", "end date (YYYY-MM-DD, default: one week from start)")
}
