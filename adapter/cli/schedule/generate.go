package schedule

import (
	"fmt"
	"strings"

	"github.com/domicare/rota/adapter/cli"
	"github.com/domicare/rota/internal/scheduling/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	generateFrom      string
	generateTo        string
	generateReceivers []string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate appointments for a date range",
	Long: `Expands every matching visit template into dated appointments and
assigns the best feasible care giver to each (plus a secondary for
double-handed visits). Visits that already have an appointment are
skipped, so re-running over the same range is safe.

Examples:
  rota schedule generate --from 2026-01-05 --to 2026-01-11
  rota schedule generate --from 2026-01-05 --receiver 4f8b...`,
	Aliases: []string{"gen", "run"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GenerateScheduleHandler == nil {
			fmt.Println("Schedule commands require a database connection.")
			fmt.Println("Set DATABASE_URL or ROTA_SQLITE_PATH and try again.")
			return nil
		}

		from, to, err := parseRange(generateFrom, generateTo)
		if err != nil {
			return err
		}

		var receiverIDs []uuid.UUID
		for _, raw := range generateReceivers {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid --receiver %q: %w", raw, err)
			}
			receiverIDs = append(receiverIDs, id)
		}

		result, err := app.GenerateScheduleHandler.Handle(cmd.Context(), commands.GenerateScheduleCommand{
			StartDate:       from,
			EndDate:         to,
			CareReceiverIDs: receiverIDs,
		})
		if err != nil {
			return fmt.Errorf("failed to generate schedule: %w", err)
		}

		fmt.Printf("Schedule %s .. %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
		fmt.Println(strings.Repeat("=", 60))

		for _, schedule := range result.Schedules {
			if len(schedule.Scheduled) == 0 && len(schedule.Failed) == 0 {
				continue
			}
			fmt.Printf("\nCare receiver %s\n", schedule.CareReceiverID)
			for _, appt := range schedule.Scheduled {
				line := fmt.Sprintf("  [ok] %s  %s-%s  visit %d  care giver %s",
					appt.Date().Format("2006-01-02"),
					appt.StartTime(), appt.EndTime(),
					appt.VisitNumber(), appt.CareGiverID())
				if secondary := appt.SecondaryCareGiverID(); secondary != nil {
					line += fmt.Sprintf(" + %s", *secondary)
				}
				fmt.Println(line)
			}
			for _, failed := range schedule.Failed {
				fmt.Printf("  [--] %s  visit %d  %s\n",
					failed.Date.Format("2006-01-02"), failed.VisitNumber, failed.Reason)
			}
			if schedule.Skipped > 0 {
				fmt.Printf("  %d already scheduled\n", schedule.Skipped)
			}
		}

		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("Summary: %d scheduled, %d failed, %d skipped across %d care receivers\n",
			result.TotalScheduled, result.TotalFailed, result.TotalSkipped, result.CareReceiversProcessed)

		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateFrom, "from", "", "start date (YYYY-MM-DD, default: today)")
	generateCmd.Flags().StringVar(&generateTo, "to", "", "end date (YYYY-MM-DD, default: one week from start)")
	generateCmd.Flags().StringSliceVar(&generateReceivers, "receiver", nil, "care receiver id (repeatable; default: all active)")
}
