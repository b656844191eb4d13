package schedule

import (
	"fmt"
	"strings"

	"github.com/domicare/rota/adapter/cli"
	"github.com/domicare/rota/internal/scheduling/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	apptsFrom      string
	apptsTo        string
	apptsCareGiver string
	apptsReceiver  string
	apptsStatus    string
	apptsPage      int
	apptsLimit     int
)

var appointmentsCmd = &cobra.Command{
	Use:   "appointments",
	Short: "List appointments in a date range",
	Long: `Lists appointments with optional care giver, care receiver, and
status filters.

Examples:
  rota schedule appointments --from 2026-01-05 --to 2026-01-11
  rota schedule appointments --status needs_reassignment
  rota schedule appointments --care-giver 4f8b... --limit 20`,
	Aliases: []string{"list", "ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListAppointmentsHandler == nil {
			fmt.Println("Schedule commands require a database connection.")
			fmt.Println("Set DATABASE_URL or ROTA_SQLITE_PATH and try again.")
			return nil
		}

		from, to, err := parseRange(apptsFrom, apptsTo)
		if err != nil {
			return err
		}

		query := queries.ListAppointmentsQuery{
			From:  &from,
			To:    &to,
			Page:  apptsPage,
			Limit: apptsLimit,
		}
		if apptsCareGiver != "" {
			id, err := uuid.Parse(apptsCareGiver)
			if err != nil {
				return fmt.Errorf("invalid --care-giver: %w", err)
			}
			query.CareGiverID = &id
		}
		if apptsReceiver != "" {
			id, err := uuid.Parse(apptsReceiver)
			if err != nil {
				return fmt.Errorf("invalid --care-receiver: %w", err)
			}
			query.CareReceiverID = &id
		}
		if apptsStatus != "" {
			query.Status = &apptsStatus
		}

		page, err := app.ListAppointmentsHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list appointments: %w", err)
		}

		fmt.Printf("Appointments %s .. %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
		fmt.Println(strings.Repeat("=", 60))

		if len(page.Appointments) == 0 {
			fmt.Println("\n  No appointments match.")
			return nil
		}

		for _, appt := range page.Appointments {
			fmt.Printf("\n%s  %s-%s  %s\n",
				appt.Date.Format("2006-01-02"), appt.StartTime, appt.EndTime, appt.Status)
			fmt.Printf("    %s -> %s", appt.CareGiverName, appt.CareReceiverName)
			if appt.SecondaryCareGiverName != "" {
				fmt.Printf(" (with %s)", appt.SecondaryCareGiverName)
			}
			fmt.Printf("  visit %d | %s\n", appt.VisitNumber, appt.ID)
			if appt.InvalidationReason != "" {
				fmt.Printf("    flagged: %s\n", appt.InvalidationReason)
			}
		}

		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("Page %d/%d, %d of %d appointments\n",
			page.Page, page.TotalPages, len(page.Appointments), page.Total)

		return nil
	},
}

func init() {
	appointmentsCmd.Flags().StringVar(&apptsFrom, "from", "", "start date (YYYY-MM-DD, default: today)")
	appointmentsCmd.Flags().StringVar(&apptsTo, "to", "", "end date (YYYY-MM-DD, default: one week from start)")
	appointmentsCmd.Flags().StringVar(&apptsCareGiver, "care-giver", "", "filter by care giver id")
	appointmentsCmd.Flags().StringVar(&apptsReceiver, "care-receiver", "", "filter by care receiver id")
	appointmentsCmd.Flags().StringVar(&apptsStatus, "status", "", "filter by status")
	appointmentsCmd.Flags().IntVar(&apptsPage, "page", 1, "page number")
	appointmentsCmd.Flags().IntVar(&apptsLimit, "limit", 50, "page size")
}
