package availability

import (
	"fmt"
	"strings"

	"github.com/domicare/rota/adapter/cli"
	"github.com/domicare/rota/internal/availability/application/queries"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <care-giver-id>",
	Short: "Show a care giver's availability versions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetHistoryHandler == nil {
			fmt.Println("Availability commands require a database connection.")
			return nil
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid care giver id: %w", err)
		}

		versions, err := app.GetHistoryHandler.Handle(cmd.Context(), queries.GetHistoryQuery{CareGiverID: id})
		if err != nil {
			return fmt.Errorf("failed to load availability history: %w", err)
		}

		if len(versions) == 0 {
			fmt.Println("No availability versions recorded.")
			fmt.Println("The inline pattern on the care giver record applies.")
			return nil
		}

		for _, v := range versions {
			until := "open"
			if v.EffectiveTo != nil {
				until = v.EffectiveTo.Format("2006-01-02")
			}
			state := ""
			if v.IsActive {
				state = "  (active)"
			}
			fmt.Printf("v%d  %s .. %s%s\n", v.VersionNumber, v.EffectiveFrom.Format("2006-01-02"), until, state)

			for _, day := range sharedDomain.AllDaysOfWeek() {
				slots := v.Schedule.SlotsFor(day)
				if len(slots) == 0 {
					continue
				}
				parts := make([]string, 0, len(slots))
				for _, slot := range slots {
					parts = append(parts, slot.String())
				}
				fmt.Printf("    %-9s %s\n", day, strings.Join(parts, ", "))
			}
			for _, timeOff := range v.TimeOff {
				fmt.Printf("    off %s .. %s  %s\n",
					timeOff.Start.Format("2006-01-02"), timeOff.End.Format("2006-01-02"), timeOff.Reason)
			}
			fmt.Println()
		}

		return nil
	},
}
