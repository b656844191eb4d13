package directory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/domicare/rota/adapter/cli"
	"github.com/domicare/rota/internal/directory/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	careReceiversAll  bool
	careReceiversJSON bool
)

var careReceiversCmd = &cobra.Command{
	Use:   "care-receivers [id]",
	Short: "List care receivers, or show one with their visits",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListCareReceiversHandler == nil {
			fmt.Println("Directory commands require a database connection.")
			return nil
		}

		if len(args) == 1 {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid care receiver id: %w", err)
			}
			cr, err := app.GetCareReceiverHandler.Handle(cmd.Context(), queries.GetCareReceiverQuery{CareReceiverID: id})
			if err != nil {
				return err
			}
			if careReceiversJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cr)
			}
			printCareReceiver(cr)
			return nil
		}

		receivers, err := app.ListCareReceiversHandler.Handle(cmd.Context(), queries.ListCareReceiversQuery{
			IncludeInactive: careReceiversAll,
		})
		if err != nil {
			return fmt.Errorf("failed to list care receivers: %w", err)
		}

		if careReceiversJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(receivers)
		}

		if len(receivers) == 0 {
			fmt.Println("No care receivers found.")
			return nil
		}
		for _, cr := range receivers {
			active := ""
			if !cr.IsActive {
				active = "  (inactive)"
			}
			fmt.Printf("%s  %s %s  %d visits/day%s\n",
				cr.ID, cr.FirstName, cr.LastName, len(cr.VisitTemplates), active)
		}
		fmt.Printf("\n%d care receivers\n", len(receivers))
		return nil
	},
}

func printCareReceiver(cr *queries.CareReceiverDTO) {
	fmt.Printf("%s %s (%s)\n", cr.FirstName, cr.LastName, cr.ID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("address:       %s, %s %s\n", cr.AddressLine, cr.City, cr.Postcode)
	fmt.Printf("location:      %.4f, %.4f\n", cr.Location.Longitude, cr.Location.Latitude)
	fmt.Printf("gender:        %s (prefers: %s)\n", cr.Gender, cr.GenderPreference)
	if cr.PreferredCareGiverID != nil {
		fmt.Printf("preferred care giver: %s\n", *cr.PreferredCareGiverID)
	}
	fmt.Printf("active:        %t\n", cr.IsActive)

	if len(cr.VisitTemplates) == 0 {
		fmt.Println("\nNo visit templates.")
		return
	}
	fmt.Println("\nVisits:")
	for _, vt := range cr.VisitTemplates {
		double := ""
		if vt.DoubleHanded {
			double = "  double-handed"
		}
		fmt.Printf("  %d. %s (%dm)  %s  %s x%d%s\n",
			vt.VisitNumber, vt.PreferredTime, vt.DurationMinutes,
			strings.Join(vt.DaysOfWeek, "/"), vt.Recurrence, vt.RecurrenceInterval, double)
		if len(vt.Requirements) > 0 {
			fmt.Printf("     requires: %s\n", strings.Join(vt.Requirements, ", "))
		}
	}
}

func init() {
	careReceiversCmd.Flags().BoolVar(&careReceiversAll, "all", false, "include inactive care receivers")
	careReceiversCmd.Flags().BoolVar(&careReceiversJSON, "json", false, "output as JSON")
}
