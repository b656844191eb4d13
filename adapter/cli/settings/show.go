package settings

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/domicare/rota/adapter/cli"
	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the scheduling settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetSettingsHandler == nil {
			return errors.New("settings commands require a database connection")
		}

		settings, err := app.GetSettingsHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		if showJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "max distance:          %.1f km\n", settings.MaxDistanceKm)
		fmt.Fprintf(out, "travel buffer:         %d min\n", settings.TravelTimeBufferMinutes)
		fmt.Fprintf(out, "daily cap:             %d appointments\n", settings.MaxAppointmentsPerDay)
		fmt.Fprintf(out, "working hours:         %s - %s\n", settings.WorkingHoursStart, settings.WorkingHoursEnd)
		fmt.Fprintf(out, "weights (pref/dist/avail): %.2f / %.2f / %.2f\n",
			settings.PreferredCareGiverWeight, settings.DistanceWeight, settings.AvailabilityWeight)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}
