package settings

import (
	"errors"
	"fmt"

	"github.com/domicare/rota/adapter/cli"
	"github.com/domicare/rota/internal/settings/application/commands"
	"github.com/spf13/cobra"
)

var (
	setMaxDistance  float64
	setTravelBuffer int
	setDailyCap     int
	setHoursStart   string
	setHoursEnd     string
	setWeightPref   float64
	setWeightDist   float64
	setWeightAvail  float64
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the scheduling settings",
	Long: `Updates the settings singleton. Unset flags keep their current
values. The three weights must sum to 1.0.

Examples:
  rota settings set --max-distance 25
  rota settings set --travel-buffer 20 --daily-cap 6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetSettingsHandler == nil || app.UpdateSettingsHandler == nil {
			return errors.New("settings commands require a database connection")
		}

		current, err := app.GetSettingsHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		update := commands.UpdateSettingsCommand{
			MaxDistanceKm:            current.MaxDistanceKm,
			TravelTimeBufferMinutes:  current.TravelTimeBufferMinutes,
			MaxAppointmentsPerDay:    current.MaxAppointmentsPerDay,
			WorkingHoursStart:        current.WorkingHoursStart,
			WorkingHoursEnd:          current.WorkingHoursEnd,
			PreferredCareGiverWeight: current.PreferredCareGiverWeight,
			DistanceWeight:           current.DistanceWeight,
			AvailabilityWeight:       current.AvailabilityWeight,
		}

		flags := cmd.Flags()
		if flags.Changed("max-distance") {
			update.MaxDistanceKm = setMaxDistance
		}
		if flags.Changed("travel-buffer") {
			update.TravelTimeBufferMinutes = setTravelBuffer
		}
		if flags.Changed("daily-cap") {
			update.MaxAppointmentsPerDay = setDailyCap
		}
		if flags.Changed("hours-start") {
			update.WorkingHoursStart = setHoursStart
		}
		if flags.Changed("hours-end") {
			update.WorkingHoursEnd = setHoursEnd
		}
		if flags.Changed("weight-preferred") {
			update.PreferredCareGiverWeight = setWeightPref
		}
		if flags.Changed("weight-distance") {
			update.DistanceWeight = setWeightDist
		}
		if flags.Changed("weight-availability") {
			update.AvailabilityWeight = setWeightAvail
		}

		result, err := app.UpdateSettingsHandler.Handle(cmd.Context(), update)
		if err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Settings updated at %s.\n", result.UpdatedAt.Format("15:04:05"))
		return nil
	},
}

func init() {
	setCmd.Flags().Float64Var(&setMaxDistance, "max-distance", 0, "maximum care giver distance in km")
	setCmd.Flags().IntVar(&setTravelBuffer, "travel-buffer", 0, "travel time buffer in minutes")
	setCmd.Flags().IntVar(&setDailyCap, "daily-cap", 0, "maximum appointments per care giver per day")
	setCmd.Flags().StringVar(&setHoursStart, "hours-start", "", "working hours start (HH:MM)")
	setCmd.Flags().StringVar(&setHoursEnd, "hours-end", "", "working hours end (HH:MM)")
	setCmd.Flags().Float64Var(&setWeightPref, "weight-preferred", 0, "preferred care giver weight")
	setCmd.Flags().Float64Var(&setWeightDist, "weight-distance", 0, "distance weight")
	setCmd.Flags().Float64Var(&setWeightAvail, "weight-availability", 0, "availability weight")
}
