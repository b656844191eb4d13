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
	careGiversAll  bool
	careGiversJSON bool
)

var careGiversCmd = &cobra.Command{
	Use:   "care-givers [id]",
	Short: "List care givers, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListCareGiversHandler == nil {
			fmt.Println("Directory commands require a database connection.")
			return nil
		}

		if len(args) == 1 {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid care giver id: %w", err)
			}
			cg, err := app.GetCareGiverHandler.Handle(cmd.Context(), queries.GetCareGiverQuery{CareGiverID: id})
			if err != nil {
				return err
			}
			if careGiversJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cg)
			}
			printCareGiver(cg)
			return nil
		}

		careGivers, err := app.ListCareGiversHandler.Handle(cmd.Context(), queries.ListCareGiversQuery{
			IncludeInactive: careGiversAll,
		})
		if err != nil {
			return fmt.Errorf("failed to list care givers: %w", err)
		}

		if careGiversJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(careGivers)
		}

		if len(careGivers) == 0 {
			fmt.Println("No care givers found.")
			return nil
		}
		for _, cg := range careGivers {
			active := ""
			if !cg.IsActive {
				active = "  (inactive)"
			}
			fmt.Printf("%s  %s %s  [%s]%s\n",
				cg.ID, cg.FirstName, cg.LastName, strings.Join(cg.Skills, ", "), active)
		}
		fmt.Printf("\n%d care givers\n", len(careGivers))
		return nil
	},
}

func printCareGiver(cg *queries.CareGiverDTO) {
	fmt.Printf("%s %s (%s)\n", cg.FirstName, cg.LastName, cg.ID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("email:       %s\n", cg.Email)
	if cg.Phone != "" {
		fmt.Printf("phone:       %s\n", cg.Phone)
	}
	fmt.Printf("address:     %s, %s %s\n", cg.AddressLine, cg.City, cg.Postcode)
	fmt.Printf("location:    %.4f, %.4f\n", cg.Location.Longitude, cg.Location.Latitude)
	fmt.Printf("gender:      %s\n", cg.Gender)
	fmt.Printf("skills:      %s\n", strings.Join(cg.Skills, ", "))
	fmt.Printf("can drive:   %t\n", cg.CanDrive)
	if cg.SingleHandedOnly {
		fmt.Println("single-handed visits only")
	}
	fmt.Printf("active:      %t\n", cg.IsActive)
}

func init() {
	careGiversCmd.Flags().BoolVar(&careGiversAll, "all", false, "include inactive care givers")
	careGiversCmd.Flags().BoolVar(&careGiversJSON, "json", false, "output as JSON")
}
