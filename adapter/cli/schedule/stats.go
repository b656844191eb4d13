package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/domicare/rota/adapter/cli"
	"github.com/domicare/rota/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	statsFrom string
	statsTo   string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show appointment counts and completion rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ScheduleStatsHandler == nil {
			fmt.Println("Schedule commands require a database connection.")
			fmt.Println("Set DATABASE_URL or ROTA_SQLITE_PATH and try again.")
			return nil
		}

		from, to, err := parseRange(statsFrom, statsTo)
		if err != nil {
			return err
		}

		stats, err := app.ScheduleStatsHandler.Handle(cmd.Context(), queries.ScheduleStatsQuery{
			StartDate: from,
			EndDate:   to,
		})
		if err != nil {
			return fmt.Errorf("failed to load schedule stats: %w", err)
		}

		fmt.Printf("Schedule stats %s .. %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
		fmt.Println(strings.Repeat("=", 60))

		if stats.Total == 0 {
			fmt.Println("\n  No appointments in range.")
			return nil
		}

		statuses := make([]string, 0, len(stats.ByStatus))
		for status := range stats.ByStatus {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)

		fmt.Println()
		for _, status := range statuses {
			fmt.Printf("  %-20s %d\n", status, stats.ByStatus[status])
		}

		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("Total: %d | Completion rate: %.1f%%\n", stats.Total, stats.CompletionRate*100)

		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "start date (YYYY-MM-DD, default: today)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "end date (YYYY-MM-DD, default: one week from start)")
}
