package schedule

import (
	"fmt"
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/spf13/cobra"
)

// Cmd is the schedule command group
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate and inspect the care rota",
	Long:  `Generate appointments from visit templates, re-validate existing ones, and inspect gaps, listings, and statistics.`,
}

func init() {
	Cmd.AddCommand(generateCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(unscheduledCmd)
	Cmd.AddCommand(appointmentsCmd)
	Cmd.AddCommand(statsCmd)
}

// parseRange turns the --from/--to flags into a UTC day window. An
// empty --from means today; an empty --to means one week from the
// start.
func parseRange(fromFlag, toFlag string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if fromFlag != "" {
		from, err = time.Parse("2006-01-02", fromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from, use YYYY-MM-DD: %w", err)
		}
	} else {
		from = time.Now()
	}
	from = sharedDomain.UTCDay(from)

	if toFlag != "" {
		to, err = time.Parse("2006-01-02", toFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to, use YYYY-MM-DD: %w", err)
		}
		to = sharedDomain.UTCDay(to)
	} else {
		to = from.AddDate(0, 0, 6)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return from, to, nil
}
