package availability

import (
	"github.com/spf13/cobra"
)

// Cmd is the availability command group
var Cmd = &cobra.Command{
	Use:   "availability",
	Short: "Inspect care giver availability history",
}

func init() {
	Cmd.AddCommand(historyCmd)
}
