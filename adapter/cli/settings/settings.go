package settings

import (
	"github.com/spf13/cobra"
)

// Cmd is the settings command group
var Cmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and update scheduling settings",
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(setCmd)
}
