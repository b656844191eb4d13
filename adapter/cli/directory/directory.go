package directory

import (
	"github.com/spf13/cobra"
)

// Cmd is the directory command group
var Cmd = &cobra.Command{
	Use:   "directory",
	Short: "Browse care givers and care receivers",
}

func init() {
	Cmd.AddCommand(careGiversCmd)
	Cmd.AddCommand(careReceiversCmd)
}
