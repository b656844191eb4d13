package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is overridden via -ldflags on release builds. When it is left
// at "dev" the command falls back to whatever the Go toolchain stamped
// into the binary.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rota %s (%s/%s)\n", resolveVersion(), runtime.GOOS, runtime.GOARCH)
		if revision, modified := vcsRevision(); revision != "" {
			if modified {
				revision += " (modified)"
			}
			fmt.Printf("  revision: %s\n", revision)
		}
	},
}

func resolveVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

func vcsRevision() (revision string, modified bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return revision, modified
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
