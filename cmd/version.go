package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped with -ldflags "-X github.com/abhisek/vidtutor/cmd.version=..."
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		v, goVersion := version, "unknown"
		if info, ok := debug.ReadBuildInfo(); ok {
			goVersion = info.GoVersion
			if v == "" {
				v = info.Main.Version
			}
		}
		if v == "" {
			v = "(devel)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "vidtutor %s (%s)\n", v, goVersion)
	},
}
