package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the zkmutant version and, when available, the installed nargo version.",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(m.ToolName, "version", m.ToolVersion)

			if info, ok := debug.ReadBuildInfo(); ok {
				cmd.Println("go version\t", info.GoVersion)
			}

			if nargo, err := toolchain.Version(cmd.Context()); err == nil {
				cmd.Println("nargo version\t", nargo)
			} else {
				cmd.Println("nargo version\t unavailable")
			}
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
