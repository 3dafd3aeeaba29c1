package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zkmutant.dev/pkg/zkmutant/internal/domain"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "View a previously saved mutation run",
		Long:  "Re-render the summary of a saved run from its output directory without re-running anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return activeWorkflow(cmd).View(cmd.Context(), domain.ViewArgs{
				Project: projectPath(),
				OutDir:  outDirPath(),
				JSON:    viper.GetBool(jsonConfigKey),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
