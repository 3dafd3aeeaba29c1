package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zkmutant.dev/pkg/zkmutant/internal/domain"
)

var listLimitFlag int

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered mutants",
		Long:  listLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return activeWorkflow(cmd).List(cmd.Context(), domain.ListArgs{
				Project: projectPath(),
				Exclude: viper.GetStringSlice(excludeConfigKey),
				Limit:   viper.GetInt(listLimitKey),
				JSON:    viper.GetBool(jsonConfigKey),
			})
		},
	}

	cmd.Flags().IntVarP(&listLimitFlag, limitFlagName, "n", viper.GetInt(listLimitKey), "show at most this many mutants (0 = all)")
	bindFlagToConfig(cmd.Flags().Lookup(limitFlagName), listLimitKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
