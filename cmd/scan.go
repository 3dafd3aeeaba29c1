package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zkmutant.dev/pkg/zkmutant/internal/domain"
)

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Show project metrics and the mutation candidate inventory",
		Long:  scanLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return activeWorkflow(cmd).Scan(cmd.Context(), domain.ScanArgs{
				Project: projectPath(),
				Exclude: viper.GetStringSlice(excludeConfigKey),
				JSON:    viper.GetBool(jsonConfigKey),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
