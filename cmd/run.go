package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zkmutant.dev/pkg/zkmutant/internal/domain"
)

var (
	runLimitFlag           int
	runFailOnSurvivorsFlag bool
	runTimeoutFlag         time.Duration
)

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run mutation testing",
		Long:  runLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return activeWorkflow(cmd).Run(cmd.Context(), domain.RunArgs{
				Project:         projectPath(),
				Exclude:         viper.GetStringSlice(excludeConfigKey),
				OutDir:          outDirPath(),
				Limit:           viper.GetInt(runLimitKey),
				FailOnSurvivors: viper.GetBool(failOnSurvivorsConfigKey),
				JSON:            viper.GetBool(jsonConfigKey),
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runLimitFlag, limitFlagName, "n", viper.GetInt(runLimitKey), "test at most this many mutants (0 = all)")
	bindFlagToConfig(cmd.Flags().Lookup(limitFlagName), runLimitKey)

	cmd.Flags().BoolVar(&runFailOnSurvivorsFlag, failOnSurvivorsFlagName, viper.GetBool(failOnSurvivorsConfigKey), "exit with status 2 when any mutant survives")
	bindFlagToConfig(cmd.Flags().Lookup(failOnSurvivorsFlagName), failOnSurvivorsConfigKey)

	cmd.Flags().DurationVar(&runTimeoutFlag, timeoutFlagName, viper.GetDuration(mutationTimeoutKey), "timeout for a single test-suite run")
	bindFlagToConfig(cmd.Flags().Lookup(timeoutFlagName), mutationTimeoutKey)
}
