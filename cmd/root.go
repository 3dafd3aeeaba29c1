// Package cmd provides the root command and CLI setup for zkmutant.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"zkmutant.dev/pkg/zkmutant/internal/adapter"
	"zkmutant.dev/pkg/zkmutant/internal/controller"
	"zkmutant.dev/pkg/zkmutant/internal/domain"
	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// workflow is the shared command backend. It is built lazily on first use
// so flag and config values are settled; tests preset it with a fake.
var workflow domain.Workflow

// toolchain is probed directly by the version command.
var toolchain adapter.ToolchainAdapter = adapter.NewLocalToolchainAdapter("")

// projectFlag is the root-level project directory flag shared by all
// commands that touch a Noir tree.
var projectFlag string

// outDirFlag is the root-level report directory flag.
var outDirFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

// jsonFlag switches stdout to machine-readable output.
var jsonFlag bool

// verboseFlag raises the log level to debug.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)
}

const rootLongDescription = `zkmutant is a mutation testing tool for Noir circuits. It introduces
small textual changes (mutants) into .nr sources, runs nargo test against
each altered copy in an isolated sandbox, and reports which mutants your
test suite caught.`

const runLongDescription = `Run mutation testing against the project: discover mutants, verify the
baseline test run passes, then test every mutant in its own temporary
copy of the tree and write the report artifacts to the output directory.`

const scanLongDescription = `Scan the project and show its metrics together with the mutation
candidate inventory, without running any tests.`

const listLongDescription = `List every discovered mutant as one line per candidate:

  #id file [start..end] Category/operator: "original" -> "mutated"`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "zkmutant",
		Short:        "Mutation testing for Noir circuits",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&projectFlag, projectFlagName, "C", viper.GetString(projectConfigKey), "project directory (or any path inside one)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(projectFlagName), projectConfigKey)

	cmd.PersistentFlags().StringVarP(&outDirFlag, outDirFlagName, "o", viper.GetString(outDirConfigKey), "output directory for mutation testing reports")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outDirFlagName), outDirConfigKey)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVar(&jsonFlag, jsonFlagName, viper.GetBool(jsonConfigKey), "emit machine-readable JSON on stdout")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(jsonFlagName), jsonConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// activeWorkflow returns the shared workflow, building the real one with
// its adapters on first use.
func activeWorkflow(cmd *cobra.Command) domain.Workflow {
	if workflow != nil {
		return workflow
	}

	jsonOut := viper.GetBool(jsonConfigKey)
	ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout), jsonOut)

	fsAdapter := adapter.NewLocalSourceFSAdapter()
	testAdapter := adapter.NewLocalTestRunnerAdapter(
		viper.GetString(nargoCommandKey),
		viper.GetDuration(mutationTimeoutKey),
	)

	workflow = domain.NewWorkflow(
		fsAdapter,
		adapter.NewLocalToolchainAdapter(viper.GetString(nargoCommandKey)),
		adapter.NewReportStore(),
		ui,
		domain.NewDiscoverer(fsAdapter),
		domain.NewOrchestrator(fsAdapter, testAdapter),
	)

	return workflow
}

// Exit codes: 0 success, 1 error (failed baseline included), 2 when
// --fail-on-survivors was set and mutants survived.
const (
	exitError     = 1
	exitSurvivors = 2
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, domain.ErrSurvivorsFound) {
			os.Exit(exitSurvivors)
		}

		os.Exit(exitError)
	}
}

func projectPath() m.Path {
	return m.Path(viper.GetString(projectConfigKey))
}

func outDirPath() m.Path {
	return m.Path(viper.GetString(outDirConfigKey))
}
