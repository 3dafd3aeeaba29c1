package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default zkmutant.yaml configuration file",
		Long: `Create a zkmutant.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if _, err := os.Stat(targetPath); err == nil {
				return fmt.Errorf("%s already exists; delete it first", targetPath)
			}

			content, err := yaml.Marshal(defaultConfig())
			if err != nil {
				return fmt.Errorf("failed to render default config: %w", err)
			}

			if err := os.WriteFile(targetPath, content, 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Println("wrote", targetPath)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// defaultConfig mirrors the viper defaults in a shape that renders to a
// readable yaml file.
func defaultConfig() map[string]any {
	return map[string]any{
		"version": currentConfigVersion,
		"project": defaultProject,
		"out_dir": defaultOutDir,
		"json":    false,
		"paths": map[string]any{
			"exclude": []string{},
		},
		"nargo": map[string]any{
			"command": defaultNargoCommand,
		},
		"run": map[string]any{
			"limit":             0,
			"fail_on_survivors": false,
			"mutation_timeout":  defaultMutationTimeout.String(),
		},
		"log": map[string]any{
			"filename":    defaultLogFilename,
			"level":       "info",
			"verbose":     defaultLogVerbose,
			"max_size":    defaultLogMaxSize,
			"max_backups": defaultLogMaxBackups,
			"max_age":     defaultLogMaxAge,
			"compress":    defaultLogCompress,
		},
	}
}
