package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/placa/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the placa configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a default configuration file",
	Long: `Write the default configuration as YAML. The file defaults to
placa.yaml in the current directory and is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	// No config is loaded: init must work while the current one is broken.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		file := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			file = args[0]
		}
		if err := config.GenerateDefaultConfigFile(file); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Long: `Print the configuration after merging defaults, the config file, .env,
PLACA_ environment variables and flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if configLoader != nil {
			if used := configLoader.GetConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# config file: %s\n", used)
			}
		}
		if paths, _ := cmd.Flags().GetBool("paths"); paths {
			for _, p := range config.GetConfigSearchPaths() {
				fmt.Fprintf(out, "# search path: %s\n", p)
			}
		}
		return config.WriteYAML(out, GetConfig())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configShowCmd.Flags().Bool("paths", false, "also list the config search paths")
}
