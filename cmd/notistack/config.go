package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the daemon configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config file the daemon would load",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		path, err := config.ResolvePath(globalOpts.configPath)
		if err != nil {
			return err
		}
		if path == "" {
			_, err := fmt.Fprintln(out, "No config file found; the built-in default is used.")
			return err
		}

		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s is valid (origin %s, display limit %d).\n",
			cfg.Path, cfg.Global.Origin, cfg.Global.DisplayLimit)
		return err
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(config.EmbeddedDefault())
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "List the config file locations in search order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range config.CandidatePaths(globalOpts.configPath) {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), p); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd, configDefaultCmd, configPathCmd)
}
