package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pictor/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "pictor",
		Short: "Pictor is a local-first workbench for image generation projects",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the workbench database")

	cmd.AddCommand(
		newProjectCmd(cfg, &jsonOutput),
		newExportCmd(cfg),
		newImportCmd(cfg, &jsonOutput),
		newPersonaCmd(cfg, &jsonOutput),
		newCleanupCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
	)

	return cmd
}
