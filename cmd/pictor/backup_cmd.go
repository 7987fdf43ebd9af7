package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pictor/internal/config"
	"pictor/internal/workbench"
)

func newExportCmd(cfg *config.Config) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a project as a portable backup archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				data, err := svc.ExportProjectBackup(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				path := outputPath
				if path == "" {
					if err := os.MkdirAll(cfg.Backup.Dir, 0o755); err != nil {
						return err
					}
					path = filepath.Join(cfg.Backup.Dir, args[0]+".zip")
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				return writePlain("%s\n", path)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: <backup dir>/<project-id>.zip)")

	return cmd
}

func newImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "import <archive>",
		Short: "Import a backup archive as a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			return withService(cfg, func(svc *workbench.Service) error {
				project, err := svc.ImportProjectBackup(cmd.Context(), data)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(project)
				}
				return writePlain("%s\n", project.ID)
			})
		},
	}
}
