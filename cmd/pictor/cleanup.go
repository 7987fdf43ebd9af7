package main

import (
	"github.com/spf13/cobra"

	"pictor/internal/config"
	"pictor/internal/workbench"
)

func newCleanupCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Report projects by storage footprint, largest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				candidates, err := svc.CollectCleanupCandidates(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(candidates)
				}
				return writeCleanupReport(candidates)
			})
		},
	}
}
