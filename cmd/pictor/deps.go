package main

import (
	"log/slog"

	"pictor/internal/config"
	"pictor/internal/store"
	"pictor/internal/workbench"
)

// withService opens the database, builds the workbench service, runs fn, and
// closes the database regardless of fn's outcome.
func withService(cfg *config.Config, fn func(svc *workbench.Service) error) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	defaults := workbench.ProjectDefaults{
		Model:       cfg.Defaults.Model,
		AspectRatio: cfg.Defaults.AspectRatio,
		Resolution:  cfg.Defaults.Resolution,
	}
	svc := workbench.NewService(st, workbench.RealClock{}, workbench.UUIDGenerator{}, defaults, slog.Default())
	return fn(svc)
}
