package main

import (
	"strings"

	"github.com/spf13/cobra"

	"pictor/internal/config"
	"pictor/internal/models"
	"pictor/internal/workbench"
)

func newProjectCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage workbench projects",
	}

	cmd.AddCommand(
		newProjectListCmd(cfg, jsonOutput),
		newProjectCreateCmd(cfg, jsonOutput),
		newProjectShowCmd(cfg, jsonOutput),
		newProjectRenameCmd(cfg, jsonOutput),
		newProjectDeleteCmd(cfg),
		newProjectDuplicateCmd(cfg, jsonOutput),
		newProjectOpenCmd(cfg, jsonOutput),
	)
	return cmd
}

func newProjectListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently opened first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				projects, err := svc.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(projects)
				}
				return writeProjectList(projects)
			})
		},
	}
}

func newProjectCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				project, err := svc.CreateProject(cmd.Context(), strings.Join(args, " "))
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

func newProjectShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				project, err := svc.GetProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				steps, err := svc.ListSteps(cmd.Context(), project.ID)
				if err != nil {
					return err
				}
				assets, err := svc.ListProjectAssets(cmd.Context(), project.ID)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(struct {
						Project *models.Project `json:"project"`
						Steps   int             `json:"steps"`
						Assets  int             `json:"assets"`
					}{project, len(steps), len(assets)})
				}
				return writeProjectDetail(project, len(steps), len(assets))
			})
		},
	}
}

func newProjectRenameCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				name := strings.Join(args[1:], " ")
				project, err := svc.UpdateProject(cmd.Context(), args[0], models.ProjectPatch{Name: &name})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(project)
				}
				return writePlain("%s\n", project.Name)
			})
		},
	}
}

func newProjectDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				return svc.DeleteProject(cmd.Context(), args[0])
			})
		},
	}
}

func newProjectDuplicateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Deep-copy a project under fresh identifiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				clone, err := svc.DuplicateProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(clone)
				}
				return writePlain("%s\n", clone.ID)
			})
		},
	}
}

func newProjectOpenCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Mark a project as most recently opened",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				project, err := svc.TouchProject(cmd.Context(), args[0])
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
