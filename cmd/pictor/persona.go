package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pictor/internal/config"
	"pictor/internal/models"
	"pictor/internal/workbench"
)

func newPersonaCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Manage reusable personas",
	}

	cmd.AddCommand(
		newPersonaListCmd(cfg, jsonOutput),
		newPersonaCreateCmd(cfg, jsonOutput),
		newPersonaSetRefsCmd(cfg, jsonOutput),
		newPersonaDeleteCmd(cfg),
		newPersonaUsageCmd(cfg, jsonOutput),
		newPersonaSeedCmd(cfg, jsonOutput),
	)
	return cmd
}

func newPersonaListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				personas, err := svc.ListPersonas(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(personas)
				}
				return writePersonaList(personas)
			})
		},
	}
}

func newPersonaCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var refs []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				persona, err := svc.CreatePersona(cmd.Context(), args[0], refs)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(persona)
				}
				return writePlain("%s\n", persona.ID)
			})
		},
	}

	cmd.Flags().StringArrayVar(&refs, "ref", nil, "reference asset id (repeatable)")
	return cmd
}

func newPersonaSetRefsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set-refs <id> [asset-id...]",
		Short: "Replace a persona's reference images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				persona, err := svc.UpdatePersonaReferences(cmd.Context(), args[0], args[1:])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(persona)
				}
				return writePlain("%s\n", persona.ID)
			})
		},
	}
}

func newPersonaDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a persona and its unshared reference images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				return svc.DeletePersona(cmd.Context(), args[0])
			})
		},
	}
}

func newPersonaUsageCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "usage <id>",
		Short: "Count generation steps that used a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(svc *workbench.Service) error {
				count, err := svc.CollectUsageForPersona(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(struct {
						PersonaID string `json:"persona_id"`
						Steps     int    `json:"steps"`
					}{args[0], count})
				}
				return writePlain("%d\n", count)
			})
		},
	}
}

// personaSeedFile is the YAML shape accepted by `persona seed`.
type personaSeedFile struct {
	Personas []personaSeed `yaml:"personas"`
}

type personaSeed struct {
	Name       string   `yaml:"name"`
	References []string `yaml:"references"`
}

func newPersonaSeedCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Create personas from a YAML seed file",
		Long: `Create personas in bulk from a YAML file. Each entry names a persona and
lists reference image files, which are stored as global persona assets:

    personas:
      - name: Face
        references:
          - ./refs/face-front.png
          - ./refs/face-side.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			var seed personaSeedFile
			if err := yaml.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}
			if len(seed.Personas) == 0 {
				return fmt.Errorf("seed file lists no personas")
			}

			baseDir := filepath.Dir(args[0])
			return withService(cfg, func(svc *workbench.Service) error {
				created := make([]models.Persona, 0, len(seed.Personas))
				for _, entry := range seed.Personas {
					refIDs, err := seedReferenceAssets(cmd, svc, baseDir, entry)
					if err != nil {
						return err
					}
					persona, err := svc.CreatePersona(cmd.Context(), entry.Name, refIDs)
					if err != nil {
						return fmt.Errorf("persona %q: %w", entry.Name, err)
					}
					created = append(created, *persona)
				}
				if *jsonOutput {
					return writeJSON(created)
				}
				for _, persona := range created {
					if err := writePlain("%s\t%s\n", persona.ID, persona.Name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func seedReferenceAssets(cmd *cobra.Command, svc *workbench.Service, baseDir string, entry personaSeed) ([]string, error) {
	assets := make([]models.OutputAsset, 0, len(entry.References))
	for _, ref := range entry.References {
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("persona %q: read reference %s: %w", entry.Name, ref, err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		assets = append(assets, models.OutputAsset{
			Scope:    models.ScopeGlobal,
			Kind:     models.AssetKindPersona,
			MimeType: mimeType,
			Content:  content,
		})
	}

	// Identical files listed twice collapse to one stored asset.
	assets = workbench.DedupeAssets(assets)

	ids := make([]string, 0, len(assets))
	for i := range assets {
		stored, err := svc.UpsertAsset(cmd.Context(), &assets[i])
		if err != nil {
			return nil, fmt.Errorf("persona %q: store reference: %w", entry.Name, err)
		}
		ids = append(ids, stored.ID)
	}
	return ids, nil
}
