package workbench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"pictor/internal/archive"
	"pictor/internal/models"
	"pictor/internal/store"
)

// ImportNameSuffix marks an imported project's derived name.
const ImportNameSuffix = " (imported)"

// ExportProjectBackup serializes a project's graph plus the personas its
// history actually uses into one portable archive: a manifest entry plus one
// binary entry per project-scoped asset. Persona reference images are shared
// global state, not project-owned, and are not bundled.
func (s *Service) ExportProjectBackup(ctx context.Context, projectID string) ([]byte, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	steps, err := s.store.ListStepsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	assets, err := s.store.ListAssetsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	personas, err := s.store.GetPersonas(ctx, personaIDsInUse(steps))
	if err != nil {
		return nil, err
	}

	manifest := models.BackupManifest{
		SchemaVersion: models.ManifestSchemaVersion,
		ExportedAt:    s.clock.Now(),
		Project:       *project,
		Assets:        make([]models.AssetDescriptor, 0, len(assets)),
		PersonasUsed:  personas,
	}
	for _, step := range steps {
		if err := manifest.AppendStep(step); err != nil {
			return nil, fmt.Errorf("export project %s: %w", projectID, err)
		}
	}
	for _, asset := range assets {
		manifest.Assets = append(manifest.Assets, models.DescribeAsset(asset))
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	var buf bytes.Buffer
	w := archive.NewWriter(&buf)
	if err := w.WriteEntry(models.ManifestFilename, manifestJSON); err != nil {
		return nil, err
	}
	for i, asset := range assets {
		if err := w.WriteEntry(manifest.Assets[i].Filename, asset.Content); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	s.logger.Debug("project exported",
		"project", projectID, "steps", len(steps),
		"assets", len(assets), "personas", len(personas))
	return buf.Bytes(), nil
}

// ImportProjectBackup restores an exported archive under fresh identifiers.
// A missing or unparseable manifest rejects the whole import; a missing asset
// payload only skips that asset, tolerating partial archives. Bundled
// personas are restored by their original id with a refreshed updated_at —
// they are process-wide shared state, merged rather than cloned.
func (s *Service) ImportProjectBackup(ctx context.Context, data []byte) (*models.Project, error) {
	reader, err := archive.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	manifestJSON, ok, err := reader.ReadEntry(models.ManifestFilename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: manifest missing", ErrInvalidArchive)
	}
	var manifest models.BackupManifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	steps, err := manifest.DecodedSteps()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	now := s.clock.Now()
	project := manifest.Project
	project.ID = s.ids.NewID(ProjectIDPrefix)
	project.Name = manifest.Project.Name + ImportNameSuffix
	project.CreatedAt = now
	project.UpdatedAt = now
	project.LastOpenedAt = now

	assetIDs := make(map[string]string, len(manifest.Assets))
	assets := make([]models.OutputAsset, 0, len(manifest.Assets))
	for _, descriptor := range manifest.Assets {
		content, ok, err := reader.ReadEntry(descriptor.Filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		if !ok {
			// Tolerate partial archives: the asset becomes a dangling
			// reference, same as any deleted image.
			s.logger.Warn("backup asset payload missing", "filename", descriptor.Filename)
			continue
		}
		newID := s.ids.NewID(AssetIDPrefix)
		assetIDs[descriptor.ID] = newID
		assets = append(assets, models.OutputAsset{
			ID:        newID,
			Scope:     descriptor.Scope,
			ProjectID: project.ID,
			Kind:      descriptor.Kind,
			MimeType:  descriptor.MimeType,
			Width:     descriptor.Width,
			Height:    descriptor.Height,
			SourceURL: descriptor.SourceURL,
			Content:   content,
			CreatedAt: descriptor.CreatedAt,
		})
	}

	imported := make([]models.TimelineStep, len(steps))
	for i, step := range steps {
		remapped, err := remapStep(step, s.ids.NewID(StepIDPrefix), project.ID, assetIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		imported[i] = remapped
	}

	personas := make([]models.Persona, len(manifest.PersonasUsed))
	for i, persona := range manifest.PersonasUsed {
		persona.UpdatedAt = now
		personas[i] = persona
	}

	graph := store.ProjectGraph{
		Project:  &project,
		Assets:   assets,
		Steps:    imported,
		Personas: personas,
	}
	if err := s.store.PutProjectGraph(ctx, graph, now); err != nil {
		return nil, err
	}

	s.logger.Debug("project imported",
		"project", project.ID, "steps", len(imported),
		"assets", len(assets), "personas", len(personas))
	return &project, nil
}

// personaIDsInUse collects the persona ids referenced by any generation
// step's input, in first-use order.
func personaIDsInUse(steps []models.TimelineStep) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, step := range steps {
		generation, ok := step.(*models.GenerationStep)
		if !ok {
			continue
		}
		for _, id := range generation.Input.PersonaIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
