package store

import (
	"context"
	"fmt"
	"time"

	"pictor/internal/models"
)

// ProjectGraph is a project's full subgraph plus any personas to merge,
// written atomically. Used by project duplication and backup import so a
// reader never observes the project without its steps or assets.
type ProjectGraph struct {
	Project  *models.Project
	Assets   []models.OutputAsset
	Steps    []models.TimelineStep
	Personas []models.Persona
}

// PutProjectGraph writes the whole graph in one transaction. Assets and
// steps are inserted fresh; personas are upserted by id (merge semantics).
// A capacity failure surfaces as a QuotaCleanupState and nothing is
// committed.
func (s *Store) PutProjectGraph(ctx context.Context, graph ProjectGraph, now time.Time) (err error) {
	if graph.Project == nil {
		return fmt.Errorf("project is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		graph.Project.ID,
		graph.Project.Name,
		graph.Project.DefaultModel,
		graph.Project.DefaultAspectRatio,
		graph.Project.DefaultResolution,
		formatTime(graph.Project.CreatedAt),
		formatTime(graph.Project.UpdatedAt),
		formatTime(graph.Project.LastOpenedAt),
	); err != nil {
		return mapQuotaError(err, now)
	}

	for i := range graph.Assets {
		asset := &graph.Assets[i]
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO assets (`+assetColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			asset.ID,
			string(asset.Scope),
			nullIfEmpty(asset.ProjectID),
			string(asset.Kind),
			asset.MimeType,
			asset.Width,
			asset.Height,
			nullIfEmpty(asset.SourceURL),
			asset.Content,
			formatTime(asset.CreatedAt),
		); err != nil {
			return mapQuotaError(err, now)
		}
	}

	for _, step := range graph.Steps {
		var payload []byte
		payload, err = models.EncodeStep(step)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO steps (id, project_id, kind, created_at, payload)
			VALUES (?, ?, ?, ?, ?)
		`,
			step.StepID(),
			step.StepProjectID(),
			string(step.StepKind()),
			formatTime(step.StepCreatedAt()),
			string(payload),
		); err != nil {
			return mapQuotaError(err, now)
		}
	}

	for i := range graph.Personas {
		persona := &graph.Personas[i]
		var refs string
		refs, err = marshalAssetIDs(persona.ReferenceAssetIDs)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO personas (`+personaColumns+`)
			VALUES (?, ?, ?, ?, ?)
		`,
			persona.ID,
			persona.Name,
			refs,
			formatTime(persona.CreatedAt),
			formatTime(persona.UpdatedAt),
		); err != nil {
			return mapQuotaError(err, now)
		}
	}

	if err = tx.Commit(); err != nil {
		return mapQuotaError(err, now)
	}
	return nil
}
