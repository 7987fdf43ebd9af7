package workbench

import (
	"context"
	"fmt"

	"pictor/internal/models"
	"pictor/internal/store"
)

// CopyNameSuffix marks a duplicated project's derived name.
const CopyNameSuffix = " (copy)"

// DuplicateProject deep-copies a project's steps and project-scoped assets
// into a new project under fresh identifiers. The copy shares no mutable
// state with the original: every embedded asset reference is rewritten
// through one bijective old-to-new id map, and all writes commit in a single
// transaction.
func (s *Service) DuplicateProject(ctx context.Context, id string) (*models.Project, error) {
	source, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	steps, err := s.store.ListStepsByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	assets, err := s.store.ListAssetsByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	clone := *source
	clone.ID = s.ids.NewID(ProjectIDPrefix)
	clone.Name = source.Name + CopyNameSuffix
	clone.CreatedAt = now
	clone.UpdatedAt = now
	clone.LastOpenedAt = now

	assetIDs := make(map[string]string, len(assets))
	clonedAssets := make([]models.OutputAsset, len(assets))
	for i, asset := range assets {
		newID := s.ids.NewID(AssetIDPrefix)
		assetIDs[asset.ID] = newID

		copied := asset
		copied.ID = newID
		copied.ProjectID = clone.ID
		copied.Content = append([]byte(nil), asset.Content...)
		copied.CreatedAt = now
		clonedAssets[i] = copied
	}

	clonedSteps := make([]models.TimelineStep, len(steps))
	for i, step := range steps {
		remapped, err := remapStep(step, s.ids.NewID(StepIDPrefix), clone.ID, assetIDs)
		if err != nil {
			return nil, fmt.Errorf("duplicate project %s: %w", id, err)
		}
		clonedSteps[i] = remapped
	}

	graph := store.ProjectGraph{
		Project: &clone,
		Assets:  clonedAssets,
		Steps:   clonedSteps,
	}
	if err := s.store.PutProjectGraph(ctx, graph, now); err != nil {
		return nil, err
	}

	s.logger.Debug("project duplicated",
		"source", id, "clone", clone.ID,
		"steps", len(clonedSteps), "assets", len(clonedAssets))
	return &clone, nil
}
