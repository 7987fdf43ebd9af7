package workbench

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pictor/internal/models"
	"pictor/internal/store"
)

// ProjectDefaults seeds new projects with generation settings.
type ProjectDefaults struct {
	Model       string
	AspectRatio string
	Resolution  string
}

// DefaultProjectDefaults returns the built-in generation settings.
func DefaultProjectDefaults() ProjectDefaults {
	return ProjectDefaults{
		Model:       "fast-image-2",
		AspectRatio: "1:1",
		Resolution:  "1024x1024",
	}
}

// Service is the repository boundary for the workbench entity graph: CRUD and
// query operations, project duplication, backup export/import, and the
// cascading cleanup embedded in deletes. All multi-entity writes run in one
// store transaction.
type Service struct {
	store    *store.Store
	clock    Clock
	ids      IDGenerator
	defaults ProjectDefaults
	logger   *slog.Logger
}

// NewService creates a Service with the provided dependencies. A nil logger
// falls back to slog.Default().
func NewService(st *store.Store, clock Clock, ids IDGenerator, defaults ProjectDefaults, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		clock:    clock,
		ids:      ids,
		defaults: defaults,
		logger:   logger,
	}
}

// ListProjects returns all projects, most recently opened first.
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.store.ListProjects(ctx)
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return project, nil
}

// CreateProject creates a project with defaulted generation settings. A blank
// name falls back to the default project name.
func (s *Service) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.DefaultProjectName
	}
	now := s.clock.Now()
	project := &models.Project{
		ID:                 s.ids.NewID(ProjectIDPrefix),
		Name:               name,
		DefaultModel:       s.defaults.Model,
		DefaultAspectRatio: s.defaults.AspectRatio,
		DefaultResolution:  s.defaults.Resolution,
		CreatedAt:          now,
		UpdatedAt:          now,
		LastOpenedAt:       now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Debug("project created", "id", project.ID, "name", project.Name)
	return project, nil
}

// UpdateProject shallow-merges the patch into the project and stamps
// updated_at. The id is immutable. Fails with ErrNotFound when absent.
func (s *Service) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}

	patch.Apply(project)
	project.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	return project, nil
}

// TouchProject records that the project was just opened.
func (s *Service) TouchProject(ctx context.Context, id string) (*models.Project, error) {
	now := s.clock.Now()
	return s.UpdateProject(ctx, id, models.ProjectPatch{LastOpenedAt: &now})
}

// DeleteProject deletes the project, all its steps, and all its
// project-scoped assets in one transaction. Deleting an absent project is a
// no-op.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.DeleteProjectCascade(ctx, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	s.logger.Debug("project deleted", "id", id)
	return nil
}

// UpsertAsset stores one asset. A blank id is allocated; a zero timestamp is
// stamped. Scope and project id must agree.
func (s *Service) UpsertAsset(ctx context.Context, asset *models.OutputAsset) (*models.OutputAsset, error) {
	if asset == nil {
		return nil, fmt.Errorf("asset is required: %w", ErrValidation)
	}
	if err := validateAssetScope(asset); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if asset.ID == "" {
		asset.ID = s.ids.NewID(AssetIDPrefix)
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	if err := s.store.UpsertAsset(ctx, asset, now); err != nil {
		return nil, err
	}
	return asset, nil
}

// GetAsset returns one asset or ErrNotFound.
func (s *Service) GetAsset(ctx context.Context, id string) (*models.OutputAsset, error) {
	asset, err := s.store.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return asset, nil
}

// GetAssets is a best-effort batch fetch: missing ids are silently dropped
// from the result, never an error, since dangling references are an expected
// state.
func (s *Service) GetAssets(ctx context.Context, ids []string) ([]models.OutputAsset, error) {
	return s.store.GetAssets(ctx, ids)
}

// ListProjectAssets returns a project's project-scoped assets.
func (s *Service) ListProjectAssets(ctx context.Context, projectID string) ([]models.OutputAsset, error) {
	return s.store.ListAssetsByProject(ctx, projectID)
}

// AppendStep appends a timeline step and bumps the owning project's
// updated_at in the same transaction. The step must carry its operation
// fields; a blank id or zero timestamp is filled in.
func (s *Service) AppendStep(ctx context.Context, step models.TimelineStep) (models.TimelineStep, error) {
	if step == nil {
		return nil, fmt.Errorf("step is required: %w", ErrValidation)
	}
	now := s.clock.Now()

	switch v := step.(type) {
	case *models.GenerationStep:
		if v.ProjectID == "" {
			return nil, fmt.Errorf("generation step needs a project id: %w", ErrValidation)
		}
		if strings.TrimSpace(v.Input.Prompt) == "" {
			return nil, fmt.Errorf("generation step needs a prompt: %w", ErrValidation)
		}
		if v.ID == "" {
			v.ID = s.ids.NewID(StepIDPrefix)
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
	case *models.EditStep:
		if v.ProjectID == "" {
			return nil, fmt.Errorf("edit step needs a project id: %w", ErrValidation)
		}
		if v.SourceAssetID == "" || v.OutputAssetID == "" {
			return nil, fmt.Errorf("edit step needs source and output asset ids: %w", ErrValidation)
		}
		if v.ID == "" {
			v.ID = s.ids.NewID(StepIDPrefix)
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
	default:
		return nil, fmt.Errorf("unknown step variant %T: %w", step, ErrValidation)
	}

	if err := s.store.AppendStep(ctx, step, now); err != nil {
		return nil, err
	}
	return step, nil
}

// ListSteps returns a project's timeline in chronological order.
func (s *Service) ListSteps(ctx context.Context, projectID string) ([]models.TimelineStep, error) {
	return s.store.ListStepsByProject(ctx, projectID)
}

// StepMissingReferences reports which of a step's embedded asset ids no
// longer resolve. Dangling references are tolerated and surfaced as
// metadata, not repaired.
func (s *Service) StepMissingReferences(ctx context.Context, step models.TimelineStep) ([]string, error) {
	referenced := models.ReferencedAssetIDs(step)
	assets, err := s.store.GetAssets(ctx, referenced)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(assets))
	for _, asset := range assets {
		have[asset.ID] = struct{}{}
	}
	return models.MissingReferences(step, have), nil
}

// CleanupCandidate is one project's storage footprint, for user-facing
// storage-pressure remediation.
type CleanupCandidate struct {
	Project    models.Project
	AssetCount int
	TotalBytes int64
}

// CollectCleanupCandidates sums each project's project-scoped asset bytes and
// returns projects ordered by descending size.
func (s *Service) CollectCleanupCandidates(ctx context.Context) ([]CleanupCandidate, error) {
	usage, err := s.store.ProjectAssetUsage(ctx)
	if err != nil {
		return nil, err
	}
	candidates := make([]CleanupCandidate, 0, len(usage))
	for _, u := range usage {
		project, err := s.store.GetProject(ctx, u.ProjectID)
		if err != nil {
			return nil, err
		}
		if project == nil {
			// Asset rows without a surviving project are stale but harmless;
			// skip them here.
			continue
		}
		candidates = append(candidates, CleanupCandidate{
			Project:    *project,
			AssetCount: u.AssetCount,
			TotalBytes: u.TotalBytes,
		})
	}
	return candidates, nil
}

// CollectUsageForPersona counts generation steps whose input persona ids
// include the persona.
func (s *Service) CollectUsageForPersona(ctx context.Context, personaID string) (int, error) {
	return s.store.CountGenerationStepsUsingPersona(ctx, personaID)
}

// CreatePersona creates a persona over existing global reference assets,
// enforcing the reference capacity.
func (s *Service) CreatePersona(ctx context.Context, name string, referenceAssetIDs []string) (*models.Persona, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("persona name is required: %w", ErrValidation)
	}
	if len(referenceAssetIDs) > models.PersonaReferenceCapacity {
		return nil, fmt.Errorf("persona holds at most %d reference images: %w", models.PersonaReferenceCapacity, ErrValidation)
	}
	now := s.clock.Now()
	persona := &models.Persona{
		ID:                s.ids.NewID(PersonaIDPrefix),
		Name:              name,
		ReferenceAssetIDs: referenceAssetIDs,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.UpsertPersona(ctx, persona); err != nil {
		return nil, fmt.Errorf("create persona: %w", err)
	}
	return persona, nil
}

// UpdatePersonaReferences replaces a persona's reference list, enforcing the
// capacity.
func (s *Service) UpdatePersonaReferences(ctx context.Context, id string, referenceAssetIDs []string) (*models.Persona, error) {
	if len(referenceAssetIDs) > models.PersonaReferenceCapacity {
		return nil, fmt.Errorf("persona holds at most %d reference images: %w", models.PersonaReferenceCapacity, ErrValidation)
	}
	persona, err := s.store.GetPersona(ctx, id)
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	persona.ReferenceAssetIDs = referenceAssetIDs
	persona.UpdatedAt = s.clock.Now()
	if err := s.store.UpsertPersona(ctx, persona); err != nil {
		return nil, fmt.Errorf("update persona %s: %w", id, err)
	}
	return persona, nil
}

// ListPersonas returns all personas.
func (s *Service) ListPersonas(ctx context.Context) ([]models.Persona, error) {
	return s.store.ListPersonas(ctx)
}

// DeletePersona removes the persona and any of its global reference assets
// no remaining persona still references, in one transaction.
func (s *Service) DeletePersona(ctx context.Context, id string) error {
	found, err := s.store.DeletePersonaCascade(ctx, id)
	if err != nil {
		return fmt.Errorf("delete persona %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	s.logger.Debug("persona deleted", "id", id)
	return nil
}

func validateAssetScope(asset *models.OutputAsset) error {
	switch asset.Scope {
	case models.ScopeProject:
		if asset.ProjectID == "" {
			return fmt.Errorf("project-scoped asset needs a project id: %w", ErrValidation)
		}
	case models.ScopeGlobal:
		if asset.ProjectID != "" {
			return fmt.Errorf("global asset must not carry a project id: %w", ErrValidation)
		}
	default:
		return fmt.Errorf("invalid asset scope %q: %w", asset.Scope, ErrValidation)
	}
	return nil
}
