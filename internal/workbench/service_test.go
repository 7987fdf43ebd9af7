package workbench

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pictor/internal/models"
	"pictor/internal/store"
	"pictor/internal/testutil"
)

func testService(t *testing.T) (*Service, *testutil.StubClock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "pictor.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	clock := testutil.FixedClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(st, clock, testutil.NewStubIDGenerator(), DefaultProjectDefaults(), logger)
	return svc, clock
}

func mustCreateProject(t *testing.T, svc *Service, name string) *models.Project {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), name)
	if err != nil {
		t.Fatalf("create project %q: %v", name, err)
	}
	return project
}

func mustUpsertAsset(t *testing.T, svc *Service, asset *models.OutputAsset) *models.OutputAsset {
	t.Helper()
	stored, err := svc.UpsertAsset(context.Background(), asset)
	if err != nil {
		t.Fatalf("upsert asset %q: %v", asset.ID, err)
	}
	return stored
}

func TestCreateProject_DefaultsAndBlankName(t *testing.T) {
	svc, clock := testService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, "   ")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.Name != models.DefaultProjectName {
		t.Errorf("name = %q, want default", project.Name)
	}
	defaults := DefaultProjectDefaults()
	if project.DefaultModel != defaults.Model || project.DefaultResolution != defaults.Resolution {
		t.Errorf("defaults not applied: %+v", project)
	}
	if !project.CreatedAt.Equal(clock.Now()) || !project.LastOpenedAt.Equal(clock.Now()) {
		t.Errorf("timestamps not stamped from clock: %+v", project)
	}
}

func TestUpdateProject_NotFoundAndShallowMerge(t *testing.T) {
	svc, clock := testService(t)
	ctx := context.Background()

	_, err := svc.UpdateProject(ctx, "prj-ghost", models.ProjectPatch{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	project := mustCreateProject(t, svc, "Demo")
	clock.Advance(time.Hour)

	newName := "Demo renamed"
	updated, err := svc.UpdateProject(ctx, project.ID, models.ProjectPatch{Name: &newName})
	if err != nil {
		t.Fatalf("update project: %v", err)
	}
	if updated.Name != newName {
		t.Errorf("name = %q, want %q", updated.Name, newName)
	}
	if updated.DefaultModel != project.DefaultModel {
		t.Errorf("unpatched field changed: %q", updated.DefaultModel)
	}
	if !updated.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("updated_at = %v, want %v", updated.UpdatedAt, clock.Now())
	}
	if updated.ID != project.ID {
		t.Errorf("id must be immutable: %q", updated.ID)
	}
}

func TestTouchProject_OnlyMovesLastOpenedAt(t *testing.T) {
	svc, clock := testService(t)
	ctx := context.Background()

	project := mustCreateProject(t, svc, "Demo")
	clock.Advance(time.Hour)

	touched, err := svc.TouchProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("touch project: %v", err)
	}
	if !touched.LastOpenedAt.Equal(clock.Now()) {
		t.Errorf("last_opened_at = %v, want %v", touched.LastOpenedAt, clock.Now())
	}
	if touched.Name != project.Name {
		t.Errorf("touch must not change other fields: %q", touched.Name)
	}
}

func TestUpsertAsset_ScopeValidation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		asset models.OutputAsset
	}{
		{"project scope without project id", models.OutputAsset{Scope: models.ScopeProject, Kind: models.AssetKindGenerated, MimeType: "image/png"}},
		{"global scope with project id", models.OutputAsset{Scope: models.ScopeGlobal, ProjectID: "prj-1", Kind: models.AssetKindPersona, MimeType: "image/png"}},
		{"unknown scope", models.OutputAsset{Scope: "shared", Kind: models.AssetKindGenerated, MimeType: "image/png"}},
	}
	for _, tc := range cases {
		asset := tc.asset
		if _, err := svc.UpsertAsset(ctx, &asset); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestUpsertAsset_AllocatesPrefixedID(t *testing.T) {
	svc, _ := testService(t)

	project := mustCreateProject(t, svc, "Demo")
	asset := mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope:     models.ScopeProject,
		ProjectID: project.ID,
		Kind:      models.AssetKindGenerated,
		MimeType:  "image/png",
		Content:   []byte("img"),
	})
	if asset.ID != "ast-1" {
		t.Errorf("id = %q, want ast-1 from stub generator", asset.ID)
	}
	if asset.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}
}

func TestAppendStep_Validation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	project := mustCreateProject(t, svc, "Demo")

	cases := []struct {
		name string
		step models.TimelineStep
	}{
		{"nil step", nil},
		{"generation without prompt", &models.GenerationStep{ProjectID: project.ID, Input: models.GenerationInput{Prompt: "  ", OutputCount: 1}}},
		{"generation without project", &models.GenerationStep{Input: models.GenerationInput{Prompt: "x", OutputCount: 1}}},
		{"edit without asset ids", &models.EditStep{ProjectID: project.ID}},
	}
	for _, tc := range cases {
		if _, err := svc.AppendStep(ctx, tc.step); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestStepMissingReferences_FlagsOnlyDeletedIDs(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	// One referenced asset exists, the other was deleted; the missing set
	// must contain exactly the deleted id.
	project := mustCreateProject(t, svc, "Demo")
	live := mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope: models.ScopeProject, ProjectID: project.ID,
		Kind: models.AssetKindReference, MimeType: "image/png", Content: []byte("live"),
	})

	step, err := svc.AppendStep(ctx, &models.GenerationStep{
		ProjectID: project.ID,
		Input: models.GenerationInput{
			Prompt:            "portrait",
			ReferenceAssetIDs: []string{live.ID, "ast-deleted"},
			OutputCount:       1,
		},
		Status: models.StepStatusComplete,
	})
	if err != nil {
		t.Fatalf("append step: %v", err)
	}

	missing, err := svc.StepMissingReferences(ctx, step)
	if err != nil {
		t.Fatalf("missing references: %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"ast-deleted"}) {
		t.Errorf("missing = %v, want [ast-deleted]", missing)
	}
}

func TestDeleteProject_LeavesNoProjectRows(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	project := mustCreateProject(t, svc, "Demo")
	mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope: models.ScopeProject, ProjectID: project.ID,
		Kind: models.AssetKindGenerated, MimeType: "image/png", Content: []byte("a"),
	})
	if _, err := svc.AppendStep(ctx, &models.GenerationStep{
		ProjectID: project.ID,
		Input:     models.GenerationInput{Prompt: "p", OutputCount: 1},
		Status:    models.StepStatusComplete,
	}); err != nil {
		t.Fatalf("append step: %v", err)
	}

	if err := svc.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	steps, err := svc.ListSteps(ctx, project.ID)
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("steps remain after delete: %d", len(steps))
	}
	if _, err := svc.GetProject(ctx, project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPersonaLifecycle(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	shared := mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope: models.ScopeGlobal, Kind: models.AssetKindPersona,
		MimeType: "image/png", Content: []byte("shared"),
	})
	unique := mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope: models.ScopeGlobal, Kind: models.AssetKindPersona,
		MimeType: "image/png", Content: []byte("unique"),
	})

	face, err := svc.CreatePersona(ctx, "Face", []string{shared.ID, unique.ID})
	if err != nil {
		t.Fatalf("create Face: %v", err)
	}
	if _, err := svc.CreatePersona(ctx, "Duo", []string{shared.ID}); err != nil {
		t.Fatalf("create Duo: %v", err)
	}

	if err := svc.DeletePersona(ctx, face.ID); err != nil {
		t.Fatalf("delete Face: %v", err)
	}

	assets, err := svc.GetAssets(ctx, []string{shared.ID, unique.ID})
	if err != nil {
		t.Fatalf("get assets: %v", err)
	}
	if len(assets) != 1 || assets[0].ID != shared.ID {
		t.Errorf("expected only shared asset to survive, got %+v", assets)
	}

	if err := svc.DeletePersona(ctx, "per-ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for ghost persona, got %v", err)
	}
}

func TestCreatePersona_EnforcesCapacity(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	refs := make([]string, models.PersonaReferenceCapacity+1)
	for i := range refs {
		refs[i] = "ast-x"
	}
	if _, err := svc.CreatePersona(ctx, "Crowded", refs); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation over capacity, got %v", err)
	}
	if _, err := svc.CreatePersona(ctx, "", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestCollectCleanupCandidates(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	small := mustCreateProject(t, svc, "Small")
	big := mustCreateProject(t, svc, "Big")
	mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope: models.ScopeProject, ProjectID: small.ID,
		Kind: models.AssetKindGenerated, MimeType: "image/png", Content: []byte("xy"),
	})
	mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope: models.ScopeProject, ProjectID: big.ID,
		Kind: models.AssetKindGenerated, MimeType: "image/png", Content: make([]byte, 500),
	})

	candidates, err := svc.CollectCleanupCandidates(ctx)
	if err != nil {
		t.Fatalf("collect candidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Project.ID != big.ID || candidates[0].TotalBytes != 500 {
		t.Errorf("candidates[0] = %+v, want Big/500", candidates[0])
	}
	if candidates[1].Project.ID != small.ID || candidates[1].TotalBytes != 2 {
		t.Errorf("candidates[1] = %+v, want Small/2", candidates[1])
	}
}

func TestCollectUsageForPersona(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	project := mustCreateProject(t, svc, "Demo")
	persona, err := svc.CreatePersona(ctx, "Face", nil)
	if err != nil {
		t.Fatalf("create persona: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.AppendStep(ctx, &models.GenerationStep{
			ProjectID: project.ID,
			Input:     models.GenerationInput{Prompt: "p", PersonaIDs: []string{persona.ID}, OutputCount: 1},
			Status:    models.StepStatusComplete,
		}); err != nil {
			t.Fatalf("append step %d: %v", i, err)
		}
	}

	count, err := svc.CollectUsageForPersona(ctx, persona.ID)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if count != 2 {
		t.Errorf("usage = %d, want 2", count)
	}
}
