package workbench

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"pictor/internal/models"
)

// seedProject builds a project with two assets, a persona, a generation step
// referencing all of them, and an edit step deriving one asset from the other.
type seededProject struct {
	project *models.Project
	ref     *models.OutputAsset
	out     *models.OutputAsset
	persona *models.Persona
}

func seedProject(t *testing.T, svc *Service) seededProject {
	t.Helper()
	ctx := context.Background()

	project := mustCreateProject(t, svc, "Shoot")
	ref := mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope: models.ScopeProject, ProjectID: project.ID,
		Kind: models.AssetKindReference, MimeType: "image/jpeg",
		Content: []byte("reference-bytes"),
	})
	out := mustUpsertAsset(t, svc, &models.OutputAsset{
		Scope: models.ScopeProject, ProjectID: project.ID,
		Kind: models.AssetKindGenerated, MimeType: "image/png",
		Width: 1024, Height: 1024,
		Content: []byte("generated-bytes"),
	})
	persona, err := svc.CreatePersona(ctx, "Face", nil)
	if err != nil {
		t.Fatalf("create persona: %v", err)
	}

	if _, err := svc.AppendStep(ctx, &models.GenerationStep{
		ProjectID: project.ID,
		Input: models.GenerationInput{
			Model:             project.DefaultModel,
			Prompt:            "portrait in the rain",
			ReferenceAssetIDs: []string{ref.ID},
			PersonaIDs:        []string{persona.ID},
			Resolution:        project.DefaultResolution,
			AspectRatio:       project.DefaultAspectRatio,
			OutputCount:       1,
		},
		Outputs: []models.GenerationOutput{{
			AssetID: out.ID, MimeType: out.MimeType,
			Width: out.Width, Height: out.Height,
		}},
		Status: models.StepStatusComplete,
	}); err != nil {
		t.Fatalf("append generation step: %v", err)
	}
	if _, err := svc.AppendStep(ctx, &models.EditStep{
		ProjectID:     project.ID,
		SourceAssetID: out.ID,
		OutputAssetID: ref.ID,
		Operations:    []string{"crop", "upscale"},
	}); err != nil {
		t.Fatalf("append edit step: %v", err)
	}

	return seededProject{project: project, ref: ref, out: out, persona: persona}
}

func TestDuplicateProject(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	seed := seedProject(t, svc)

	clone, err := svc.DuplicateProject(ctx, seed.project.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if clone.ID == seed.project.ID {
		t.Fatal("clone shares the source project id")
	}
	if clone.Name != seed.project.Name+CopyNameSuffix {
		t.Errorf("clone name = %q", clone.Name)
	}
	if clone.DefaultModel != seed.project.DefaultModel {
		t.Errorf("clone lost settings: %q", clone.DefaultModel)
	}

	sourceSteps, err := svc.ListSteps(ctx, seed.project.ID)
	if err != nil {
		t.Fatalf("list source steps: %v", err)
	}
	cloneSteps, err := svc.ListSteps(ctx, clone.ID)
	if err != nil {
		t.Fatalf("list clone steps: %v", err)
	}
	if len(cloneSteps) != len(sourceSteps) {
		t.Fatalf("clone has %d steps, source %d", len(cloneSteps), len(sourceSteps))
	}

	sourceIDs := map[string]struct{}{seed.ref.ID: {}, seed.out.ID: {}}
	for _, step := range sourceSteps {
		sourceIDs[step.StepID()] = struct{}{}
	}

	for i, step := range cloneSteps {
		if step.StepKind() != sourceSteps[i].StepKind() {
			t.Errorf("step %d kind = %q, want %q", i, step.StepKind(), sourceSteps[i].StepKind())
		}
		if _, clash := sourceIDs[step.StepID()]; clash {
			t.Errorf("step %d reuses source id %q", i, step.StepID())
		}
		for _, ref := range models.ReferencedAssetIDs(step) {
			if _, clash := sourceIDs[ref]; clash {
				t.Errorf("step %d references source asset %q", i, ref)
			}
		}
		// Every embedded reference must resolve inside the clone.
		missing, err := svc.StepMissingReferences(ctx, step)
		if err != nil {
			t.Fatalf("missing references: %v", err)
		}
		if len(missing) != 0 {
			t.Errorf("step %d has dangling references %v", i, missing)
		}
	}

	// Persona ids are shared global state and survive unmapped.
	generation, ok := cloneSteps[0].(*models.GenerationStep)
	if !ok {
		t.Fatalf("cloneSteps[0] is %T", cloneSteps[0])
	}
	if len(generation.Input.PersonaIDs) != 1 || generation.Input.PersonaIDs[0] != seed.persona.ID {
		t.Errorf("persona ids = %v, want [%s]", generation.Input.PersonaIDs, seed.persona.ID)
	}

	// Asset content is a deep copy with matching bytes.
	cloneAsset, err := svc.GetAsset(ctx, generation.Outputs[0].AssetID)
	if err != nil {
		t.Fatalf("get clone asset: %v", err)
	}
	if !bytes.Equal(cloneAsset.Content, seed.out.Content) {
		t.Error("clone asset content differs from source")
	}
	if cloneAsset.ProjectID != clone.ID {
		t.Errorf("clone asset owned by %q, want %q", cloneAsset.ProjectID, clone.ID)
	}
}

func TestDuplicateProject_ToleratesDanglingReferences(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	project := mustCreateProject(t, svc, "Sparse")
	if _, err := svc.AppendStep(ctx, &models.GenerationStep{
		ProjectID: project.ID,
		Input: models.GenerationInput{
			Prompt:            "ghost",
			ReferenceAssetIDs: []string{"ast-long-gone"},
			OutputCount:       1,
		},
		Status: models.StepStatusComplete,
	}); err != nil {
		t.Fatalf("append step: %v", err)
	}

	clone, err := svc.DuplicateProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	steps, err := svc.ListSteps(ctx, clone.ID)
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	refs := models.ReferencedAssetIDs(steps[0])
	if len(refs) != 1 || refs[0] != "ast-long-gone" {
		t.Errorf("dangling reference rewritten: %v", refs)
	}
}

func TestDuplicateProject_Missing(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.DuplicateProject(context.Background(), "prj-ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
