package workbench

import (
	"fmt"

	"pictor/internal/models"
)

// remapStep returns a deep copy of the step carrying a fresh id, the new
// project id, and every embedded asset reference rewritten through the
// old-to-new map. An unmapped id passes through unchanged: the operation
// stays total under a partially corrupt graph instead of failing loudly.
func remapStep(step models.TimelineStep, newID, newProjectID string, assetIDs map[string]string) (models.TimelineStep, error) {
	remap := func(id string) string {
		if mapped, ok := assetIDs[id]; ok {
			return mapped
		}
		return id
	}

	switch v := step.(type) {
	case *models.GenerationStep:
		clone := *v
		clone.ID = newID
		clone.ProjectID = newProjectID
		clone.Input.ReferenceAssetIDs = remapAll(v.Input.ReferenceAssetIDs, remap)
		clone.Input.PersonaIDs = append([]string(nil), v.Input.PersonaIDs...)
		if v.RemixOfAssetID != "" {
			clone.RemixOfAssetID = remap(v.RemixOfAssetID)
		}
		clone.Outputs = make([]models.GenerationOutput, len(v.Outputs))
		for i, out := range v.Outputs {
			out.AssetID = remap(out.AssetID)
			clone.Outputs[i] = out
		}
		return &clone, nil
	case *models.EditStep:
		clone := *v
		clone.ID = newID
		clone.ProjectID = newProjectID
		clone.SourceAssetID = remap(v.SourceAssetID)
		clone.OutputAssetID = remap(v.OutputAssetID)
		clone.Operations = append([]string(nil), v.Operations...)
		return &clone, nil
	default:
		return nil, fmt.Errorf("unknown step variant %T", step)
	}
}

func remapAll(ids []string, remap func(string) string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = remap(id)
	}
	return out
}
