package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimelineStep is one recorded operation within a project's history. It is a
// closed union of GenerationStep and EditStep; every consumption site must
// type-switch over both variants and treat anything else as an error, so a
// new variant surfaces everywhere it needs handling.
type TimelineStep interface {
	StepID() string
	StepProjectID() string
	StepCreatedAt() time.Time
	StepKind() StepKind

	timelineStep()
}

// GenerationInput records the full request that produced a generation step.
type GenerationInput struct {
	Model             string   `json:"model"`
	Prompt            string   `json:"prompt"`
	ReferenceAssetIDs []string `json:"reference_asset_ids,omitempty"`
	PersonaIDs        []string `json:"persona_ids,omitempty"`
	Resolution        string   `json:"resolution,omitempty"`
	AspectRatio       string   `json:"aspect_ratio,omitempty"`
	OutputCount       int      `json:"output_count"`
}

// GenerationOutput describes one produced image of a generation step.
type GenerationOutput struct {
	AssetID       string `json:"asset_id"`
	MimeType      string `json:"mime_type"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ProviderURL   string `json:"provider_url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// GenerationStep records one image-generation request and its outputs.
type GenerationStep struct {
	ID             string             `json:"id"`
	ProjectID      string             `json:"project_id"`
	Input          GenerationInput    `json:"input"`
	Outputs        []GenerationOutput `json:"outputs,omitempty"`
	RemixOfStepID  string             `json:"remix_of_step_id,omitempty"`
	RemixOfAssetID string             `json:"remix_of_asset_id,omitempty"`
	Status         StepStatus         `json:"status"`
	Error          string             `json:"error,omitempty"`
	Trace          string             `json:"trace,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

func (s *GenerationStep) StepID() string           { return s.ID }
func (s *GenerationStep) StepProjectID() string    { return s.ProjectID }
func (s *GenerationStep) StepCreatedAt() time.Time { return s.CreatedAt }
func (s *GenerationStep) StepKind() StepKind       { return StepKindGeneration }
func (s *GenerationStep) timelineStep()            {}

// EditStep records one image edit deriving a new asset from a source asset.
type EditStep struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	SourceAssetID string    `json:"source_asset_id"`
	OutputAssetID string    `json:"output_asset_id"`
	Operations    []string  `json:"operations,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *EditStep) StepID() string           { return s.ID }
func (s *EditStep) StepProjectID() string    { return s.ProjectID }
func (s *EditStep) StepCreatedAt() time.Time { return s.CreatedAt }
func (s *EditStep) StepKind() StepKind       { return StepKindEdit }
func (s *EditStep) timelineStep()            {}

// stepEnvelope is the serialized form of a TimelineStep: a kind tag plus the
// variant payload. Used for both the store and backup manifests.
type stepEnvelope struct {
	Kind StepKind        `json:"kind"`
	Step json.RawMessage `json:"step"`
}

// EncodeStep serializes a step with its kind tag.
func EncodeStep(step TimelineStep) ([]byte, error) {
	var payload any
	switch s := step.(type) {
	case *GenerationStep:
		payload = s
	case *EditStep:
		payload = s
	default:
		return nil, fmt.Errorf("unknown step variant %T", step)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal step payload: %w", err)
	}
	return json.Marshal(stepEnvelope{Kind: step.StepKind(), Step: raw})
}

// DecodeStep deserializes a step envelope back into its variant.
func DecodeStep(data []byte) (TimelineStep, error) {
	var envelope stepEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse step envelope: %w", err)
	}
	switch envelope.Kind {
	case StepKindGeneration:
		step := &GenerationStep{}
		if err := json.Unmarshal(envelope.Step, step); err != nil {
			return nil, fmt.Errorf("parse generation step: %w", err)
		}
		return step, nil
	case StepKindEdit:
		step := &EditStep{}
		if err := json.Unmarshal(envelope.Step, step); err != nil {
			return nil, fmt.Errorf("parse edit step: %w", err)
		}
		return step, nil
	default:
		return nil, fmt.Errorf("unknown step kind: %q", envelope.Kind)
	}
}

// ReferencedAssetIDs returns every asset id embedded in the step, in a stable
// order. Duplicates are preserved as single entries.
func ReferencedAssetIDs(step TimelineStep) []string {
	seen := map[string]struct{}{}
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	switch s := step.(type) {
	case *GenerationStep:
		for _, id := range s.Input.ReferenceAssetIDs {
			add(id)
		}
		add(s.RemixOfAssetID)
		for _, out := range s.Outputs {
			add(out.AssetID)
		}
	case *EditStep:
		add(s.SourceAssetID)
		add(s.OutputAssetID)
	}
	return ids
}

// MissingReferences returns the referenced asset ids that do not resolve in
// the given set. Dangling references are tolerated state, not an error:
// history stays inspectable after its source image is gone.
func MissingReferences(step TimelineStep, have map[string]struct{}) []string {
	var missing []string
	for _, id := range ReferencedAssetIDs(step) {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
