package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ManifestSchemaVersion is the backup manifest format version. Bumped when
// the manifest shape changes in a way importers must notice.
const ManifestSchemaVersion = 1

// ManifestFilename is the archive entry that holds the manifest document.
const ManifestFilename = "manifest.json"

// AssetDescriptor is an asset's manifest entry: metadata plus the archive
// filename that locates the binary payload. Payload bytes never appear
// inline in the manifest.
type AssetDescriptor struct {
	ID        string     `json:"id"`
	Scope     AssetScope `json:"scope"`
	Kind      AssetKind  `json:"kind"`
	MimeType  string     `json:"mime_type"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	SourceURL string     `json:"source_url,omitempty"`
	Filename  string     `json:"filename"`
	CreatedAt time.Time  `json:"created_at"`
}

// DescribeAsset builds the manifest entry for an asset, deriving the archive
// filename from its id and mime type.
func DescribeAsset(asset OutputAsset) AssetDescriptor {
	return AssetDescriptor{
		ID:        asset.ID,
		Scope:     asset.Scope,
		Kind:      asset.Kind,
		MimeType:  asset.MimeType,
		Width:     asset.Width,
		Height:    asset.Height,
		SourceURL: asset.SourceURL,
		Filename:  fmt.Sprintf("assets/%s.%s", asset.ID, asset.FileExtension()),
		CreatedAt: asset.CreatedAt,
	}
}

// BackupManifest is the metadata document describing a portable archive's
// contents. Steps are stored in serialized envelope form so the manifest
// round-trips both variants without a second tagging scheme.
type BackupManifest struct {
	SchemaVersion int               `json:"schema_version"`
	ExportedAt    time.Time         `json:"exported_at"`
	Project       Project           `json:"project"`
	Steps         []json.RawMessage `json:"steps"`
	Assets        []AssetDescriptor `json:"assets"`
	PersonasUsed  []Persona         `json:"personas_used,omitempty"`
}

// AppendStep adds a step to the manifest in envelope form.
func (m *BackupManifest) AppendStep(step TimelineStep) error {
	encoded, err := EncodeStep(step)
	if err != nil {
		return err
	}
	m.Steps = append(m.Steps, encoded)
	return nil
}

// DecodedSteps parses all manifest steps back into their variants.
func (m *BackupManifest) DecodedSteps() ([]TimelineStep, error) {
	steps := make([]TimelineStep, 0, len(m.Steps))
	for i, raw := range m.Steps {
		step, err := DecodeStep(raw)
		if err != nil {
			return nil, fmt.Errorf("manifest step %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}
