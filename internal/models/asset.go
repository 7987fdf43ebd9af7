package models

import (
	"mime"
	"strings"
	"time"
)

// OutputAsset is a stored binary image payload plus metadata. Project-scoped
// assets belong to exactly one project; global-scope assets (persona
// references) have no project and may be shared by multiple personas.
type OutputAsset struct {
	ID        string     `json:"id"`
	Scope     AssetScope `json:"scope"`
	ProjectID string     `json:"project_id,omitempty"` // empty for global scope
	Kind      AssetKind  `json:"kind"`
	MimeType  string     `json:"mime_type"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	SourceURL string     `json:"source_url,omitempty"`
	Content   []byte     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// FileExtension derives a filename extension from the asset's mime type.
// Unknown types fall back to "bin".
func (a OutputAsset) FileExtension() string {
	return extensionForMimeType(a.MimeType)
}

func extensionForMimeType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	switch mediaType {
	case "image/jpeg":
		return "jpg"
	case "image/svg+xml":
		return "svg"
	}
	if idx := strings.IndexByte(mediaType, '/'); idx >= 0 && idx+1 < len(mediaType) {
		sub := mediaType[idx+1:]
		if sub != "" && !strings.ContainsAny(sub, "+.") {
			return sub
		}
	}
	return "bin"
}
