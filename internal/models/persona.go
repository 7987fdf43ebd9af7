package models

import "time"

// Persona is a named, reusable bundle of reference images usable across
// projects. Its asset ids point at global-scope, persona-kind assets that may
// be shared with other personas.
type Persona struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	ReferenceAssetIDs []string  `json:"reference_asset_ids,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
