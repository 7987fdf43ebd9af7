package models

import "time"

// Project is a user's independent workspace containing a timeline and its
// assets. It is the root of a project-scoped subgraph: deleting a project
// cascades to its steps and project-scoped assets.
type Project struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	DefaultModel       string    `json:"default_model"`
	DefaultAspectRatio string    `json:"default_aspect_ratio"`
	DefaultResolution  string    `json:"default_resolution"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	LastOpenedAt       time.Time `json:"last_opened_at"`
}

// ProjectPatch is a shallow-merge update: nil fields are left untouched.
// The project id is immutable and has no patch field.
type ProjectPatch struct {
	Name               *string
	DefaultModel       *string
	DefaultAspectRatio *string
	DefaultResolution  *string
	LastOpenedAt       *time.Time
}

// Apply merges the patch into the project in place.
func (p ProjectPatch) Apply(project *Project) {
	if project == nil {
		return
	}
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.DefaultModel != nil {
		project.DefaultModel = *p.DefaultModel
	}
	if p.DefaultAspectRatio != nil {
		project.DefaultAspectRatio = *p.DefaultAspectRatio
	}
	if p.DefaultResolution != nil {
		project.DefaultResolution = *p.DefaultResolution
	}
	if p.LastOpenedAt != nil {
		project.LastOpenedAt = *p.LastOpenedAt
	}
}
