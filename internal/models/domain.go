package models

import (
	"fmt"
	"strings"
)

// AssetScope defines whether an asset belongs to one project or is shared
// process-wide.
type AssetScope string

const (
	ScopeProject AssetScope = "project"
	ScopeGlobal  AssetScope = "global"
)

// AssetKind describes how an asset came to exist.
type AssetKind string

const (
	AssetKindGenerated AssetKind = "generated"
	AssetKindEdited    AssetKind = "edited"
	AssetKindReference AssetKind = "reference"
	AssetKindImported  AssetKind = "imported"
	AssetKindPersona   AssetKind = "persona"
)

// StepKind tags the two timeline step variants.
type StepKind string

const (
	StepKindGeneration StepKind = "generation"
	StepKindEdit       StepKind = "edit"
)

// StepStatus defines lifecycle states for a generation step.
type StepStatus string

const (
	StepStatusPending  StepStatus = "pending"
	StepStatusComplete StepStatus = "complete"
	StepStatusFailed   StepStatus = "failed"
)

const (
	// DefaultProjectName is used when a project is created with a blank name.
	DefaultProjectName = "Untitled project"

	// PersonaReferenceCapacity bounds the reference images a persona may hold.
	// Enforced by callers before insertion, not by the store.
	PersonaReferenceCapacity = 6
)

var validAssetScopes = map[AssetScope]struct{}{
	ScopeProject: {},
	ScopeGlobal:  {},
}

var validAssetKinds = map[AssetKind]struct{}{
	AssetKindGenerated: {},
	AssetKindEdited:    {},
	AssetKindReference: {},
	AssetKindImported:  {},
	AssetKindPersona:   {},
}

var validStepStatuses = map[StepStatus]struct{}{
	StepStatusPending:  {},
	StepStatusComplete: {},
	StepStatusFailed:   {},
}

func ParseAssetScope(raw string) (AssetScope, error) {
	value := AssetScope(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("asset scope is required")
	}
	if _, ok := validAssetScopes[value]; !ok {
		return "", fmt.Errorf("invalid asset scope: %s", value)
	}
	return value, nil
}

func ParseAssetKind(raw string) (AssetKind, error) {
	value := AssetKind(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("asset kind is required")
	}
	if _, ok := validAssetKinds[value]; !ok {
		return "", fmt.Errorf("invalid asset kind: %s", value)
	}
	return value, nil
}

func ParseStepStatus(raw string) (StepStatus, error) {
	value := StepStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("step status is required")
	}
	if _, ok := validStepStatuses[value]; !ok {
		return "", fmt.Errorf("invalid step status: %s", value)
	}
	return value, nil
}
