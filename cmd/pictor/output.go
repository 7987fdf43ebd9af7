package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"pictor/internal/models"
	"pictor/internal/workbench"
)

func writeJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeProjectList(projects []models.Project) error {
	for _, project := range projects {
		if err := writePlain("%s\t%s\t%s\n", project.ID, formatTime(project.LastOpenedAt), project.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeProjectDetail(project *models.Project, stepCount, assetCount int) error {
	lines := []string{
		fmt.Sprintf("id: %s", project.ID),
		fmt.Sprintf("name: %s", project.Name),
		fmt.Sprintf("model: %s", project.DefaultModel),
		fmt.Sprintf("aspect_ratio: %s", project.DefaultAspectRatio),
		fmt.Sprintf("resolution: %s", project.DefaultResolution),
		fmt.Sprintf("created_at: %s", formatTime(project.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(project.UpdatedAt)),
		fmt.Sprintf("last_opened_at: %s", formatTime(project.LastOpenedAt)),
		fmt.Sprintf("steps: %d", stepCount),
		fmt.Sprintf("assets: %d", assetCount),
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writePersonaList(personas []models.Persona) error {
	for _, persona := range personas {
		if err := writePlain("%s\t%d refs\t%s\n", persona.ID, len(persona.ReferenceAssetIDs), persona.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeCleanupReport(candidates []workbench.CleanupCandidate) error {
	for _, candidate := range candidates {
		if err := writePlain("%s\t%s\t%d assets\t%s\n",
			candidate.Project.ID, formatBytes(candidate.TotalBytes),
			candidate.AssetCount, candidate.Project.Name); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
