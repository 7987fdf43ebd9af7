package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pictor/internal/models"
)

// AppendStep inserts one timeline step and bumps the owning project's
// updated_at in the same transaction. A capacity failure surfaces as a
// QuotaCleanupState and leaves the store unchanged.
func (s *Store) AppendStep(ctx context.Context, step models.TimelineStep, now time.Time) (err error) {
	if step == nil {
		return fmt.Errorf("step is required")
	}
	payload, err := models.EncodeStep(step)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO steps (id, project_id, kind, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`,
		step.StepID(),
		step.StepProjectID(),
		string(step.StepKind()),
		formatTime(step.StepCreatedAt()),
		string(payload),
	); err != nil {
		return mapQuotaError(err, now)
	}

	if _, err = tx.ExecContext(ctx, "UPDATE projects SET updated_at = ? WHERE id = ?", formatTime(now), step.StepProjectID()); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return mapQuotaError(err, now)
	}
	return nil
}

// GetStep returns one step by id, or nil when absent.
func (s *Store) GetStep(ctx context.Context, id string) (models.TimelineStep, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM steps WHERE id = ?", id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return models.DecodeStep([]byte(payload))
}

// ListStepsByProject returns a project's steps ordered by created_at.
func (s *Store) ListStepsByProject(ctx context.Context, projectID string) ([]models.TimelineStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM steps WHERE project_id = ? ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []models.TimelineStep{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		step, err := models.DecodeStep([]byte(payload))
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// CountGenerationStepsUsingPersona counts generation steps whose input
// persona ids include the given persona. A read-only aggregate, not a
// referential check.
func (s *Store) CountGenerationStepsUsingPersona(ctx context.Context, personaID string) (int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM steps WHERE kind = ?", string(models.StepKindGeneration))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return 0, err
		}
		step, err := models.DecodeStep([]byte(payload))
		if err != nil {
			return 0, err
		}
		generation, ok := step.(*models.GenerationStep)
		if !ok {
			continue
		}
		for _, id := range generation.Input.PersonaIDs {
			if id == personaID {
				count++
				break
			}
		}
	}
	return count, rows.Err()
}
