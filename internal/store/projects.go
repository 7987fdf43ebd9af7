package store

import (
	"context"
	"database/sql"
	"fmt"

	"pictor/internal/models"
)

const projectColumns = "id, name, default_model, default_aspect_ratio, default_resolution, created_at, updated_at, last_opened_at"

// CreateProject inserts one project row.
func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		project.ID,
		project.Name,
		project.DefaultModel,
		project.DefaultAspectRatio,
		project.DefaultResolution,
		formatTime(project.CreatedAt),
		formatTime(project.UpdatedAt),
		formatTime(project.LastOpenedAt),
	)
	return err
}

// GetProject returns one project by id, or nil when absent.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// ListProjects returns all projects ordered by last_opened_at descending.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY last_opened_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		if project != nil {
			projects = append(projects, *project)
		}
	}
	return projects, rows.Err()
}

// UpdateProject writes the full project row. The caller has already merged
// the patch and stamped updated_at.
func (s *Store) UpdateProject(ctx context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project is required")
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, default_model = ?, default_aspect_ratio = ?, default_resolution = ?,
		    updated_at = ?, last_opened_at = ?
		WHERE id = ?
	`,
		project.Name,
		project.DefaultModel,
		project.DefaultAspectRatio,
		project.DefaultResolution,
		formatTime(project.UpdatedAt),
		formatTime(project.LastOpenedAt),
		project.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteProjectCascade deletes the project, all its steps, and all its
// project-scoped assets in one transaction. Global-scope assets are never
// touched by a project delete.
func (s *Store) DeleteProjectCascade(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM steps WHERE project_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM assets WHERE project_id = ? AND scope = ?", id, models.ScopeProject); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

func scanProject(scanner interface {
	Scan(dest ...any) error
}) (*models.Project, error) {
	project := models.Project{}
	var createdAt, updatedAt, lastOpenedAt string

	err := scanner.Scan(
		&project.ID,
		&project.Name,
		&project.DefaultModel,
		&project.DefaultAspectRatio,
		&project.DefaultResolution,
		&createdAt,
		&updatedAt,
		&lastOpenedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if project.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if project.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if project.LastOpenedAt, err = parseTime(lastOpenedAt); err != nil {
		return nil, err
	}

	return &project, nil
}
