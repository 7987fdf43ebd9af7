package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pictor/internal/models"
)

const assetColumns = "id, scope, project_id, kind, mime_type, width, height, source_url, content, created_at"

// ProjectAssetUsage reports the bytes a project's own assets occupy.
type ProjectAssetUsage struct {
	ProjectID  string
	AssetCount int
	TotalBytes int64
}

// UpsertAsset writes one asset row, replacing an existing row with the same
// id. A capacity failure surfaces as a QuotaCleanupState; the prior state is
// left unchanged.
func (s *Store) UpsertAsset(ctx context.Context, asset *models.OutputAsset, now time.Time) error {
	if asset == nil {
		return fmt.Errorf("asset is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		asset.ID,
		string(asset.Scope),
		nullIfEmpty(asset.ProjectID),
		string(asset.Kind),
		asset.MimeType,
		asset.Width,
		asset.Height,
		nullIfEmpty(asset.SourceURL),
		asset.Content,
		formatTime(asset.CreatedAt),
	)
	return mapQuotaError(err, now)
}

// GetAsset returns one asset by id, or nil when absent.
func (s *Store) GetAsset(ctx context.Context, id string) (*models.OutputAsset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	return scanAsset(row)
}

// GetAssets returns the assets for the given ids, best effort: missing ids
// are silently dropped from the result since dangling references are an
// expected, tolerated state.
func (s *Store) GetAssets(ctx context.Context, ids []string) ([]models.OutputAsset, error) {
	if len(ids) == 0 {
		return []models.OutputAsset{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAssets(rows)
}

// ListAssetsByProject returns a project's project-scoped assets ordered by
// creation time.
func (s *Store) ListAssetsByProject(ctx context.Context, projectID string) ([]models.OutputAsset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assetColumns+` FROM assets
		WHERE project_id = ? AND scope = ?
		ORDER BY created_at ASC, id ASC
	`, projectID, string(models.ScopeProject))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAssets(rows)
}

// DeleteAsset deletes one asset row by id.
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	return err
}

// ProjectAssetUsage sums the byte size of project-scoped assets per project,
// ordered by descending size. Feeds storage-pressure cleanup tooling.
func (s *Store) ProjectAssetUsage(ctx context.Context) ([]ProjectAssetUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, COUNT(*), COALESCE(SUM(LENGTH(content)), 0)
		FROM assets
		WHERE scope = ? AND project_id IS NOT NULL
		GROUP BY project_id
		ORDER BY SUM(LENGTH(content)) DESC
	`, string(models.ScopeProject))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := []ProjectAssetUsage{}
	for rows.Next() {
		var u ProjectAssetUsage
		if err := rows.Scan(&u.ProjectID, &u.AssetCount, &u.TotalBytes); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

func collectAssets(rows *sql.Rows) ([]models.OutputAsset, error) {
	assets := []models.OutputAsset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		if asset != nil {
			assets = append(assets, *asset)
		}
	}
	return assets, rows.Err()
}

func scanAsset(scanner interface {
	Scan(dest ...any) error
}) (*models.OutputAsset, error) {
	asset := models.OutputAsset{}
	var scope, kind, createdAt string
	var projectID, sourceURL sql.NullString

	err := scanner.Scan(
		&asset.ID,
		&scope,
		&projectID,
		&kind,
		&asset.MimeType,
		&asset.Width,
		&asset.Height,
		&sourceURL,
		&asset.Content,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	asset.Scope = models.AssetScope(scope)
	asset.Kind = models.AssetKind(kind)
	asset.ProjectID = projectID.String
	asset.SourceURL = sourceURL.String
	if asset.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &asset, nil
}
