package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"pictor/internal/models"
)

const personaColumns = "id, name, reference_asset_ids, created_at, updated_at"

// UpsertPersona writes one persona row, replacing an existing row with the
// same id.
func (s *Store) UpsertPersona(ctx context.Context, persona *models.Persona) error {
	if persona == nil {
		return fmt.Errorf("persona is required")
	}
	refs, err := marshalAssetIDs(persona.ReferenceAssetIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO personas (`+personaColumns+`)
		VALUES (?, ?, ?, ?, ?)
	`,
		persona.ID,
		persona.Name,
		refs,
		formatTime(persona.CreatedAt),
		formatTime(persona.UpdatedAt),
	)
	return err
}

// GetPersona returns one persona by id, or nil when absent.
func (s *Store) GetPersona(ctx context.Context, id string) (*models.Persona, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personaColumns+` FROM personas WHERE id = ?`, id)
	return scanPersona(row)
}

// ListPersonas returns all personas ordered by creation time.
func (s *Store) ListPersonas(ctx context.Context) ([]models.Persona, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+personaColumns+` FROM personas ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	personas := []models.Persona{}
	for rows.Next() {
		persona, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		if persona != nil {
			personas = append(personas, *persona)
		}
	}
	return personas, rows.Err()
}

// GetPersonas returns the personas for the given ids, best effort: missing
// ids are silently dropped.
func (s *Store) GetPersonas(ctx context.Context, ids []string) ([]models.Persona, error) {
	if len(ids) == 0 {
		return []models.Persona{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+personaColumns+` FROM personas WHERE id IN (`+placeholders(len(ids))+`) ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	personas := []models.Persona{}
	for rows.Next() {
		persona, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		if persona != nil {
			personas = append(personas, *persona)
		}
	}
	return personas, rows.Err()
}

// DeletePersonaCascade deletes the persona and, in the same transaction, any
// global-scope persona-kind asset it referenced that no remaining persona
// still references. The single transaction rules out an observable state
// where the persona is gone but its orphaned assets linger, and protects an
// asset a concurrent write just attached to another persona.
// Returns false when the persona does not exist.
func (s *Store) DeletePersonaCascade(ctx context.Context, id string) (found bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var refsJSON string
	err = tx.QueryRowContext(ctx, "SELECT reference_asset_ids FROM personas WHERE id = ?", id).Scan(&refsJSON)
	if err == sql.ErrNoRows {
		err = nil
		return false, tx.Commit()
	}
	if err != nil {
		return false, err
	}
	removed, err := unmarshalAssetIDs(refsJSON)
	if err != nil {
		return false, err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM personas WHERE id = ?", id); err != nil {
		return false, err
	}

	// Recompute which assets the remaining personas still reference.
	stillReferenced := map[string]struct{}{}
	rows, err := tx.QueryContext(ctx, "SELECT reference_asset_ids FROM personas")
	if err != nil {
		return false, err
	}
	for rows.Next() {
		var raw string
		if err = rows.Scan(&raw); err != nil {
			rows.Close()
			return false, err
		}
		ids, parseErr := unmarshalAssetIDs(raw)
		if parseErr != nil {
			rows.Close()
			err = parseErr
			return false, err
		}
		for _, assetID := range ids {
			stillReferenced[assetID] = struct{}{}
		}
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return false, err
	}
	rows.Close()

	for _, assetID := range removed {
		if _, ok := stillReferenced[assetID]; ok {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			DELETE FROM assets WHERE id = ? AND scope = ? AND kind = ?
		`, assetID, string(models.ScopeGlobal), string(models.AssetKindPersona)); err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

func scanPersona(scanner interface {
	Scan(dest ...any) error
}) (*models.Persona, error) {
	persona := models.Persona{}
	var refsJSON, createdAt, updatedAt string

	err := scanner.Scan(&persona.ID, &persona.Name, &refsJSON, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if persona.ReferenceAssetIDs, err = unmarshalAssetIDs(refsJSON); err != nil {
		return nil, err
	}
	if persona.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if persona.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &persona, nil
}

func marshalAssetIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal reference asset ids: %w", err)
	}
	return string(data), nil
}

func unmarshalAssetIDs(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("parse reference asset ids: %w", err)
	}
	return ids, nil
}
