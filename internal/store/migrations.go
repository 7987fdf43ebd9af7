package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
)

// Migration represents a schema migration step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all schema migrations. Every statement is
// additive and idempotent: creating a table or index that already exists is a
// no-op, never destructive.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: projects, steps, assets, personas, meta",
		SQL: `
CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  default_model TEXT NOT NULL,
  default_aspect_ratio TEXT NOT NULL,
  default_resolution TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  last_opened_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  created_at TEXT NOT NULL,
  payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
  id TEXT PRIMARY KEY,
  scope TEXT NOT NULL,
  project_id TEXT,
  kind TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  width INTEGER NOT NULL,
  height INTEGER NOT NULL,
  source_url TEXT,
  content BLOB NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS personas (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  reference_asset_ids TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_steps_project_created ON steps(project_id, created_at);
CREATE INDEX IF NOT EXISTS idx_assets_project ON assets(project_id);
CREATE INDEX IF NOT EXISTS idx_assets_scope_project ON assets(scope, project_id);
CREATE INDEX IF NOT EXISTS idx_projects_last_opened_desc ON projects(last_opened_at DESC);
CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects(updated_at);
`,
	},
}

const migrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

// dataFormatVersion is the data-format marker held in the meta table. It is
// consulted at startup and bumped if behind; it drives no migration logic of
// its own.
const dataFormatVersion = 1

const dataFormatVersionKey = "schema_version"

// ensureMigrationsTable creates the schema_migrations table if it doesn't exist.
func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(migrationsTableSQL)
	return err
}

// currentVersion returns the highest applied migration version, or 0 if none.
func currentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// runMigrations applies all pending migrations in order.
func runMigrations(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, m := range sorted {
		if m.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// stampDataFormatVersion bumps the meta version marker if it is behind the
// running version. A marker ahead of the running version is left alone.
func stampDataFormatVersion(db *sql.DB) error {
	var raw string
	err := db.QueryRow("SELECT value FROM meta WHERE key = ?", dataFormatVersionKey).Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read data format version: %w", err)
	}

	stored := 0
	if err == nil {
		stored, err = strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse data format version %q: %w", raw, err)
		}
	}
	if stored >= dataFormatVersion {
		return nil
	}

	_, err = db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, dataFormatVersionKey, strconv.Itoa(dataFormatVersion))
	if err != nil {
		return fmt.Errorf("stamp data format version: %w", err)
	}
	return nil
}

// SchemaVersion returns the stored data-format marker.
func (s *Store) SchemaVersion() (int, error) {
	var raw string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", dataFormatVersionKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}
