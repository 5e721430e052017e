package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docask/docask-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
)

// RegistryStore persists the store registry in a SQLite database.
type RegistryStore struct {
	db   *sql.DB
	path string
}

var _ driven.RegistryStore = (*RegistryStore)(nil)

// NewRegistryStore creates a SQLite registry store at the specified
// data directory. If dataDir is empty, defaults to ~/.docask/data/registry.db.
func NewRegistryStore(dataDir string) (*RegistryStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docask", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "registry.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &RegistryStore{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *RegistryStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *RegistryStore) Path() string {
	return s.path
}

// Load reads the full registry snapshot.
func (s *RegistryStore) Load(ctx context.Context) (map[string]domain.Store, error) {
	stores := make(map[string]domain.Store)

	rows, err := s.db.QueryContext(ctx, "SELECT name, id FROM stores")
	if err != nil {
		return nil, fmt.Errorf("querying stores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st domain.Store
		if err := rows.Scan(&st.Name, &st.ID); err != nil {
			return nil, fmt.Errorf("scanning store: %w", err)
		}
		st.Documents = []domain.DocumentRecord{}
		stores[st.Name] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stores: %w", err)
	}

	docRows, err := s.db.QueryContext(ctx, `
		SELECT store_name, handle_id, display_name, size_bytes, mime_type, metadata
		FROM documents
		ORDER BY store_name, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer docRows.Close()

	for docRows.Next() {
		var storeName, metadataJSON string
		var rec domain.DocumentRecord
		if err := docRows.Scan(&storeName, &rec.HandleID, &rec.DisplayName,
			&rec.SizeBytes, &rec.MimeType, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling document metadata: %w", err)
			}
		}

		st, ok := stores[storeName]
		if !ok {
			continue // orphaned row, skip
		}
		st.Documents = append(st.Documents, rec)
		stores[storeName] = st
	}
	if err := docRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return stores, nil
}

// Save replaces the persisted snapshot with stores in one transaction.
func (s *RegistryStore) Save(ctx context.Context, stores map[string]domain.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM stores"); err != nil {
		return fmt.Errorf("clearing stores: %w", err)
	}

	storeStmt, err := tx.PrepareContext(ctx, "INSERT INTO stores (name, id) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing store insert: %w", err)
	}
	defer storeStmt.Close()

	docStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (store_name, position, handle_id, display_name, size_bytes, mime_type, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer docStmt.Close()

	// Deterministic write order keeps the WAL diff stable.
	names := make([]string, 0, len(stores))
	for name := range stores {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := stores[name]
		if _, err := storeStmt.ExecContext(ctx, st.Name, st.ID); err != nil {
			return fmt.Errorf("saving store %q: %w", st.Name, err)
		}

		for pos, rec := range st.Documents {
			metadataJSON, err := json.Marshal(rec.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling document metadata: %w", err)
			}

			if _, err := docStmt.ExecContext(ctx, st.Name, pos, rec.HandleID,
				rec.DisplayName, rec.SizeBytes, rec.MimeType, string(metadataJSON)); err != nil {
				return fmt.Errorf("saving document %q: %w", rec.DisplayName, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *RegistryStore) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
