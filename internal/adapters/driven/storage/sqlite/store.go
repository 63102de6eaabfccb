package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/kurator/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/kurator/internal/core/domain"
)

// Well-known meta keys.
const (
	MetaGeneration     = "generation"
	MetaDimensions     = "dimensions"
	MetaPassageCount   = "passage_count"
	MetaEmbeddingModel = "embedding_model"
	MetaCreatedAt      = "created_at"
)

// Store is the passage record database of one generation.
type Store struct {
	db   *sqlx.DB
	path string
}

// passageRow is the passages table row.
type passageRow struct {
	Position   int    `db:"position"`
	PassageID  string `db:"passage_id"`
	SourceID   string `db:"source_id"`
	UnitKind   string `db:"unit_kind"`
	UnitIndex  int    `db:"unit_index"`
	ChunkIndex int    `db:"chunk_index"`
	VariantTag string `db:"variant_tag"`
	CharCount  int    `db:"char_count"`
	Text       string `db:"text"`
}

// sourceRow is the sources table row.
type sourceRow struct {
	SourceID    string `db:"source_id"`
	Path        string `db:"path"`
	ContentHash string `db:"content_hash"`
	Passages    int    `db:"passages"`
	IngestedAt  int64  `db:"ingested_at"`
}

// Open opens or creates the passage database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
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
	if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_passages.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// WritePassages stores passages at positions 0..n-1, replacing any existing rows.
// Embeddings are not stored here; they live in the vector index.
func (s *Store) WritePassages(ctx context.Context, passages []domain.Passage) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM passages"); err != nil {
		return fmt.Errorf("clearing passages: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO passages (position, passage_id, source_id, unit_kind, unit_index, chunk_index, variant_tag, char_count, text)
		VALUES (:position, :passage_id, :source_id, :unit_kind, :unit_index, :chunk_index, :variant_tag, :char_count, :text)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, p := range passages {
		row := passageRow{
			Position:   i,
			PassageID:  p.ID(),
			SourceID:   p.SourceID,
			UnitKind:   string(p.UnitKind),
			UnitIndex:  p.UnitIndex,
			ChunkIndex: p.ChunkIndex,
			VariantTag: p.VariantTag,
			CharCount:  p.CharCount,
			Text:       p.Text,
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("inserting passage %s: %w", p.ID(), err)
		}
	}

	return tx.Commit()
}

// ReadPassages returns every passage in position order, without embeddings.
func (s *Store) ReadPassages(ctx context.Context) ([]domain.Passage, error) {
	var rows []passageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT position, passage_id, source_id, unit_kind, unit_index, chunk_index, variant_tag, char_count, text
		FROM passages ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("selecting passages: %w", err)
	}

	passages := make([]domain.Passage, len(rows))
	for i, r := range rows {
		if r.Position != i {
			return nil, fmt.Errorf("%w: passage position gap at %d", domain.ErrStoreCorrupt, i)
		}
		passages[i] = domain.Passage{
			Text:       r.Text,
			SourceID:   r.SourceID,
			UnitKind:   domain.UnitKind(r.UnitKind),
			UnitIndex:  r.UnitIndex,
			ChunkIndex: r.ChunkIndex,
			VariantTag: r.VariantTag,
			CharCount:  r.CharCount,
		}
	}
	return passages, nil
}

// CountPassages returns the number of stored passages.
func (s *Store) CountPassages(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM passages"); err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return n, nil
}

// WriteSources replaces the ingestion manifest.
func (s *Store) WriteSources(ctx context.Context, sources []domain.SourceRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM sources"); err != nil {
		return fmt.Errorf("clearing sources: %w", err)
	}

	for _, src := range sources {
		row := sourceRow{
			SourceID:    src.SourceID,
			Path:        src.Path,
			ContentHash: src.ContentHash,
			Passages:    src.Passages,
			IngestedAt:  src.IngestedAt.Unix(),
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO sources (source_id, path, content_hash, passages, ingested_at)
			VALUES (:source_id, :path, :content_hash, :passages, :ingested_at)
		`, row)
		if err != nil {
			return fmt.Errorf("inserting source %s: %w", src.SourceID, err)
		}
	}

	return tx.Commit()
}

// ReadSources returns the ingestion manifest ordered by source ID.
func (s *Store) ReadSources(ctx context.Context) ([]domain.SourceRecord, error) {
	var rows []sourceRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT source_id, path, content_hash, passages, ingested_at FROM sources ORDER BY source_id")
	if err != nil {
		return nil, fmt.Errorf("selecting sources: %w", err)
	}

	sources := make([]domain.SourceRecord, len(rows))
	for i, r := range rows {
		sources[i] = domain.SourceRecord{
			SourceID:    r.SourceID,
			Path:        r.Path,
			ContentHash: r.ContentHash,
			Passages:    r.Passages,
			IngestedAt:  time.Unix(r.IngestedAt, 0).UTC(),
		}
	}
	return sources, nil
}

// SetMeta stores generation metadata.
func (s *Store) SetMeta(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for k, v := range values {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", k, v)
		if err != nil {
			return fmt.Errorf("setting meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Meta returns all generation metadata.
func (s *Store) Meta(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT key, value FROM meta"); err != nil {
		return nil, fmt.Errorf("selecting meta: %w", err)
	}

	meta := make(map[string]string, len(rows))
	for _, r := range rows {
		meta[r.Key] = r.Value
	}
	return meta, nil
}

// MetaInt returns an integer meta value, or an error if missing or malformed.
func MetaInt(meta map[string]string, key string) (int, error) {
	v, ok := meta[key]
	if !ok {
		return 0, fmt.Errorf("meta %s missing", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("meta %s: %w", key, err)
	}
	return n, nil
}
