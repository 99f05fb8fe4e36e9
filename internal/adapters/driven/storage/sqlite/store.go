package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lessonkit/refpipe/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that provides access to
// the cache and extraction store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.refpipe/data/refpipe.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".refpipe", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "refpipe.db")

	// WAL lets the HTTP server read while an extraction writes
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
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
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CacheStore returns a CacheStore interface backed by this store.
func (s *Store) CacheStore() driven.CacheStore {
	return &cacheStore{store: s}
}

// ExtractionStore returns an ExtractionStore interface backed by this store.
func (s *Store) ExtractionStore() driven.ExtractionStore {
	return &extractionStore{store: s}
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
		// "001_initial.up.sql" -> 1
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

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Cache Store ====================

// cacheStore implements driven.CacheStore.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

// Get returns the entry for a hash.
func (s *cacheStore) Get(ctx context.Context, hash string) (*domain.CacheEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT chunks, confidence, low_confidence, process_time_ms, total_pages, created_at
		FROM extraction_cache WHERE hash = ?
	`, hash)

	var entry domain.CacheEntry
	var chunksJSON string
	var confidence sql.NullFloat64
	var createdAt sql.NullTime
	if err := row.Scan(&chunksJSON, &confidence, &entry.LowConfidence,
		&entry.ProcessTimeMs, &entry.TotalPages, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(chunksJSON), &entry.Chunks); err != nil {
		return nil, fmt.Errorf("unmarshaling cached chunks: %w", err)
	}
	if confidence.Valid {
		c := confidence.Float64
		entry.Confidence = &c
	}
	if createdAt.Valid {
		entry.CreatedAt = createdAt.Time
	}

	return &entry, nil
}

// Put stores an entry if none exists for the hash.
func (s *cacheStore) Put(ctx context.Context, hash string, entry *domain.CacheEntry) error {
	if entry == nil || hash == "" {
		return domain.ErrInvalidInput
	}

	chunks := entry.Chunks
	if chunks == nil {
		chunks = []domain.ReferenceChunk{}
	}
	chunksJSON, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshalling chunks: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var confidence sql.NullFloat64
	if entry.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *entry.Confidence, Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO extraction_cache (hash, chunks, confidence, low_confidence, process_time_ms, total_pages, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, string(chunksJSON), confidence, entry.LowConfidence,
		entry.ProcessTimeMs, entry.TotalPages, createdAt)
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// ==================== Extraction Store ====================

// extractionStore implements driven.ExtractionStore.
type extractionStore struct {
	store *Store
}

var _ driven.ExtractionStore = (*extractionStore)(nil)

// Save stores or replaces a result and its chunks in one transaction.
func (s *extractionStore) Save(ctx context.Context, result *domain.ExtractionResult) error {
	if result == nil || result.FileID == "" {
		return domain.ErrInvalidInput
	}

	metadataJSON, err := json.Marshal(result.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO extraction_results (file_id, lesson_id, status, chunk_count, extracted_at,
			extraction_time_ms, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			lesson_id = excluded.lesson_id,
			status = excluded.status,
			chunk_count = excluded.chunk_count,
			extracted_at = excluded.extracted_at,
			extraction_time_ms = excluded.extraction_time_ms,
			metadata = excluded.metadata
	`, result.FileID, result.LessonID, string(result.Status), len(result.Chunks),
		nullTime(result.ExtractedAt), result.ExtractionTimeMs, string(metadataJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving extraction result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM reference_chunks WHERE file_id = ?", result.FileID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_chunks (chunk_id, file_id, lesson_id, page_or_slide, source, text, metadata, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			file_id = excluded.file_id,
			lesson_id = excluded.lesson_id,
			page_or_slide = excluded.page_or_slide,
			source = excluded.source,
			text = excluded.text,
			metadata = excluded.metadata,
			position = excluded.position
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range result.Chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ChunkID, result.FileID, chunk.LessonID,
			chunk.PageOrSlide, string(chunk.Source), chunk.Text, string(metadataJSON), i); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a result by file ID.
func (s *extractionStore) Get(ctx context.Context, fileID string) (*domain.ExtractionResult, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT file_id, lesson_id, status, chunk_count, extracted_at, extraction_time_ms, metadata
		FROM extraction_results WHERE file_id = ?
	`, fileID)

	result, err := scanResult(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByLesson returns all results for a lesson in the order they were first saved.
func (s *extractionStore) ListByLesson(ctx context.Context, lessonID string) ([]domain.ExtractionResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT file_id, lesson_id, status, chunk_count, extracted_at, extraction_time_ms, metadata
		FROM extraction_results WHERE lesson_id = ?
		ORDER BY rowid
	`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("querying extraction results: %w", err)
	}

	var results []domain.ExtractionResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating extraction results: %w", err)
	}
	rows.Close()

	// Chunks load after the result cursor closes; the pool may hold one connection.
	for i := range results {
		if err := s.loadChunks(ctx, &results[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *extractionStore) loadChunks(ctx context.Context, result *domain.ExtractionResult) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, lesson_id, page_or_slide, source, text, metadata
		FROM reference_chunks WHERE file_id = ?
		ORDER BY position
	`, result.FileID)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.ReferenceChunk{}
	for rows.Next() {
		chunk := domain.ReferenceChunk{FileID: result.FileID}
		var source string
		var metadataJSON sql.NullString
		if err := rows.Scan(&chunk.ChunkID, &chunk.LessonID, &chunk.PageOrSlide,
			&source, &chunk.Text, &metadataJSON); err != nil {
			return fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Source = domain.SourceKind(source)
		if metadataJSON.Valid && metadataJSON.String != jsonNull {
			if err := json.Unmarshal([]byte(metadataJSON.String), &chunk.Metadata); err != nil {
				return fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}

	result.Chunks = chunks
	return nil
}

// ==================== Helpers ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*domain.ExtractionResult, error) {
	var result domain.ExtractionResult
	var status, metadataJSON string
	var extractedAt sql.NullTime
	if err := row.Scan(&result.FileID, &result.LessonID, &status, &result.ChunkCount,
		&extractedAt, &result.ExtractionTimeMs, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning extraction result: %w", err)
	}

	result.Status = domain.ExtractionStatus(status)
	if extractedAt.Valid {
		result.ExtractedAt = extractedAt.Time
	}
	if err := json.Unmarshal([]byte(metadataJSON), &result.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return &result, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
