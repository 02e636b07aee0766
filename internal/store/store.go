// Package store persists speaker profiles and cache entries in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// SpeakerRecord is the persisted form of a speaker profile.
type SpeakerRecord struct {
	ID             string
	Name           string
	Description    string
	Language       string
	CreatedAt      time.Time
	ReferenceAudio string
	EmbeddingPath  string
}

// CacheKey identifies one cached artifact: a logical content unit and chunk
// index for one speaker, independent of the literal text.
type CacheKey struct {
	SpeakerID  string
	ContentID  string
	ChunkIndex int
}

// Store wraps the SQLite database holding speakers and cache entries.
type Store struct {
	db *sql.DB
}

// Open initializes the store at path, creating the schema when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS speakers (
    speaker_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    language TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    reference_audio TEXT,
    embedding_path TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_entries (
    speaker_id TEXT NOT NULL,
    content_id TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    artifact_path TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (speaker_id, content_id, chunk_index)
);
CREATE INDEX IF NOT EXISTS idx_cache_speaker ON cache_entries(speaker_id);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSpeaker inserts a new speaker profile.
func (s *Store) CreateSpeaker(ctx context.Context, rec *SpeakerRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO speakers (speaker_id, name, description, language, created_at, reference_audio, embedding_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Description, rec.Language, rec.CreatedAt.UTC(), rec.ReferenceAudio, rec.EmbeddingPath)
	if err != nil {
		return fmt.Errorf("insert speaker: %w", err)
	}
	return nil
}

// GetSpeaker loads one speaker profile by id.
func (s *Store) GetSpeaker(ctx context.Context, id string) (*SpeakerRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT speaker_id, name, description, language, created_at, reference_audio, embedding_path
		 FROM speakers WHERE speaker_id = ?`, id)

	var rec SpeakerRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Language, &rec.CreatedAt,
		&rec.ReferenceAudio, &rec.EmbeddingPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan speaker: %w", err)
	}
	return &rec, nil
}

// ListSpeakers returns all speaker profiles ordered by creation time.
func (s *Store) ListSpeakers(ctx context.Context) ([]SpeakerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT speaker_id, name, description, language, created_at, reference_audio, embedding_path
		 FROM speakers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query speakers: %w", err)
	}
	defer rows.Close()

	var speakers []SpeakerRecord
	for rows.Next() {
		var rec SpeakerRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Language, &rec.CreatedAt,
			&rec.ReferenceAudio, &rec.EmbeddingPath); err != nil {
			return nil, fmt.Errorf("scan speaker: %w", err)
		}
		speakers = append(speakers, rec)
	}
	return speakers, rows.Err()
}

// DeleteSpeaker removes a speaker profile. Cache entries are removed
// separately so the caller can also delete the materialized files.
func (s *Store) DeleteSpeaker(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM speakers WHERE speaker_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete speaker: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// PutCacheEntry registers an artifact under its key exactly once. A present
// entry is never overwritten; the return value reports whether this call won
// the insert.
func (s *Store) PutCacheEntry(ctx context.Context, key CacheKey, artifactPath string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (speaker_id, content_id, chunk_index, artifact_path, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (speaker_id, content_id, chunk_index) DO NOTHING`,
		key.SpeakerID, key.ContentID, key.ChunkIndex, artifactPath, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert cache entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cache entry rows affected: %w", err)
	}
	return n > 0, nil
}

// GetCacheEntry returns the artifact path registered for key.
func (s *Store) GetCacheEntry(ctx context.Context, key CacheKey) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT artifact_path FROM cache_entries
		 WHERE speaker_id = ? AND content_id = ? AND chunk_index = ?`,
		key.SpeakerID, key.ContentID, key.ChunkIndex)

	var path string
	err := row.Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("scan cache entry: %w", err)
	}
	return path, nil
}

// DeleteCacheEntries removes every cache entry for a speaker and returns
// the artifact paths so the caller can unlink the files.
func (s *Store) DeleteCacheEntries(ctx context.Context, speakerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT artifact_path FROM cache_entries WHERE speaker_id = ?`, speakerID)
	if err != nil {
		return nil, fmt.Errorf("query cache entries: %w", err)
	}

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE speaker_id = ?`, speakerID); err != nil {
		return nil, fmt.Errorf("delete cache entries: %w", err)
	}
	return paths, nil
}
