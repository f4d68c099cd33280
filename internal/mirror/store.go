// Package mirror maintains the local on-disk mirror of previously fetched
// collections and documents, and the subtree refresh engine that keeps it
// current one branch at a time.
//
// The mirror is one JSON object mapping cache keys to raw record lists:
// "collections" for the global collection list and "collection:<id>" for
// one collection's documents. An entry, when present, is always a complete
// fetch as of some past point in time; partial fetches are never
// persisted. The file is process-wide and unlocked: concurrent wikictl
// invocations race on it and the last full-file write wins, which is
// accepted for a single-operator tool.
package mirror

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/wikictl/wikictl/internal/api"
)

// KeyCollections is the cache key of the global collection list.
const KeyCollections = "collections"

// CollectionKey returns the cache key of one collection's document list.
func CollectionKey(collectionID string) string {
	return "collection:" + collectionID
}

// Store is the key→records mapping behind the mirror. It is an interface
// so tests can substitute an in-memory implementation for the file.
type Store interface {
	// Load reads the whole mapping; a missing or corrupt backing file is
	// an empty cache, never an error.
	Load() map[string][]api.Record
	// Save overwrites the whole mapping.
	Save(entries map[string][]api.Record) error
	// Get reads one entry.
	Get(key string) ([]api.Record, bool)
	// Put replaces one entry and persists the whole mapping.
	Put(key string, records []api.Record) error
}

// FileStore backs the mirror with a single JSON file.
type FileStore struct {
	path   string
	logger *log.Logger
}

// NewFileStore creates a file-backed store. A nil logger discards
// diagnostics.
func NewFileStore(path string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file's location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store. Unreadable or structurally invalid files read as
// an empty cache; the mirror is an optimization, not a source of truth.
func (s *FileStore) Load() map[string][]api.Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string][]api.Record{}
	}
	var entries map[string][]api.Record
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Printf("ignoring corrupt mirror file %s: %v", s.path, err)
		return map[string][]api.Record{}
	}
	if entries == nil {
		entries = map[string][]api.Record{}
	}
	return entries
}

// Save implements Store, writing the whole mapping via a temp file and
// rename so a crash mid-write leaves the previous snapshot intact.
func (s *FileStore) Save(entries map[string][]api.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mirror: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write mirror temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace mirror file: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(key string) ([]api.Record, bool) {
	records, ok := s.Load()[key]
	return records, ok
}

// Put implements Store with a read-modify-write of the whole file.
func (s *FileStore) Put(key string, records []api.Record) error {
	entries := s.Load()
	entries[key] = records
	return s.Save(entries)
}
