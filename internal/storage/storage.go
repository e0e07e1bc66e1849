// Package storage owns the purchase-record collection: an insertion-ordered
// in-memory slice mirrored to a JSON file on every mutation (write-through,
// atomic tmp+rename). Persistence failures are never fatal to a mutation —
// the in-memory state is authoritative for the running process — and a
// missing or corrupt file on load simply yields an empty collection.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"goldwatch/internal/logger"
	"goldwatch/internal/models"
)

// ErrNotFound reports that no record with the requested ID exists.
var ErrNotFound = errors.New("record not found")

// Storage is the thread-safe record store.
type Storage struct {
	mu       sync.RWMutex
	records  []models.PurchaseRecord
	filePath string
	lastID   int64
}

// persistenceFile is the on-disk layout. The version tag exists so a future
// layout change can migrate old files instead of discarding them.
type persistenceFile struct {
	Version string                  `json:"version"`
	SavedAt time.Time               `json:"saved_at"`
	Records []models.PurchaseRecord `json:"records"`
}

// New creates a Storage persisting to filePath. An empty path selects a file
// under the OS tmp directory.
func New(filePath string) *Storage {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "goldwatch", "gold_records_v1.json")
	}
	return &Storage{filePath: filePath}
}

// Load restores the collection from disk. Any failure — missing file,
// unreadable file, corrupt JSON — degrades to an empty collection; per the
// persistence contract it is never an error the caller has to handle.
func (s *Storage) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stale temp file from a crashed save
	tempPath := s.filePath + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Could not read saved records from %s, starting empty: %v", s.filePath, err)
		}
		s.records = nil
		return
	}

	var file persistenceFile
	if err := json.Unmarshal(data, &file); err != nil {
		logger.Warn("Saved records at %s are corrupt, starting empty: %v", s.filePath, err)
		s.records = nil
		return
	}

	s.records = file.Records
	for _, r := range s.records {
		if r.ID > s.lastID {
			s.lastID = r.ID
		}
	}
}

// List returns a copy of the collection in insertion order.
func (s *Storage) List() []models.PurchaseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Count returns the number of records.
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with the given ID.
func (s *Storage) Get(id int64) (models.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.PurchaseRecord{}, ErrNotFound
}

// Add validates the record, assigns a time-based ID and appends it.
func (s *Storage) Add(rec models.PurchaseRecord) (models.PurchaseRecord, error) {
	if err := rec.Validate(); err != nil {
		return models.PurchaseRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID()
	s.records = append(s.records, rec)
	s.save()
	return rec, nil
}

// Update replaces the whole record with the given ID, keeping the ID.
func (s *Storage) Update(id int64, rec models.PurchaseRecord) (models.PurchaseRecord, error) {
	if err := rec.Validate(); err != nil {
		return models.PurchaseRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			rec.ID = id
			s.records[i] = rec
			s.save()
			return rec, nil
		}
	}
	return models.PurchaseRecord{}, ErrNotFound
}

// Delete removes one record by ID.
func (s *Storage) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			s.save()
			return nil
		}
	}
	return ErrNotFound
}

// Clear removes the entire collection.
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.save()
}

// ReplaceAll swaps in a new collection (CSV import semantics: wholesale
// replacement, never merge). IDs are assigned here; incoming IDs are ignored.
func (s *Storage) ReplaceAll(records []models.PurchaseRecord) []models.PurchaseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]models.PurchaseRecord, len(records))
	for i, r := range records {
		r.ID = s.nextID()
		s.records[i] = r
	}
	s.save()
	return s.snapshot()
}

// snapshot copies the collection without locking, for callers holding mu.
func (s *Storage) snapshot() []models.PurchaseRecord {
	out := make([]models.PurchaseRecord, len(s.records))
	copy(out, s.records)
	return out
}

// nextID returns a millisecond timestamp, bumped monotonically so that bulk
// inserts inside one millisecond still get distinct IDs. Callers hold mu.
func (s *Storage) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// save mirrors the collection to disk atomically. Failures are logged and
// swallowed: a broken disk must not block the in-memory collection.
// Callers hold mu.
func (s *Storage) save() {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		logger.Warn("Could not create data directory for %s: %v", s.filePath, err)
		return
	}

	data, err := json.MarshalIndent(persistenceFile{
		Version: "1",
		SavedAt: time.Now(),
		Records: s.records,
	}, "", "  ")
	if err != nil {
		logger.Warn("Could not marshal records: %v", err)
		return
	}

	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		logger.Warn("Could not write %s: %v", tempPath, err)
		return
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath)
		logger.Warn("Could not replace %s: %v", s.filePath, err)
	}
}
