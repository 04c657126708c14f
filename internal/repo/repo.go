package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"alvara/internal/model"
)

var ErrCorruptRecord = errors.New("stored record is not a valid database")

// Gateway persists the whole application database as one record.
// Load returns (nil, nil) when nothing has been stored yet.
type Gateway interface {
	Load(ctx context.Context) (*model.Database, error)
	Save(ctx context.Context, db *model.Database) error
}

func decode(raw []byte) (*model.Database, error) {
	var db model.Database
	if err := json.Unmarshal(raw, &db); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return &db, nil
}

type fileStore struct {
	path string
	mu   sync.Mutex
	log  *zerolog.Logger
}

// NewFileStore keeps the database in a single JSON file.
func NewFileStore(path string, log *zerolog.Logger) (Gateway, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &fileStore{path: path, log: log}, nil
}

func (s *fileStore) Load(_ context.Context) (*model.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return decode(raw)
}

// Save replaces the file atomically: readers see the old or the new record, never a mix.
func (s *fileStore) Save(_ context.Context, db *model.Database) error {
	raw, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".alvara-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	s.log.Debug().Str("path", s.path).Int("bytes", len(raw)).Msg("database saved")
	return nil
}

type MemoryStore struct {
	mu    sync.Mutex
	raw   []byte
	saves int
}

// NewMemoryStore keeps the encoded record in memory. Used by tests and demos.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*model.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, nil
	}
	return decode(s.raw)
}

func (s *MemoryStore) Save(_ context.Context, db *model.Database) error {
	raw, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
