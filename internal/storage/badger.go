package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
)

// Record is the stored shape for the badger backend. Version increments on
// every overwrite, mirroring the file backend's rotated backups.
type Record struct {
	Key       string `badgerhold:"key"`
	Value     string
	Version   int
	UpdatedAt time.Time
}

// BadgerStore implements the key-value contract on BadgerHold.
type BadgerStore struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewBadgerStore opens (or creates) a BadgerHold store at the configured path.
func NewBadgerStore(logger *common.Logger, config *common.StorageConfig) (*BadgerStore, error) {
	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger path %s: %w", config.Path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = config.Path
	opts.ValueDir = config.Path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", config.Path, err)
	}
	logger.Debug().Str("path", config.Path).Msg("BadgerStore opened")
	return &BadgerStore{db: db, logger: logger}, nil
}

// Get reads the stored value for a key.
func (s *BadgerStore) Get(_ context.Context, key string) (string, error) {
	var rec Record
	if err := s.db.Get(key, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", fmt.Errorf("'%s': %w", key, interfaces.ErrKeyNotFound)
		}
		return "", fmt.Errorf("failed to get '%s': %w", key, err)
	}
	return rec.Value, nil
}

// Set upserts the value, incrementing the record version.
func (s *BadgerStore) Set(_ context.Context, key, value string) error {
	rec := Record{Key: key, Value: value, Version: 1, UpdatedAt: time.Now()}

	var existing Record
	if err := s.db.Get(key, &existing); err == nil {
		rec.Version = existing.Version + 1
	}

	if err := s.db.Upsert(key, &rec); err != nil {
		return fmt.Errorf("failed to set '%s': %w", key, err)
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	if err := s.db.Delete(key, Record{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete '%s': %w", key, err)
	}
	return nil
}

// Close closes the underlying badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ interfaces.KeyValueStore = (*BadgerStore)(nil)
