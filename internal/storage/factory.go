package storage

import (
	"fmt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
)

// Backend type constants.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// NewKeyValueStore creates a key-value store based on the configuration.
// Supported backends: "file" (default), "badger".
func NewKeyValueStore(logger *common.Logger, config *common.StorageConfig) (interfaces.KeyValueStore, error) {
	backend := config.Backend
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendFile:
		return NewFileStore(logger, config)

	case BackendBadger:
		return NewBadgerStore(logger, config)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: file, badger)", backend)
	}
}
