// Package storage opens the configured position store backend.
package storage

import (
	"fmt"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/storage/badger"
	"github.com/bobmcallan/tradebook/internal/storage/memory"
	"github.com/bobmcallan/tradebook/internal/storage/postgres"
	"github.com/bobmcallan/tradebook/internal/storage/surrealdb"
)

// NewStorageManager creates a storage manager based on the configuration.
// Supported backends: "memory", "badger" (default), "surrealdb", "postgres".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = common.BackendBadger
	}

	switch backend {
	case common.BackendMemory:
		logger.Warn().Msg("Using in-memory storage; positions are lost on exit")
		return newManager(common.BackendMemory, memory.NewStore(logger), nil), nil

	case common.BackendBadger:
		store, err := badger.NewStore(logger, config.Storage.Badger.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger store: %w", err)
		}
		logger.Info().Str("path", config.Storage.Badger.Path).Msg("Badger storage initialized")
		return newManager(common.BackendBadger, badger.NewPositionStorage(store, logger), store.Close), nil

	case common.BackendSurrealDB:
		m, err := surrealdb.NewManager(logger, config.Storage.SurrealDB)
		if err != nil {
			return nil, err
		}
		return m, nil

	case common.BackendPostgres:
		store, err := postgres.NewStore(logger, config.Storage.Postgres)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: memory, badger, surrealdb, postgres)", backend)
	}
}
