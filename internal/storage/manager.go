package storage

import (
	"github.com/bobmcallan/tradebook/internal/interfaces"
)

// Manager implements interfaces.StorageManager for the embedded backends.
type Manager struct {
	backend   string
	positions interfaces.PositionStore
	closeDB   func() error
}

func newManager(backend string, positions interfaces.PositionStore, closeDB func() error) *Manager {
	return &Manager{backend: backend, positions: positions, closeDB: closeDB}
}

func (m *Manager) PositionStore() interfaces.PositionStore {
	return m.positions
}

func (m *Manager) Backend() string {
	return m.backend
}

func (m *Manager) Close() error {
	var firstErr error
	if err := m.positions.Close(); err != nil {
		firstErr = err
	}
	if m.closeDB != nil {
		if err := m.closeDB(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
