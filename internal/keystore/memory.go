package keystore

import (
	"context"
	"sync"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

// Memory is an in-process Store. Contents are lost when the process exits.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[name]
	if !ok {
		return "", kerrors.ErrKeyNotFound
	}
	return v, nil
}

func (m *Memory) Set(ctx context.Context, name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[name] = value
	return nil
}

func (m *Memory) Has(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[name]
	return ok, nil
}

// Clear removes every entry, like wiping browser storage.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]string)
}
