// Package keystore persists identity key material behind a small capability
// interface, so custody logic runs the same against memory, files, SQLite or
// Badger.
package keystore

import (
	"context"
	"fmt"
	"io"
	"strings"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Store is the persistent key store capability.
// Get returns kerrors.ErrKeyNotFound for a missing entry.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Has(ctx context.Context, name string) (bool, error)
}

// Options selects and locates a Store backend.
type Options struct {
	Backend string
	Path    string
}

// Open returns the Store for opts.Backend. Stores that hold resources also
// implement io.Closer; use Close to release them.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Path)
	case BackendSQLite:
		return NewSQLiteStore(opts.Path)
	case BackendBadger:
		return NewBadgerStore(opts.Path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", kerrors.ErrUnknownBackend, opts.Backend)
	}
}

// Close releases s if it holds resources.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// validateName rejects names that could escape a directory or collide with
// internal prefixes.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", kerrors.ErrInvalidKeyName, name)
	}
	return nil
}
