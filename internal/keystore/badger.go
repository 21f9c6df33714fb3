package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

const badgerPrefix = "identity/"

// BadgerStore keeps entries in an embedded Badger database.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens the Badger database in dir. An empty dir opens an
// in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening badger key store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerPrefix + name))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", kerrors.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", name, err)
	}
	return string(value), nil
}

func (s *BadgerStore) Set(ctx context.Context, name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerPrefix+name), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	return nil
}

func (s *BadgerStore) Has(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(badgerPrefix + name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking %s: %w", name, err)
	}
	return true, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
