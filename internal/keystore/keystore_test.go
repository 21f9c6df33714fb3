package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

// openEach returns one store per backend, each rooted in its own temp dir.
func openEach(t *testing.T) map[string]Store {
	t.Helper()

	stores := map[string]Store{}
	for _, backend := range []string{BackendMemory, BackendFile, BackendSQLite, BackendBadger} {
		path := filepath.Join(t.TempDir(), "keys")
		if backend == BackendSQLite {
			path += ".db"
		}
		s, err := Open(Options{Backend: backend, Path: path})
		require.NoError(t, err, backend)
		t.Cleanup(func() { _ = Close(s) })
		stores[backend] = s
	}
	return stores
}

func TestStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	for backend, s := range openEach(t) {
		t.Run(backend, func(t *testing.T) {
			_, err := s.Get(ctx, "rsa_public_key")
			assert.ErrorIs(t, err, kerrors.ErrKeyNotFound)

			ok, err := s.Has(ctx, "rsa_public_key")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	for backend, s := range openEach(t) {
		t.Run(backend, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "rsa_private_key", "first"))

			ok, err := s.Has(ctx, "rsa_private_key")
			require.NoError(t, err)
			assert.True(t, ok)

			v, err := s.Get(ctx, "rsa_private_key")
			require.NoError(t, err)
			assert.Equal(t, "first", v)

			require.NoError(t, s.Set(ctx, "rsa_private_key", "second\nline"))
			v, err = s.Get(ctx, "rsa_private_key")
			require.NoError(t, err)
			assert.Equal(t, "second\nline", v)
		})
	}
}

func TestStore_RejectsUnsafeNames(t *testing.T) {
	ctx := context.Background()
	for backend, s := range openEach(t) {
		t.Run(backend, func(t *testing.T) {
			for _, name := range []string{"", "..", "../escape", `dir\name`} {
				err := s.Set(ctx, name, "x")
				assert.ErrorIs(t, err, kerrors.ErrInvalidKeyName, name)
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Options{Backend: "indexeddb"})
	assert.ErrorIs(t, err, kerrors.ErrUnknownBackend)
}

func TestFileStore_PermissionsAndPersistence(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "keys")

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "rsa_public_key", "pem"))

	info, err := os.Stat(filepath.Join(dir, "rsa_public_key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dir, "rsa_public_key.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	v, err := reopened.Get(ctx, "rsa_public_key")
	require.NoError(t, err)
	assert.Equal(t, "pem", v)
}

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "rsa_public_key", "pem"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "rsa_public_key")
	require.NoError(t, err)
	assert.Equal(t, "pem", v)
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "rsa_public_key", "pem"))

	m.Clear()

	ok, err := m.Has(ctx, "rsa_public_key")
	require.NoError(t, err)
	assert.False(t, ok)
}
