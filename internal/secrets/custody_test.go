package secrets

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/keystore"
)

// countingStore records writes so tests can assert that a failed operation
// left the store untouched.
type countingStore struct {
	*keystore.Memory
	mu   sync.Mutex
	sets int
}

func (s *countingStore) Set(ctx context.Context, name, value string) error {
	s.mu.Lock()
	s.sets++
	s.mu.Unlock()
	return s.Memory.Set(ctx, name, value)
}

func (s *countingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

// newTestCustody returns a Custody whose generator hands out the shared
// fixture identities in order, plus a counter of generator calls.
func newTestCustody(t *testing.T, store keystore.Store) (*Custody, *int) {
	t.Helper()
	ids := testIdentities(t, 3)
	calls := 0
	c := NewCustody(store)
	c.generate = func() (*Identity, error) {
		id := ids[calls%len(ids)]
		calls++
		return &Identity{PublicPEM: id.PublicPEM, PrivatePEM: id.PrivatePEM, public: id.public, private: id.private}, nil
	}
	return c, &calls
}

func TestEnsureIdentity_GeneratesOnceAndPersists(t *testing.T) {
	ctx := context.Background()
	store := keystore.NewMemory()
	c, calls := newTestCustody(t, store)

	first, err := c.EnsureIdentity(ctx)
	require.NoError(t, err)
	second, err := c.EnsureIdentity(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, *calls)
	assert.Same(t, first, second)

	pub, err := store.Get(ctx, PublicKeyEntry)
	require.NoError(t, err)
	assert.Equal(t, first.PublicPEM, pub)
	priv, err := store.Get(ctx, PrivateKeyEntry)
	require.NoError(t, err)
	assert.Equal(t, first.PrivatePEM, priv)
}

func TestEnsureIdentity_NeverOverwritesPersisted(t *testing.T) {
	ctx := context.Background()
	store := keystore.NewMemory()
	existing := testIdentities(t, 3)[2]
	require.NoError(t, store.Set(ctx, PrivateKeyEntry, existing.PrivatePEM))
	require.NoError(t, store.Set(ctx, PublicKeyEntry, existing.PublicPEM))

	c, calls := newTestCustody(t, store)

	id, err := c.EnsureIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, *calls)
	assert.Equal(t, existing.PublicPEM, id.PublicPEM)
}

func TestEnsureIdentity_FreshInstanceReadsStore(t *testing.T) {
	ctx := context.Background()
	store := keystore.NewMemory()

	a, _ := newTestCustody(t, store)
	first, err := a.EnsureIdentity(ctx)
	require.NoError(t, err)

	b, calls := newTestCustody(t, store)
	second, err := b.EnsureIdentity(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, *calls)
	assert.Equal(t, first.PublicPEM, second.PublicPEM)
}

func TestEnsureIdentity_GeneratorFailure(t *testing.T) {
	store := &countingStore{Memory: keystore.NewMemory()}
	c := NewCustody(store)
	c.generate = func() (*Identity, error) {
		return nil, kerrors.ErrKeyGeneration
	}

	_, err := c.EnsureIdentity(context.Background())
	assert.ErrorIs(t, err, kerrors.ErrKeyGeneration)
	assert.Equal(t, 0, store.writes())
}

func TestIdentity_DoesNotGenerate(t *testing.T) {
	c, calls := newTestCustody(t, keystore.NewMemory())

	_, err := c.Identity(context.Background())
	assert.ErrorIs(t, err, kerrors.ErrIdentityNotFound)
	assert.Equal(t, 0, *calls)
}

func TestHasIdentity(t *testing.T) {
	ctx := context.Background()
	store := keystore.NewMemory()
	c, _ := newTestCustody(t, store)

	ok, err := c.HasIdentity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, PublicKeyEntry, testIdentities(t, 1)[0].PublicPEM))
	ok, err = c.HasIdentity(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "public half alone is not an identity")

	_, err = c.EnsureIdentity(ctx)
	require.NoError(t, err)
	ok, err = c.HasIdentity(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExportPublicPEM(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCustody(t, keystore.NewMemory())

	pem, err := c.ExportPublicPEM(ctx)
	require.NoError(t, err)
	assert.Empty(t, pem)

	id, err := c.EnsureIdentity(ctx)
	require.NoError(t, err)

	pem, err = c.ExportPublicPEM(ctx)
	require.NoError(t, err)
	assert.Equal(t, id.PublicPEM, pem)
}

func TestReplaceIdentity_ValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: keystore.NewMemory()}
	c, _ := newTestCustody(t, store)
	ids := testIdentities(t, 2)

	_, err := c.ReplaceIdentity(ctx, ids[0].PublicPEM, ids[1].PrivatePEM)
	assert.ErrorIs(t, err, kerrors.ErrImportValidation)

	_, err = c.ReplaceIdentity(ctx, "garbage", "garbage")
	assert.ErrorIs(t, err, kerrors.ErrImportValidation)

	assert.Equal(t, 0, store.writes())
	ok, err := c.HasIdentity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceIdentity_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCustody(t, keystore.NewMemory())
	replacement := testIdentities(t, 3)[2]

	before, err := c.EnsureIdentity(ctx)
	require.NoError(t, err)
	require.NotEqual(t, replacement.PublicPEM, before.PublicPEM)

	_, err = c.ReplaceIdentity(ctx, replacement.PublicPEM, replacement.PrivatePEM)
	require.NoError(t, err)

	after, err := c.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, replacement.PublicPEM, after.PublicPEM)
	assert.Equal(t, replacement.PrivatePEM, after.PrivatePEM)
}

type failingStore struct {
	keystore.Memory
}

func (f *failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("disk on fire")
}

func TestEnsureIdentity_StoreErrorIsNotTreatedAsMissing(t *testing.T) {
	c, calls := newTestCustody(t, &failingStore{})

	_, err := c.EnsureIdentity(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, kerrors.ErrIdentityNotFound)
	assert.Equal(t, 0, *calls)
}

// publicWriteFailStore refuses writes to the public key entry.
type publicWriteFailStore struct {
	*keystore.Memory
}

func (s *publicWriteFailStore) Set(ctx context.Context, name, value string) error {
	if name == PublicKeyEntry {
		return errors.New("disk full")
	}
	return s.Memory.Set(ctx, name, value)
}

func TestReplaceIdentity_FailedPublicWriteKeepsPreviousPair(t *testing.T) {
	ctx := context.Background()
	mem := keystore.NewMemory()
	ids := testIdentities(t, 2)
	require.NoError(t, mem.Set(ctx, PrivateKeyEntry, ids[0].PrivatePEM))
	require.NoError(t, mem.Set(ctx, PublicKeyEntry, ids[0].PublicPEM))

	c := NewCustody(&publicWriteFailStore{Memory: mem})
	wrapped, err := NewWrapper(c).WrapForSelf(ctx, mustContentKey(t))
	require.NoError(t, err)

	_, err = c.ReplaceIdentity(ctx, ids[1].PublicPEM, ids[1].PrivatePEM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	priv, err := mem.Get(ctx, PrivateKeyEntry)
	require.NoError(t, err)
	assert.Equal(t, ids[0].PrivatePEM, priv)

	// A fresh process still loads the old identity and opens old content.
	fresh := NewCustody(mem)
	id, err := fresh.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[0].PublicPEM, id.PublicPEM)
	_, err = NewWrapper(fresh).Unwrap(ctx, wrapped)
	assert.NoError(t, err)

	cached, err := c.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, id.Fingerprint(), cached.Fingerprint())
}

func TestEnsureIdentity_FailedPublicWriteLeavesNoIdentity(t *testing.T) {
	ctx := context.Background()
	mem := keystore.NewMemory()
	c, _ := newTestCustody(t, &publicWriteFailStore{Memory: mem})

	_, err := c.EnsureIdentity(ctx)
	require.Error(t, err)

	ok, err := NewCustody(mem).HasIdentity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureIdentity_ConcurrentCallersShareOneIdentity(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: keystore.NewMemory()}
	c, calls := newTestCustody(t, store)

	const callers = 16
	fingerprints := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			id, err := c.EnsureIdentity(ctx)
			errs[i] = err
			if err == nil {
				fingerprints[i] = id.Fingerprint()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fingerprints[0], fingerprints[i])
	}
	assert.Equal(t, 1, *calls)
	assert.Equal(t, 2, store.writes())
}
