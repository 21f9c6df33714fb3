package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/keystore"
)

// Key store entry names for the two identity halves.
const (
	PublicKeyEntry  = "rsa_public_key"
	PrivateKeyEntry = "rsa_private_key"
)

// Custody owns the identity lifecycle: generate, cache, persist, restore.
// Its cache is instance state, so each Custody (and each test) starts clean.
type Custody struct {
	store    keystore.Store
	generate func() (*Identity, error)

	mu     sync.Mutex
	cached *Identity
}

// NewCustody returns a Custody persisting to store.
func NewCustody(store keystore.Store) *Custody {
	return &Custody{store: store, generate: GenerateIdentity}
}

// EnsureIdentity loads and caches the persisted identity, or generates,
// persists and caches a new one if none exists. It never overwrites an
// identity that is already persisted.
func (c *Custody) EnsureIdentity(ctx context.Context) (*Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached, nil
	}

	id, err := c.loadLocked(ctx)
	if err == nil {
		c.cached = id
		return id, nil
	}
	if !errors.Is(err, kerrors.ErrIdentityNotFound) {
		return nil, err
	}

	id, err = c.generate()
	if err != nil {
		return nil, kerrors.Wrap("ensure identity", err)
	}
	if err := c.persistLocked(ctx, id); err != nil {
		return nil, err
	}
	c.cached = id
	return id, nil
}

// Identity returns the cached or persisted identity without generating one.
// Returns ErrIdentityNotFound when the store is empty.
func (c *Custody) Identity(ctx context.Context) (*Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached, nil
	}
	id, err := c.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	c.cached = id
	return id, nil
}

// HasIdentity reports whether both halves are persisted. It ignores the cache
// so "never had keys" can be told apart from "keys loaded".
func (c *Custody) HasIdentity(ctx context.Context) (bool, error) {
	for _, name := range []string{PublicKeyEntry, PrivateKeyEntry} {
		ok, err := c.store.Has(ctx, name)
		if err != nil {
			return false, fmt.Errorf("failed to check key store for %s: %w", name, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ExportPublicPEM returns the cached or persisted public PEM, or "" when no
// identity exists.
func (c *Custody) ExportPublicPEM(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.cached
	c.mu.Unlock()
	if cached != nil {
		return cached.PublicPEM, nil
	}

	pub, err := c.store.Get(ctx, PublicKeyEntry)
	if errors.Is(err, kerrors.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read public key: %w", err)
	}
	return pub, nil
}

// ReplaceIdentity validates both PEM blocks, then overwrites the persisted
// identity and invalidates the cache. Nothing is written if validation fails.
func (c *Custody) ReplaceIdentity(ctx context.Context, publicPEM, privatePEM string) (*Identity, error) {
	id, err := ParseIdentity(publicPEM, privatePEM)
	if err != nil {
		return nil, kerrors.Wrap("replace identity", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.persistLocked(ctx, id); err != nil {
		return nil, err
	}
	c.cached = nil
	return id, nil
}

// Regenerate replaces the identity with a freshly generated one. Every
// WrappedKey produced for the previous public key becomes unrecoverable.
func (c *Custody) Regenerate(ctx context.Context) (*Identity, error) {
	id, err := c.generate()
	if err != nil {
		return nil, kerrors.Wrap("regenerate identity", err)
	}
	return c.ReplaceIdentity(ctx, id.PublicPEM, id.PrivatePEM)
}

// DiscardCache drops the in-memory identity. Persisted state is untouched.
func (c *Custody) DiscardCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}

func (c *Custody) loadLocked(ctx context.Context) (*Identity, error) {
	pub, err := c.store.Get(ctx, PublicKeyEntry)
	if errors.Is(err, kerrors.ErrKeyNotFound) {
		return nil, kerrors.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	priv, err := c.store.Get(ctx, PrivateKeyEntry)
	if errors.Is(err, kerrors.ErrKeyNotFound) {
		return nil, kerrors.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	id, err := ParseIdentity(pub, priv)
	if err != nil {
		return nil, kerrors.Wrap("load identity", err)
	}
	return id, nil
}

// persistLocked writes the private half first so a crash between the two
// writes never leaves a public key without its private key. If the public
// write fails, the previous private key is put back so the stored pair stays
// consistent.
func (c *Custody) persistLocked(ctx context.Context, id *Identity) error {
	previous, err := c.store.Get(ctx, PrivateKeyEntry)
	hadPrevious := err == nil
	if err != nil && !errors.Is(err, kerrors.ErrKeyNotFound) {
		return fmt.Errorf("failed to read current private key: %w", err)
	}

	if err := c.store.Set(ctx, PrivateKeyEntry, id.PrivatePEM); err != nil {
		return fmt.Errorf("failed to persist private key: %w", err)
	}
	if err := c.store.Set(ctx, PublicKeyEntry, id.PublicPEM); err != nil {
		if !hadPrevious {
			// A lone private key reads as no identity.
			return fmt.Errorf("failed to persist public key: %w", err)
		}
		if rbErr := c.store.Set(ctx, PrivateKeyEntry, previous); rbErr != nil {
			return fmt.Errorf("failed to persist public key: %w (restoring previous private key also failed: %v)", err, rbErr)
		}
		return fmt.Errorf("failed to persist public key: %w", err)
	}
	return nil
}
