package secrets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

// WrappedKey is a ContentKey RSA-OAEP encrypted under one recipient's public
// key, base64 encoded.
type WrappedKey string

// Wrapper seals content keys to public keys and opens them with the local
// identity held by a Custody.
type Wrapper struct {
	custody *Custody
}

// NewWrapper returns a Wrapper using custody for the local identity.
func NewWrapper(custody *Custody) *Wrapper {
	return &Wrapper{custody: custody}
}

// Wrap encrypts contentKey to recipientPublicPEM with RSA-OAEP/SHA-256. The
// recipient need not be the local user.
func (w *Wrapper) Wrap(contentKey []byte, recipientPublicPEM string) (WrappedKey, error) {
	pub, err := ParsePublicKeyPEM(recipientPublicPEM)
	if err != nil {
		return "", kerrors.Wrap("wrap content key", fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err))
	}
	return wrapTo(contentKey, pub)
}

// WrapForSelf wraps contentKey to the local identity, creating one if needed.
func (w *Wrapper) WrapForSelf(ctx context.Context, contentKey []byte) (WrappedKey, error) {
	id, err := w.custody.EnsureIdentity(ctx)
	if err != nil {
		return "", err
	}
	return wrapTo(contentKey, id.public)
}

// Unwrap decrypts wrapped with the local private key. It fails with
// ErrDecryptionAuth when the value was wrapped to a different key or is
// malformed.
func (w *Wrapper) Unwrap(ctx context.Context, wrapped WrappedKey) ([]byte, error) {
	id, err := w.custody.Identity(ctx)
	if err != nil {
		return nil, kerrors.Wrap("unwrap content key", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(string(wrapped))
	if err != nil {
		return nil, kerrors.Wrap("unwrap content key", fmt.Errorf("%w: wrapped key is not base64", kerrors.ErrDecryptionAuth))
	}

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, id.private, ciphertext, nil)
	if err != nil {
		return nil, kerrors.Wrap("unwrap content key", kerrors.ErrDecryptionAuth)
	}
	if len(key) != ContentKeySize {
		clear(key)
		return nil, kerrors.Wrap("unwrap content key", fmt.Errorf("%w: unexpected key length %d", kerrors.ErrDecryptionAuth, len(key)))
	}
	return key, nil
}

// Rewrap recovers the content key from a WrappedKey addressed to the local
// identity and re-seals it to recipientPublicPEM. The recovered key never
// leaves this call.
func (w *Wrapper) Rewrap(ctx context.Context, wrappedForSelf WrappedKey, recipientPublicPEM string) (WrappedKey, error) {
	recipient, err := ParsePublicKeyPEM(recipientPublicPEM)
	if err != nil {
		return "", kerrors.Wrap("rewrap content key", fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err))
	}

	key, err := w.Unwrap(ctx, wrappedForSelf)
	if err != nil {
		return "", err
	}
	defer clear(key)

	return wrapTo(key, recipient)
}

func wrapTo(contentKey []byte, pub *rsa.PublicKey) (WrappedKey, error) {
	if len(contentKey) != ContentKeySize {
		return "", fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, ContentKeySize, len(contentKey))
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, contentKey, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}
	return WrappedKey(base64.StdEncoding.EncodeToString(ciphertext)), nil
}
