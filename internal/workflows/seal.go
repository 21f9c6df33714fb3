package workflows

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/sealreel/internal/audit"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// KeyFileExt is appended to a sealed file's path for its WrappedKey.
const KeyFileExt = ".key"

// SealOptions configures Seal.
type SealOptions struct {
	Path string
}

// SealResult contains the outcome of Seal.
type SealResult struct {
	SealedPath string
	KeyPath    string
}

// Seal encrypts a local file to <path>.reel and writes its content key,
// wrapped for the local identity, to <path>.reel.key.
func Seal(ctx context.Context, env *Env, opts SealOptions) (*SealResult, error) {
	key, err := secrets.CreateContentKey()
	if err != nil {
		return nil, err
	}
	defer clear(key)

	wrapped, err := env.Wrapper.WrapForSelf(ctx, key)
	if err != nil {
		return nil, kerrors.Wrap("wrap content key", err)
	}

	sealed, err := secrets.EncryptFile(key, opts.Path)
	if err != nil {
		return nil, err
	}

	keyPath := sealed + KeyFileExt
	if err := os.WriteFile(keyPath, []byte(wrapped), 0600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", keyPath, err)
	}

	entry := audit.NewEntry(audit.OpSeal, env.Config)
	entry.Path = sealed
	audit.Log(entry)

	return &SealResult{SealedPath: sealed, KeyPath: keyPath}, nil
}

// OpenOptions configures Open.
type OpenOptions struct {
	Path string

	// KeyPath defaults to Path + ".key".
	KeyPath string

	// OutputPath defaults to Path without ".reel".
	OutputPath string
}

// OpenResult contains the outcome of Open.
type OpenResult struct {
	OutputPath string
}

// Open decrypts a file produced by Seal.
func Open(ctx context.Context, env *Env, opts OpenOptions) (*OpenResult, error) {
	keyPath := opts.KeyPath
	if keyPath == "" {
		keyPath = opts.Path + KeyFileExt
	}
	wrapped, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", keyPath, err)
	}

	key, err := env.Wrapper.Unwrap(ctx, secrets.WrappedKey(strings.TrimSpace(string(wrapped))))
	if err != nil {
		return nil, err
	}
	defer clear(key)

	out, err := secrets.DecryptFile(key, opts.Path, opts.OutputPath)
	if err != nil {
		return nil, err
	}

	entry := audit.NewEntry(audit.OpOpen, env.Config)
	entry.Path = out
	audit.Log(entry)

	return &OpenResult{OutputPath: out}, nil
}
