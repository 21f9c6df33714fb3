package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/sealreel/internal/audit"
	"github.com/PolarWolf314/sealreel/internal/backend"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// UploadOptions configures Upload.
type UploadOptions struct {
	Path        string
	Title       string
	Description string
}

// UploadResult contains the outcome of an upload.
type UploadResult struct {
	ContentID     string
	PlainSize     int
	EncryptedSize int
}

// Upload encrypts a file under a fresh content key, wraps the key for the
// local identity and stores both on the backend. Only ciphertext and the
// WrappedKey leave the process.
func Upload(ctx context.Context, env *Env, opts UploadOptions) (*UploadResult, error) {
	// Uploading must not mint keys on a device that still needs a restore.
	if _, err := env.Custody.Identity(ctx); err != nil {
		return nil, err
	}

	plaintext, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", opts.Path, err)
	}

	title := opts.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(opts.Path), filepath.Ext(opts.Path))
	}

	key, err := secrets.CreateContentKey()
	if err != nil {
		return nil, err
	}
	defer clear(key)

	encrypted, err := secrets.EncryptContent(plaintext, key)
	if err != nil {
		return nil, kerrors.Wrap("encrypt content", err)
	}
	wrapped, err := env.Wrapper.WrapForSelf(ctx, key)
	if err != nil {
		return nil, kerrors.Wrap("wrap content key", err)
	}
	env.Logger.Debugf("Encrypted %d bytes to %d bytes", len(plaintext), len(encrypted))

	id, err := env.Client.Upload(ctx, backend.Upload{
		FileName:    filepath.Base(opts.Path) + secrets.SealedExt,
		Title:       title,
		Description: opts.Description,
		Content:     encrypted,
		WrappedKey:  wrapped,
	})
	if err != nil {
		return nil, err
	}

	entry := audit.NewEntry(audit.OpUpload, env.Config)
	entry.ContentID = id
	audit.Log(entry)

	return &UploadResult{ContentID: id, PlainSize: len(plaintext), EncryptedSize: len(encrypted)}, nil
}
