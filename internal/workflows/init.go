package workflows

import (
	"context"
	"errors"

	"github.com/PolarWolf314/sealreel/internal/audit"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// InitKeysResult describes the local identity after InitKeys.
type InitKeysResult struct {
	Fingerprint string
	PublicPEM   string

	// Created is true if no identity existed and one was generated.
	Created bool
}

// InitKeys ensures a local identity exists without contacting the backend.
func InitKeys(ctx context.Context, env *Env) (*InitKeysResult, error) {
	had, err := env.Custody.HasIdentity(ctx)
	if err != nil {
		return nil, err
	}

	id, err := env.Custody.EnsureIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if !had {
		env.Logger.Infof("Generated new identity %s", id.Fingerprint())
		entry := audit.NewEntry(audit.OpGenerate, env.Config)
		entry.Fingerprint = id.Fingerprint()
		audit.Log(entry)
	}

	return &InitKeysResult{
		Fingerprint: id.Fingerprint(),
		PublicPEM:   id.PublicPEM,
		Created:     !had,
	}, nil
}

// ShowKeysResult describes the local identity.
type ShowKeysResult struct {
	Fingerprint string
	PublicPEM   string
}

// ShowKeys returns the local public key, or ErrIdentityNotFound.
func ShowKeys(ctx context.Context, env *Env) (*ShowKeysResult, error) {
	pem, err := env.Custody.ExportPublicPEM(ctx)
	if err != nil {
		return nil, err
	}
	if pem == "" {
		return nil, kerrors.ErrIdentityNotFound
	}
	fp, err := secrets.Fingerprint(pem)
	if err != nil {
		return nil, err
	}
	return &ShowKeysResult{Fingerprint: fp, PublicPEM: pem}, nil
}

// isIdentityMissing reports whether err means there is no local identity.
func isIdentityMissing(err error) bool {
	return errors.Is(err, kerrors.ErrIdentityNotFound)
}
