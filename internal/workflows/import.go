package workflows

import (
	"context"
	"fmt"
	"io"

	"github.com/PolarWolf314/sealreel/internal/audit"
	"github.com/PolarWolf314/sealreel/internal/backup"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/recovery"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// ImportBackupOptions configures ImportBackup.
type ImportBackupOptions struct {
	Reader io.Reader

	// Offline skips publishing the imported public key.
	Offline bool
}

// ImportBackupResult contains the outcome of an import.
type ImportBackupResult struct {
	Fingerprint         string
	PreviousFingerprint string
	Published           bool
}

// ImportBackup installs the identity from a spreadsheet backup. Online, a
// device without keys goes through the recovery flow's restore; a device
// that already has keys replaces them and re-publishes if the backend holds
// a different key. Nothing changes if the backup is malformed or invalid.
func ImportBackup(ctx context.Context, env *Env, opts ImportBackupOptions) (*ImportBackupResult, error) {
	pub, priv, err := backup.Read(opts.Reader)
	if err != nil {
		return nil, kerrors.Wrap("import backup", err)
	}
	if _, err := secrets.ParseIdentity(pub, priv); err != nil {
		return nil, kerrors.Wrap("import backup", err)
	}

	result := &ImportBackupResult{}
	if previous, err := env.Custody.ExportPublicPEM(ctx); err == nil && previous != "" {
		result.PreviousFingerprint, _ = secrets.Fingerprint(previous)
	}

	var id *secrets.Identity
	if opts.Offline {
		id, err = env.Custody.ReplaceIdentity(ctx, pub, priv)
		if err != nil {
			return nil, err
		}
	} else {
		id, result.Published, err = importOnline(ctx, env, pub, priv)
		if err != nil {
			return nil, err
		}
	}
	result.Fingerprint = id.Fingerprint()

	env.Logger.Infof("Imported identity %s", result.Fingerprint)
	entry := audit.NewEntry(audit.OpImport, env.Config)
	entry.Fingerprint = result.Fingerprint
	entry.PreviousFingerprint = result.PreviousFingerprint
	audit.Log(entry)

	return result, nil
}

func importOnline(ctx context.Context, env *Env, pub, priv string) (*secrets.Identity, bool, error) {
	acct, err := env.Client.Me(ctx)
	if err != nil {
		return nil, false, err
	}

	has, err := env.Custody.HasIdentity(ctx)
	if err != nil {
		return nil, false, err
	}

	flow := recovery.NewFlow(env.Custody, env.Client)
	if !has && !acct.FirstLogin {
		state, err := flow.Resolve(ctx, acct.Recovery())
		if err != nil {
			return nil, false, err
		}
		env.Logger.Debugf("Recovery state before import: %s", state)
		id, err := flow.Restore(ctx, pub, priv)
		if err != nil {
			return nil, false, err
		}
		return id, flow.Published(), nil
	}

	id, err := env.Custody.ReplaceIdentity(ctx, pub, priv)
	if err != nil {
		return nil, false, err
	}
	if remote, err := secrets.Fingerprint(acct.PublicKey); err == nil && remote == id.Fingerprint() {
		return id, false, nil
	}
	if err := env.Client.PublishPublicKey(ctx, id.PublicPEM); err != nil {
		return nil, false, fmt.Errorf("imported keys locally but failed to publish public key: %w", err)
	}
	return id, true, nil
}
