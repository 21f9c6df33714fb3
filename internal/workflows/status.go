package workflows

import (
	"context"

	"github.com/PolarWolf314/sealreel/internal/backend"
	"github.com/PolarWolf314/sealreel/internal/keystore"
	"github.com/PolarWolf314/sealreel/internal/recovery"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// StatusOptions configures Status.
type StatusOptions struct {
	// Offline skips the account lookup.
	Offline bool
}

// StatusResult summarises local and remote identity state.
type StatusResult struct {
	Store       keystore.Options
	HasIdentity bool
	Fingerprint string

	// Set only when online.
	Account           *backend.Account
	State             recovery.State
	RemoteFingerprint string
	InSync            bool
}

// Status reports the identity state without changing anything.
func Status(ctx context.Context, env *Env, opts StatusOptions) (*StatusResult, error) {
	result := &StatusResult{Store: env.Config.StoreOptions()}

	show, err := ShowKeys(ctx, env)
	switch {
	case err == nil:
		result.HasIdentity = true
		result.Fingerprint = show.Fingerprint
	case isIdentityMissing(err):
	default:
		return nil, err
	}

	if opts.Offline {
		return result, nil
	}

	acct, err := env.Client.Me(ctx)
	if err != nil {
		return nil, err
	}
	result.Account = acct
	result.State = recovery.Classify(acct.Recovery(), result.HasIdentity)
	if fp, err := secrets.Fingerprint(acct.PublicKey); err == nil {
		result.RemoteFingerprint = fp
	}
	result.InSync = result.HasIdentity && result.RemoteFingerprint == result.Fingerprint

	return result, nil
}
