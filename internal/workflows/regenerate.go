package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/sealreel/internal/audit"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/recovery"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// RegenerateOptions configures Regenerate.
type RegenerateOptions struct {
	// Offline replaces the local identity without publishing it.
	Offline bool
}

// RegenerateResult contains the outcome of a regeneration.
type RegenerateResult struct {
	Fingerprint         string
	PreviousFingerprint string
	Published           bool
}

// Regenerate replaces the identity with fresh keys. Every WrappedKey made
// for the previous key, including grants received from other users,
// becomes unrecoverable.
func Regenerate(ctx context.Context, env *Env, opts RegenerateOptions) (*RegenerateResult, error) {
	result := &RegenerateResult{}
	if previous, err := env.Custody.ExportPublicPEM(ctx); err == nil && previous != "" {
		result.PreviousFingerprint, _ = secrets.Fingerprint(previous)
	}

	var id *secrets.Identity
	if opts.Offline {
		var err error
		id, err = env.Custody.Regenerate(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		acct, err := env.Client.Me(ctx)
		if err != nil {
			return nil, err
		}
		flow := recovery.NewFlow(env.Custody, env.Client)
		state, err := flow.Resolve(ctx, acct.Recovery())
		if err != nil {
			return nil, err
		}
		if state == recovery.StateOnboardingRequired {
			return nil, fmt.Errorf("%w: finish onboarding before regenerating keys", kerrors.ErrInvalidTransition)
		}
		id, err = flow.Regenerate(ctx)
		if err != nil {
			return nil, err
		}
		result.Published = flow.Published()
	}
	result.Fingerprint = id.Fingerprint()

	env.Logger.Warnf("Identity %s replaced; content wrapped for it can no longer be opened", result.PreviousFingerprint)
	entry := audit.NewEntry(audit.OpRegenerate, env.Config)
	entry.Fingerprint = result.Fingerprint
	entry.PreviousFingerprint = result.PreviousFingerprint
	audit.Log(entry)

	return result, nil
}
