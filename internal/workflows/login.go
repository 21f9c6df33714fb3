package workflows

import (
	"context"

	"github.com/PolarWolf314/sealreel/internal/audit"
	"github.com/PolarWolf314/sealreel/internal/backend"
	"github.com/PolarWolf314/sealreel/internal/recovery"
)

// LoginResult describes where the user stands after signing in.
type LoginResult struct {
	Account     *backend.Account
	State       recovery.State
	Fingerprint string

	// Generated is true if first-login setup created a new identity.
	Generated bool

	// Published is true if the local public key was sent to the backend.
	Published bool
}

// Login fetches the account and resolves the identity state. A first login
// generates and publishes keys and leaves the user in onboarding until a
// backup is exported. A returning user without local keys gets
// restore_required and nothing is generated.
func Login(ctx context.Context, env *Env) (*LoginResult, error) {
	acct, err := env.Client.Me(ctx)
	if err != nil {
		return nil, err
	}
	env.Logger.Debugf("Signed in as %s (first login: %t)", acct.Email, acct.FirstLogin)

	had, err := env.Custody.HasIdentity(ctx)
	if err != nil {
		return nil, err
	}

	flow := recovery.NewFlow(env.Custody, env.Client)
	state, err := flow.Resolve(ctx, acct.Recovery())
	if err != nil {
		return nil, err
	}

	result := &LoginResult{Account: acct, State: state, Published: flow.Published()}

	if state == recovery.StateRestoreRequired {
		return result, nil
	}

	id, err := env.Custody.Identity(ctx)
	if err != nil {
		return nil, err
	}
	result.Fingerprint = id.Fingerprint()
	result.Generated = !had

	if result.Generated {
		entry := audit.NewEntry(audit.OpGenerate, env.Config)
		entry.Fingerprint = result.Fingerprint
		audit.Log(entry)
	}
	if result.Published {
		env.Logger.Infof("Published public key %s", result.Fingerprint)
		entry := audit.NewEntry(audit.OpPublish, env.Config)
		entry.Fingerprint = result.Fingerprint
		audit.Log(entry)
	}

	return result, nil
}
