package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/sealreel/internal/audit"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/recovery"
)

// ConfirmOnboarding finishes first-login setup. It requires that a backup of
// the current identity was exported, which it checks in the audit log.
func ConfirmOnboarding(ctx context.Context, env *Env) error {
	acct, err := env.Client.Me(ctx)
	if err != nil {
		return err
	}

	flow := recovery.NewFlow(env.Custody, env.Client)
	state, err := flow.Resolve(ctx, acct.Recovery())
	if err != nil {
		return err
	}
	if state != recovery.StateOnboardingRequired {
		return fmt.Errorf("%w: onboarding is not pending (state %s)", kerrors.ErrInvalidTransition, state)
	}

	id, err := env.Custody.Identity(ctx)
	if err != nil {
		return err
	}
	exported, err := audit.HasOperation(audit.OpExport, id.Fingerprint())
	if err != nil {
		env.Logger.Warnf("Could not read audit log: %v", err)
	}
	if exported {
		if err := flow.MarkBackupExported(); err != nil {
			return err
		}
	}

	if err := flow.ConfirmOnboarding(ctx); err != nil {
		return err
	}

	entry := audit.NewEntry(audit.OpOnboard, env.Config)
	entry.Fingerprint = id.Fingerprint()
	audit.Log(entry)
	return nil
}
