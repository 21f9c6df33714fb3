// Package recovery decides what a user must do with their identity when
// they sign in: set up keys for the first time, continue silently, or
// restore from a backup on a device that has none.
package recovery

import (
	"context"
	"fmt"
	"sync"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// State is a position in the sign-in flow.
type State string

const (
	StateUnresolved           State = ""
	StateFirstLogin           State = "first_login"
	StateOnboardingRequired   State = "onboarding_required"
	StateReturningWithKeys    State = "returning_with_keys"
	StateReturningWithoutKeys State = "returning_without_keys"
	StateRestoreRequired      State = "restore_required"
	StateReady                State = "ready"
)

// Account is what the backend knows about the signed-in user.
type Account struct {
	ID           string
	Name         string
	Email        string
	FirstLogin   bool
	PublicKeyPEM string
}

// Publisher records the user's public key and onboarding status on the
// backend.
type Publisher interface {
	PublishPublicKey(ctx context.Context, publicPEM string) error
	ConfirmKeySetup(ctx context.Context) error
}

// Flow tracks one sign-in session.
type Flow struct {
	custody   *secrets.Custody
	publisher Publisher

	mu             sync.Mutex
	account        Account
	state          State
	backupExported bool
	published      bool
}

// NewFlow returns an unresolved Flow.
func NewFlow(custody *secrets.Custody, publisher Publisher) *Flow {
	return &Flow{custody: custody, publisher: publisher}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Published reports whether the flow sent the local public key to the
// backend.
func (f *Flow) Published() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published
}

// Classify maps an account and local key presence to an entry state.
func Classify(acct Account, hasIdentity bool) State {
	switch {
	case acct.FirstLogin:
		return StateFirstLogin
	case hasIdentity:
		return StateReturningWithKeys
	default:
		return StateReturningWithoutKeys
	}
}

// Resolve classifies acct and advances to the state the user must act on:
//
//   - first_login: an identity is ensured and published, then
//     onboarding_required until a backup is exported and confirmed.
//   - returning_with_keys: the public key is re-published if the backend
//     copy differs, then ready.
//   - returning_without_keys: restore_required. Nothing is generated.
func (f *Flow) Resolve(ctx context.Context, acct Account) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	has, err := f.custody.HasIdentity(ctx)
	if err != nil {
		return f.state, kerrors.Wrap("resolve identity", err)
	}

	f.account = acct
	f.published = false

	switch Classify(acct, has) {
	case StateFirstLogin:
		id, err := f.custody.EnsureIdentity(ctx)
		if err != nil {
			return f.state, kerrors.Wrap("resolve identity", err)
		}
		if err := f.syncLocked(ctx, id); err != nil {
			return f.state, err
		}
		f.state = StateOnboardingRequired
	case StateReturningWithKeys:
		id, err := f.custody.Identity(ctx)
		if err != nil {
			return f.state, kerrors.Wrap("resolve identity", err)
		}
		if err := f.syncLocked(ctx, id); err != nil {
			return f.state, err
		}
		f.state = StateReady
	default:
		f.state = StateRestoreRequired
	}
	return f.state, nil
}

// MarkBackupExported records that the user saved a backup during
// onboarding.
func (f *Flow) MarkBackupExported() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateOnboardingRequired {
		return f.invalidLocked("mark backup exported")
	}
	f.backupExported = true
	return nil
}

// ConfirmOnboarding finishes first-login setup. It refuses until a backup
// has been exported, since the identity cannot be recovered without one.
func (f *Flow) ConfirmOnboarding(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateOnboardingRequired {
		return f.invalidLocked("confirm onboarding")
	}
	if !f.backupExported {
		return kerrors.ErrBackupNotExported
	}
	if err := f.publisher.ConfirmKeySetup(ctx); err != nil {
		return fmt.Errorf("failed to confirm key setup: %w", err)
	}
	f.account.FirstLogin = false
	f.state = StateReady
	return nil
}

// Restore installs an identity recovered from a backup and resumes as a
// returning user with keys.
func (f *Flow) Restore(ctx context.Context, publicPEM, privatePEM string) (*secrets.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateRestoreRequired {
		return nil, f.invalidLocked("restore identity")
	}
	id, err := f.custody.ReplaceIdentity(ctx, publicPEM, privatePEM)
	if err != nil {
		return nil, err
	}
	if err := f.syncLocked(ctx, id); err != nil {
		return nil, err
	}
	f.state = StateReady
	return id, nil
}

// Regenerate replaces the identity with fresh keys and publishes the new
// public key. Every WrappedKey made for the old key is lost. Allowed when
// restoring is impossible, or deliberately from ready.
func (f *Flow) Regenerate(ctx context.Context) (*secrets.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateRestoreRequired && f.state != StateReady {
		return nil, f.invalidLocked("regenerate identity")
	}
	id, err := f.custody.Regenerate(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.syncLocked(ctx, id); err != nil {
		return nil, err
	}
	f.state = StateReady
	return id, nil
}

// syncLocked publishes id's public key unless the account already holds a
// key with the same fingerprint.
func (f *Flow) syncLocked(ctx context.Context, id *secrets.Identity) error {
	if remote, err := secrets.Fingerprint(f.account.PublicKeyPEM); err == nil && remote == id.Fingerprint() {
		return nil
	}
	if err := f.publisher.PublishPublicKey(ctx, id.PublicPEM); err != nil {
		return fmt.Errorf("failed to publish public key: %w", err)
	}
	f.account.PublicKeyPEM = id.PublicPEM
	f.published = true
	return nil
}

func (f *Flow) invalidLocked(op string) error {
	state := f.state
	if state == StateUnresolved {
		state = "unresolved"
	}
	return fmt.Errorf("%w: cannot %s while %s", kerrors.ErrInvalidTransition, op, state)
}
