// Package errors provides typed error values for sealreel.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Custody errors: identity lifecycle (ErrKeyGeneration, ErrIdentityNotFound, ErrImportValidation)
//   - Backup errors: backup container content (ErrMalformedBackup)
//   - Crypto errors: wrap/unwrap and AEAD failures (ErrDecryptionAuth, ErrInvalidKeyLength)
//   - Grant errors: access grant state (ErrMissingRecipientKey, ErrRequestFinalized)
//   - Recovery errors: login-time identity resolution (ErrInvalidTransition)
//   - Store errors: persistent key store (ErrKeyNotFound)
//   - Backend errors: the remote collaborator (ErrUnauthorized, ErrBackendUnavailable)
//
// # Usage
//
// Wrap sentinels with the failing operation so the cause stays readable:
//
//	return nil, kerrors.Wrap("unwrap content key", kerrors.ErrDecryptionAuth)
//
// Handle errors in the CLI layer:
//
//	if errors.Is(err, kerrors.ErrDecryptionAuth) {
//	    // refuse to render anything
//	}
//
// Cryptographic failures are never retried: the same inputs cannot succeed.
package errors
