package errors

import (
	"errors"
	"fmt"
)

// Custody errors indicate failures in the identity lifecycle.
var (
	// ErrKeyGeneration indicates the RSA key pair could not be generated.
	ErrKeyGeneration = errors.New("failed to generate identity key pair")

	// ErrIdentityNotFound indicates no identity is persisted in the key store.
	ErrIdentityNotFound = errors.New("no identity found in key store")

	// ErrImportValidation indicates a PEM block could not be imported as an RSA-OAEP key.
	ErrImportValidation = errors.New("key material failed import validation")
)

// Backup errors indicate issues with a backup container.
var (
	// ErrMalformedBackup indicates the backup does not contain both key blocks.
	ErrMalformedBackup = errors.New("backup does not contain a public and a private key block")
)

// Cryptographic errors indicate failures during wrap, unwrap or content decryption.
var (
	// ErrDecryptionAuth indicates RSA-OAEP unwrap or the AEAD tag check failed.
	// Either the key does not match or the data was corrupted or tampered with.
	ErrDecryptionAuth = errors.New("decryption failed: wrong key or corrupted data")

	// ErrInvalidKeyLength indicates a content key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid content key length")

	// ErrInvalidPublicKey indicates a recipient public key is malformed or not RSA.
	ErrInvalidPublicKey = errors.New("invalid recipient public key")

	// ErrEncryptFailed indicates a wrap or content encryption primitive failed.
	ErrEncryptFailed = errors.New("encryption failed")
)

// Grant errors indicate issues with access request handling.
var (
	// ErrMissingRecipientKey indicates the requester has not published a public key yet.
	ErrMissingRecipientKey = errors.New("requester has not published a public key")

	// ErrRequestFinalized indicates the access request was already approved or rejected.
	ErrRequestFinalized = errors.New("access request is already finalized")
)

// Recovery errors indicate invalid use of the login-time identity flow.
var (
	// ErrInvalidTransition indicates the action is not allowed in the current state.
	ErrInvalidTransition = errors.New("action not allowed in current identity state")

	// ErrBackupNotExported indicates onboarding was confirmed before a backup was exported.
	ErrBackupNotExported = errors.New("identity backup has not been exported")
)

// Store errors indicate issues with the persistent key store.
var (
	// ErrKeyNotFound indicates the named entry does not exist in the key store.
	ErrKeyNotFound = errors.New("key store entry not found")

	// ErrInvalidKeyName indicates a key store entry name is empty or unsafe.
	ErrInvalidKeyName = errors.New("invalid key store entry name")

	// ErrUnknownBackend indicates the configured key store backend is not supported.
	ErrUnknownBackend = errors.New("unknown key store backend")
)

// Input errors indicate invalid command input.
var (
	// ErrInvalidDateFormat indicates a date filter is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Backend errors indicate failures talking to the remote collaborator.
var (
	// ErrBackendUnavailable indicates the backend could not be reached or failed.
	ErrBackendUnavailable = errors.New("backend is unavailable")

	// ErrUnauthorized indicates the session token was rejected.
	ErrUnauthorized = errors.New("backend rejected credentials")

	// ErrNotFound indicates the backend has no such resource.
	ErrNotFound = errors.New("backend resource not found")

	// ErrSignatureInvalid indicates the server's content signature did not verify.
	ErrSignatureInvalid = errors.New("content signature is invalid")
)

// OpError wraps an error with the operation that failed.
type OpError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *OpError) Unwrap() error {
	return e.Err
}

// Wrap wraps err with operation context.
// Returns nil if the provided error is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
