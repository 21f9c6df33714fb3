// Package workflows provides high-level orchestration for sealreel commands.
//
// Workflows coordinate custody, wrapping, the backend client and the audit
// log to implement complete user-facing features. The cmd/ package stays a
// thin layer that parses flags, builds an Env, calls one workflow and
// formats its result.
//
// # Available Workflows
//
//   - Login, ConfirmOnboarding, Status: identity state against the account
//   - InitKeys, ShowKeys, ExportBackup, ImportBackup, Regenerate: key custody
//   - Upload, View, ListContent: envelope encryption against the backend
//   - Seal, Open: envelope encryption of local files
//   - Requests, RequestAccess, Approve, Reject: access grants
//   - Log: reading the audit trail
//
// # Error Handling
//
// Workflows return errors that match the sentinels in internal/errors, so
// the CLI can pick a message without string matching:
//
//	_, err := workflows.View(ctx, env, opts)
//	if errors.Is(err, kerrors.ErrDecryptionAuth) {
//	    // wrong key or tampered content; nothing was written
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
package workflows
