// Package audit records key lifecycle events for the local user.
//
// Each identity generation, import, regeneration, backup export, upload and
// grant decision is appended as one JSON object per line to:
//
//	$XDG_DATA_HOME/sealreel/audit.jsonl
//
// Entries carry the identity fingerprint in use, never key material.
//
// # Usage
//
//	entry := audit.NewEntry(audit.OpApprove, cfg)
//	entry.RequestID = req.ID
//	audit.Log(entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If the log cannot be written the operation
// still succeeds.
//
// The onboarding confirmation reads the log back with HasOperation to check
// that a backup of the current identity was exported.
package audit
