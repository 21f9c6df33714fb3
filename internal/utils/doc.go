// Package utils provides small helpers shared by the command layer.
//
// # System Utilities
//
//   - GetUsername: returns the current system username
//   - SanitizeLabel: normalizes a display name into a backup label
//
// # I/O and Terminal Utilities
//
//   - ReadStdin: reads piped data from standard input
//   - IsTerminal: checks whether stdin is a terminal
//   - Confirm: asks a yes/no question, defaulting to no
//
// # String Utilities
//
//   - IsValidEmail: checks an email address shape
//   - ShortFingerprint: abbreviates a key fingerprint for display
package utils
