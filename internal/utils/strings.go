package utils

import (
	"regexp"
)

// emailRegex checks for local-part@domain.tld.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail checks if the given string is a valid email address format.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// ShortFingerprint abbreviates a hex fingerprint for display as
// "ab12cd34…ef56".
func ShortFingerprint(fp string) string {
	if len(fp) <= 20 {
		return fp
	}
	return fp[:16] + "…" + fp[len(fp)-4:]
}
