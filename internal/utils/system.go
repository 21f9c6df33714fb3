package utils

import (
	"os/user"
	"regexp"
	"strings"
)

var (
	labelInvalidChars = regexp.MustCompile(`[^a-z0-9\-_]`)
	labelRepeatDashes = regexp.MustCompile(`-+`)
)

// GetUsername returns the current username.
func GetUsername() (string, error) {
	user, err := user.Current()
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// SanitizeLabel turns a display name into a label that is safe in a file
// name: lowercase, spaces become hyphens, anything else unusual is dropped.
func SanitizeLabel(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	name = labelInvalidChars.ReplaceAllString(name, "")
	name = labelRepeatDashes.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if name == "" {
		name = "user"
	}

	return name
}
