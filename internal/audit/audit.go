package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/PolarWolf314/sealreel/internal/configs"
)

// Operation names recorded in the log.
const (
	OpGenerate   = "generate"
	OpImport     = "import"
	OpRegenerate = "regenerate"
	OpExport     = "export"
	OpPublish    = "publish"
	OpOnboard    = "onboard"
	OpUpload     = "upload"
	OpView       = "view"
	OpRequest    = "request"
	OpApprove    = "approve"
	OpReject     = "reject"
	OpSeal       = "seal"
	OpOpen       = "open"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID        string `json:"id"`
	Timestamp string `json:"ts"`    // RFC3339 with microseconds.
	User      string `json:"user"`  // Account label.
	Email     string `json:"email"` // Account email, if configured.
	Operation string `json:"op"`

	// Optional fields depending on operation.
	Fingerprint         string `json:"fingerprint,omitempty"`          // Identity in use.
	PreviousFingerprint string `json:"previous_fingerprint,omitempty"` // For import/regenerate.
	ContentID           string `json:"content_id,omitempty"`           // For upload/view/request/approve.
	RequestID           string `json:"request_id,omitempty"`           // For approve/reject.
	Requester           string `json:"requester,omitempty"`            // For approve/reject.
	Path                string `json:"path,omitempty"`                 // For export/seal/open.
}

// Log appends an entry to the audit log. Failures are swallowed: an
// operation never fails because its audit entry could not be written.
func Log(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// NewEntry returns an entry for op with the account fields filled from
// config.
func NewEntry(op string, config *configs.UserConfig) Entry {
	entry := Entry{Operation: op}
	if config != nil {
		entry.User = config.Account.Label
		entry.Email = config.Account.Email
	}
	return entry
}

// LogPath returns the path to the audit log file.
func LogPath() string {
	return configs.AuditLogPath()
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	data, err := os.ReadFile(LogPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// HasOperation reports whether the log records op for the identity with
// fingerprint.
func HasOperation(op, fingerprint string) (bool, error) {
	entries, err := ReadEntries()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Operation == op && e.Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are skipped so a torn write does not hide the rest.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
