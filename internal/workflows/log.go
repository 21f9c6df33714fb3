package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/sealreel/internal/audit"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/utils"
)

const auditTimeLayout = "2006-01-02T15:04:05.000000Z"

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest.
	Reverse bool

	// Operations filters by operation, comma-separated.
	Operations string

	// Fingerprint filters by identity fingerprint prefix.
	Fingerprint string

	// Since and Until bound entries by date (YYYY-MM-DD, inclusive).
	Since string
	Until string
}

// LogResult contains the filtered audit entries.
type LogResult struct {
	Entries []audit.Entry

	TotalEntriesBeforeFilter int
}

// Log reads and filters the local audit log. A missing log yields no
// entries.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	entries, err := audit.ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}

	var since, until time.Time
	if opts.Since != "" {
		if since, err = time.Parse("2006-01-02", opts.Since); err != nil {
			return nil, fmt.Errorf("%w: --since must be YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
	}
	if opts.Until != "" {
		if until, err = time.Parse("2006-01-02", opts.Until); err != nil {
			return nil, fmt.Errorf("%w: --until must be YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		until = until.Add(24*time.Hour - time.Nanosecond)
	}

	ops := map[string]bool{}
	for _, op := range strings.Split(opts.Operations, ",") {
		if op = strings.ToLower(strings.TrimSpace(op)); op != "" {
			ops[op] = true
		}
	}

	filtered := make([]audit.Entry, 0, len(entries))
	for _, e := range entries {
		if len(ops) > 0 && !ops[strings.ToLower(e.Operation)] {
			continue
		}
		if opts.Fingerprint != "" && !strings.HasPrefix(e.Fingerprint, strings.ToLower(opts.Fingerprint)) {
			continue
		}
		if !since.IsZero() || !until.IsZero() {
			ts, ok := parseTimestamp(e.Timestamp)
			if !ok || (!since.IsZero() && ts.Before(since)) || (!until.IsZero() && ts.After(until)) {
				continue
			}
		}
		filtered = append(filtered, e)
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// Limit always keeps the most recent entries.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(auditTimeLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDateTime formats a timestamp string as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails summarises the operation-specific fields of an entry.
func FormatDetails(e audit.Entry) string {
	switch e.Operation {
	case audit.OpApprove, audit.OpReject:
		return fmt.Sprintf("request %s from %s", e.RequestID, e.Requester)
	case audit.OpUpload, audit.OpView, audit.OpRequest:
		return "content " + e.ContentID
	case audit.OpImport, audit.OpRegenerate:
		if e.PreviousFingerprint != "" {
			return "replaced " + utils.ShortFingerprint(e.PreviousFingerprint)
		}
		return ""
	case audit.OpExport, audit.OpSeal, audit.OpOpen:
		return e.Path
	default:
		return ""
	}
}
