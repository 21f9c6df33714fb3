package workflows

import (
	"context"
	"fmt"
	"io"

	"github.com/PolarWolf314/sealreel/internal/audit"
	"github.com/PolarWolf314/sealreel/internal/backup"
)

// ExportBackupOptions configures ExportBackup.
type ExportBackupOptions struct {
	// OutputPath defaults to sealreel-keys-<label>.xlsx.
	OutputPath string

	// Writer, if set, receives the workbook instead of a file.
	Writer io.Writer
}

// ExportBackupResult contains the outcome of an export.
type ExportBackupResult struct {
	Path        string
	Fingerprint string
}

// ExportBackup writes the current identity to a spreadsheet backup. It
// fails with ErrIdentityNotFound rather than generating keys to export.
func ExportBackup(ctx context.Context, env *Env, opts ExportBackupOptions) (*ExportBackupResult, error) {
	id, err := env.Custody.Identity(ctx)
	if err != nil {
		return nil, err
	}

	bundle := backup.Export(id, backup.Metadata{Label: env.Config.Account.Label})

	result := &ExportBackupResult{Fingerprint: id.Fingerprint()}
	if opts.Writer != nil {
		if _, err := bundle.WriteTo(opts.Writer); err != nil {
			return nil, fmt.Errorf("failed to write backup: %w", err)
		}
	} else {
		result.Path = opts.OutputPath
		if result.Path == "" {
			result.Path = backup.FileName(env.Config.Account.Label)
		}
		if err := bundle.Save(result.Path); err != nil {
			return nil, err
		}
	}

	env.Logger.Infof("Exported identity %s", result.Fingerprint)
	entry := audit.NewEntry(audit.OpExport, env.Config)
	entry.Fingerprint = result.Fingerprint
	entry.Path = result.Path
	audit.Log(entry)

	return result, nil
}
