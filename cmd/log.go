package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/audit"
	"github.com/PolarWolf314/sealreel/internal/utils"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var (
	logLimit       int
	logReverse     bool
	logOperation   string
	logFingerprint string
	logSince       string
	logUntil       string
	logJSON        bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().StringVar(&logFingerprint, "fingerprint", "", "filter by identity fingerprint prefix")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logOperation = ""
	logFingerprint = ""
	logSince = ""
	logUntil = ""
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the local key audit log",
	Long: `Displays the local audit log of key and content operations on this device.

Examples:
  sealreel log                              # View full log
  sealreel log -n 10                        # Last 10 entries
  sealreel log --reverse                    # Most recent first
  sealreel log --operation export,import    # Filter by operation
  sealreel log --fingerprint 3fa2           # Entries for one identity
  sealreel log --since 2024-01-01           # Filter by date
  sealreel log --json                       # JSON output`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	spinner, cleanup := startSpinner("Loading audit log...", verbose)
	defer cleanup()

	result, err := workflows.Log(context.Background(), workflows.LogOptions{
		Limit:       logLimit,
		Reverse:     logReverse,
		Operations:  logOperation,
		Fingerprint: logFingerprint,
		Since:       logSince,
		Until:       logUntil,
	})
	if err != nil {
		return finishWithError(spinner, err)
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			spinner.FinalMSG = "No audit log entries found."
		} else {
			spinner.FinalMSG = "No audit log entries found matching the filters."
		}
		return nil
	}

	// Stop the spinner before printing entries.
	cleanup()

	if logJSON {
		return outputLogJSON(result.Entries)
	}
	outputLogDefault(result.Entries)
	return nil
}

func outputLogJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputLogDefault(entries []audit.Entry) {
	for _, e := range entries {
		datetime := workflows.FormatDateTime(e.Timestamp)
		fp := utils.ShortFingerprint(e.Fingerprint)
		fmt.Printf("%-19s  %-16s  %-10s  %-21s  %s\n", datetime, e.User, e.Operation, fp, workflows.FormatDetails(e))
	}
}
