package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/grants"
	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var (
	grantsListAll  bool
	grantsListJSON bool
)

func init() {
	grantsListCmd.Flags().BoolVarP(&grantsListAll, "all", "a", false, "include approved and rejected requests")
	grantsListCmd.Flags().BoolVar(&grantsListJSON, "json", false, "output as JSON array")
}

// resetGrantsListState resets the grants list command's global state for testing.
func resetGrantsListState() {
	grantsListAll = false
	grantsListJSON = false
}

var grantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List access requests for your content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting grants list command")

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		reqs, err := workflows.Requests(context.Background(), env, workflows.RequestsOptions{All: grantsListAll})
		if err != nil {
			fmt.Println(formatError(err))
			return err
		}
		Logger.Debugf("Found %d requests", len(reqs))

		if grantsListJSON {
			return outputRequestsJSON(reqs)
		}
		if len(reqs) == 0 {
			fmt.Println("No pending access requests.")
			return nil
		}
		for _, r := range reqs {
			fmt.Printf("%-8s  %-20s  %-30s  %s\n", r.ID, r.RequesterName, r.ContentTitle, ui.State(string(r.State)))
		}
		return nil
	},
}

func outputRequestsJSON(reqs []*grants.AccessRequest) error {
	type row struct {
		ID          string `json:"id"`
		Requester   string `json:"requester"`
		ContentID   string `json:"content_id"`
		Title       string `json:"title"`
		State       string `json:"state"`
		RequestedAt string `json:"requested_at,omitempty"`
	}
	rows := make([]row, 0, len(reqs))
	for _, r := range reqs {
		out := row{ID: r.ID, Requester: r.RequesterName, ContentID: r.ContentID, Title: r.ContentTitle, State: string(r.State)}
		if !r.RequestedAt.IsZero() {
			out.RequestedAt = r.RequestedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		rows = append(rows, out)
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal requests to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
