package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/daemon"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/dashboard"
)

// statusOutput is the JSON printed by the status command.
type statusOutput struct {
	Dir        string                  `json:"dir"`
	Background *daemon.HeartbeatState  `json:"background_validation"`
	Reports    []dashboard.ReportEntry `json:"reports"`
}

func newStatusCmd() *cobra.Command {
	var (
		dir  string
		last int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show background validation and saved report status",
		Long:  "Display the background validation heartbeat and the most recent reports in a report directory as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := dashboard.ListReports(dir)
			if err != nil {
				return err
			}
			if last > 0 && len(reports) > last {
				reports = reports[:last]
			}

			data, err := json.MarshalIndent(statusOutput{
				Dir:        dir,
				Background: daemon.ReadHeartbeatState(dir),
				Reports:    reports,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Report directory")
	cmd.Flags().IntVar(&last, "last", 5, "Number of recent report files to list (0 = all)")

	return cmd
}
