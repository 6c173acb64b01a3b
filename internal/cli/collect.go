package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/collect"
)

func newCollectCmd(g *globalFlags) *cobra.Command {
	var opts collect.Options

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Assemble a dataset from session logs and series files",
		Long: "Read JSONL session logs for the pattern, conversation and transcript sections, " +
			"deduplicate identical sessions, add telemetry series, and write dataset.json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := collect.Run(opts, g.logger.With("command", "collect"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collect: %d sessions from %d files (%d duplicates), %d samples, %d channels -> %s\n",
				result.Sessions, result.SessionFiles, result.DuplicateSessions, result.Samples, result.Channels, result.DatasetPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.PatternDir, "patterns", "", "Session log directory for pattern_data")
	cmd.Flags().StringVar(&opts.ConversationDir, "conversations", "", "Session log directory for conversation_data")
	cmd.Flags().StringVar(&opts.TranscriptDir, "transcript", "", "Session log directory for validation_transcript")
	cmd.Flags().StringVar(&opts.SeriesPath, "series", "", "Coherence signal series file")
	cmd.Flags().StringSliceVar(&opts.ChannelPaths, "channel", nil, "Additional telemetry channel series file (repeatable)")
	cmd.Flags().Float64Var(&opts.SamplingRate, "rate", 0, "Sampling rate in Hz (0 = taken from the series files)")
	cmd.Flags().StringVar(&opts.OutDir, "out", ".", "Output directory")

	return cmd
}
