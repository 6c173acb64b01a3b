package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/validate"
)

func newPairsCmd() *cobra.Command {
	var (
		file string
		top  int
	)

	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "Show the highest saved pair scores",
		Long:  "Read a pair-scores TSV written by validate and print the top pairs by overlap score.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := store.ReadPairScores(file)
			if err != nil {
				return err
			}

			sort.SliceStable(pairs, func(i, j int) bool {
				return pairs[i].Score > pairs[j].Score
			})
			if top > 0 && len(pairs) > top {
				pairs = pairs[:top]
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, store.PairScoresTSVHeader)
			for _, p := range pairs {
				fmt.Fprintln(w, store.MarshalPairScore(p))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", validate.PairScoresFile, "Pair scores TSV file")
	cmd.Flags().IntVar(&top, "top", 10, "Number of pairs to show (0 = all)")

	return cmd
}
