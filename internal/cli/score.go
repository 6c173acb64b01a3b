package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/overlap"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/parser"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
)

func newScoreCmd() *cobra.Command {
	var (
		dir     string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "score [<fileA> <fileB>]",
		Short: "Score the pattern overlap of sessions",
		Long: "Compute the n-gram pattern overlap and the vocabulary overlap of two text files or JSONL session logs. " +
			"With --dir, score every pair of JSONL sessions in a directory and print the pair scores and their mean.",
		Args: func(cmd *cobra.Command, args []string) error {
			if dir != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if dir != "" {
				corpus, err := parser.LoadSessionDir(dir)
				if err != nil {
					return err
				}
				res, err := overlap.Pairwise(cmd.Context(), corpus.List(), overlap.Fingerprints, workers)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, store.PairScoresTSVHeader)
				for _, p := range res.Pairs {
					fmt.Fprintln(w, store.MarshalPairScore(p))
				}
				fmt.Fprintf(w, "# mean\t%.6f\n", res.Mean)
				return nil
			}

			a, err := readSession(args[0])
			if err != nil {
				return err
			}
			b, err := readSession(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "pattern_overlap\t%.6f\n", overlap.Score(a.Tokens, b.Tokens))
			fmt.Fprintf(w, "vocabulary_overlap\t%.6f\n", overlap.VocabularyScore(a.Tokens, b.Tokens))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory of JSONL sessions to score pairwise")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent pair scorers (0 = GOMAXPROCS)")

	return cmd
}
