package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/validate"
)

func newPeaksCmd() *cobra.Command {
	var (
		file   string
		signal string
		top    int
	)

	cmd := &cobra.Command{
		Use:   "peaks",
		Short: "Show the strongest saved spectrum bins",
		Long:  "Read a spectrum TSV written by validate and print the bins with the highest power, optionally for one signal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			bins, err := store.ReadSpectrum(file)
			if err != nil {
				return err
			}

			if signal != "" {
				kept := bins[:0]
				for _, b := range bins {
					if b.SignalID == signal {
						kept = append(kept, b)
					}
				}
				bins = kept
			}

			sort.SliceStable(bins, func(i, j int) bool {
				return bins[i].Power > bins[j].Power
			})
			if top > 0 && len(bins) > top {
				bins = bins[:top]
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, store.SpectrumTSVHeader)
			for _, b := range bins {
				fmt.Fprintln(w, store.MarshalSpectrumBin(b))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", validate.SpectrumFile, "Spectrum TSV file")
	cmd.Flags().StringVar(&signal, "signal", "", "Only show bins of this signal")
	cmd.Flags().IntVar(&top, "top", 10, "Number of bins to show (0 = all)")

	return cmd
}
