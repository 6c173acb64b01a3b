package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/parser"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/spectrum"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

func newDetectCmd() *cobra.Command {
	var (
		input      string
		configPath string
		rate       float64
		target     float64
		tolerance  float64
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect the target frequency in one series",
		Long: "Read a time series (JSON or delimited text), locate the periodogram bin nearest the target frequency, " +
			"and print its power, SNR and significance as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("target") {
				cfg.TargetFrequency = target
			}
			if cmd.Flags().Changed("tolerance") {
				cfg.Tolerance = tolerance
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			sig, err := parser.ReadSeries(input)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rate") || sig.SamplingRate == 0 {
				sig.SamplingRate = rate
			}

			res, err := spectrum.NewDetector(cfg).Detect(sig.Samples, sig.SamplingRate)
			if err != nil {
				return fmt.Errorf("detect %s: %w", input, err)
			}

			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	defaults := model.DefaultConfig()
	cmd.Flags().StringVar(&input, "input", "", "Series file (.json, .csv, .tsv or whitespace separated)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (YAML or JSON)")
	cmd.Flags().Float64Var(&rate, "rate", 1.0, "Sampling rate in Hz, when the file does not carry one")
	cmd.Flags().Float64Var(&target, "target", defaults.TargetFrequency, "Target frequency in Hz")
	cmd.Flags().Float64Var(&tolerance, "tolerance", defaults.Tolerance, "Frequency tolerance in Hz")
	cmd.MarkFlagRequired("input")

	return cmd
}
