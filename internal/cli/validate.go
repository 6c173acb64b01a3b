package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/parser"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/report"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/validate"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	var (
		input      string
		configPath string
		output     string
		advanced   bool
		cross      bool
		quick      bool
		seed       int64
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the validation suite over a dataset",
		Long: "Load a JSON dataset, score frequency detection, pattern overlap and vocabulary overlap, " +
			"and write the validation report and text summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if quick {
				cfg.Quick()
			}
			if cmd.Flags().Changed("seed") {
				cfg.RandomSeed = seed
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			var reportPath string
			if cmd.Flags().Changed("output") {
				cfg.OutputDir = output
				if format := report.FormatForPath(output); format != "" {
					reportPath = output
					cfg.OutputDir = filepath.Dir(output)
					cfg.OutputFormat = format
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := g.logger.With("command", "validate")
			rep, err := runValidation(cmd.Context(), cfg, input, reportPath, validate.Options{Advanced: advanced, CrossValidation: cross}, logger)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return report.Render(w, rep, isTerminal(w))
		},
	}

	defaults := model.DefaultConfig()
	cmd.Flags().StringVar(&input, "input", "", "Dataset JSON file")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (YAML or JSON)")
	cmd.Flags().StringVar(&output, "output", defaults.OutputDir, "Directory for reports and raw data, or the report file itself (.json, .yaml)")
	cmd.Flags().BoolVar(&advanced, "run-advanced", false, "Run per-channel detection and pair score distribution analysis")
	cmd.Flags().BoolVar(&cross, "run-cross", false, "Run cross-validation folds")
	cmd.Flags().BoolVar(&quick, "quick", false, "Quick mode (fewer bootstrap iterations)")
	cmd.Flags().Int64Var(&seed, "seed", defaults.RandomSeed, "Random seed")
	cmd.Flags().IntVar(&workers, "workers", defaults.Workers, "Concurrent pair scorers (0 = GOMAXPROCS)")
	cmd.MarkFlagRequired("input")

	return cmd
}

// runValidation loads the dataset at input, runs the suite and saves what
// cfg asks for under cfg.OutputDir. A non-empty reportPath names the report
// file instead of a stamped one.
func runValidation(ctx context.Context, cfg model.Config, input, reportPath string, opts validate.Options, logger *slog.Logger) (report.Report, error) {
	ds, err := parser.LoadDataset(input, logger)
	if err != nil {
		return report.Report{}, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("dataset loaded",
		slog.String("input", input),
		slog.Int("samples", len(ds.Telemetry.CoherenceSignal)),
		slog.Int("channels", len(ds.Telemetry.Channels)),
		slog.Int("pattern_sessions", len(ds.PatternData.Sessions)))

	runner := validate.NewRunner(cfg, logger)
	out, err := runner.Run(ctx, ds, opts)
	if err != nil {
		return report.Report{}, err
	}

	now := time.Now()
	rep := report.Build(cfg, out, now, Version)
	if cfg.GenerateReport {
		var files report.Files
		if reportPath != "" {
			files, err = report.WriteFile(reportPath, rep, now)
		} else {
			files, err = report.Write(cfg.OutputDir, rep, cfg.OutputFormat, now)
		}
		if err != nil {
			return rep, err
		}
		logger.Info("report saved", slog.String("report", files.Report), slog.String("summary", files.Summary))
	}
	if cfg.SaveRawData {
		paths, err := out.SaveRawData(cfg.OutputDir)
		if err != nil {
			return rep, err
		}
		logger.Info("raw data saved", slog.Any("files", paths))
	}
	return rep, nil
}
