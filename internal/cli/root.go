package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel  string
	logFormat string
	logger    *slog.Logger
}

func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "codex67",
		Short: "Statistical validation suite for session and telemetry datasets",
		Long: "codex67 scores pattern overlap across text sessions, detects a target frequency in telemetry, " +
			"and writes a scored validation report.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), g.logLevel, g.logFormat)
			if err != nil {
				return err
			}
			g.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newValidateCmd(g),
		newScoreCmd(),
		newDetectCmd(),
		newPairsCmd(),
		newPeaksCmd(),
		newConfigCmd(),
		newCollectCmd(g),
		newServeCmd(g),
		newStatusCmd(),
	)

	root.Version = Version
	root.SetVersionTemplate(fmt.Sprintf("codex67 %s\n", Version))

	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
