package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/daemon"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/dashboard"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/validate"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

const defaultPort = 8765

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		port       int
		dir        string
		input      string
		configPath string
		interval   int
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve saved reports on a local dashboard",
		Long: "Start the HTTP dashboard server over a report directory until interrupted. " +
			"With --input, the dataset is re-validated in a background loop every --interval seconds, " +
			"and with --watch also whenever the dataset file changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger.With("command", "serve")

			srv := &dashboard.Server{Port: port, Dir: dir}
			if err := srv.Start(); err != nil {
				return err
			}
			logger.Info("dashboard listening", "url", fmt.Sprintf("http://%s/dashboard/", srv.Addr()), "dir", dir)

			ctx := cmd.Context()
			if input != "" {
				cfg, err := model.LoadConfig(configPath)
				if err != nil {
					srv.Stop(context.Background())
					return err
				}
				cfg.OutputDir = dir
				cfg.GenerateReport = true

				var trigger <-chan struct{}
				if watch {
					trigger, err = daemon.WatchFile(ctx, input, 500*time.Millisecond, logger)
					if err != nil {
						srv.Stop(context.Background())
						return err
					}
				}

				d := &daemon.Daemon{
					Interval: time.Duration(interval) * time.Second,
					Trigger:  trigger,
					Dir:      dir,
					Logger:   logger,
					RunFn: func(ctx context.Context) error {
						_, err := runValidation(ctx, cfg, input, "", validate.Options{}, logger)
						return err
					},
				}
				if err := d.Run(ctx); err != nil {
					srv.Stop(context.Background())
					return err
				}
			} else {
				<-ctx.Done()
			}

			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Stop(stopCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", defaultPort, "HTTP server port")
	cmd.Flags().StringVar(&dir, "dir", ".", "Report directory")
	cmd.Flags().StringVar(&input, "input", "", "Dataset JSON file to re-validate in the background")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (YAML or JSON) for background validation")
	cmd.Flags().IntVar(&interval, "interval", 300, "Background validation interval in seconds (0 = no periodic runs)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Also re-validate when the dataset file changes")

	return cmd
}
