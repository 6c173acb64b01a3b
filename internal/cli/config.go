package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

func newConfigCmd() *cobra.Command {
	var (
		configPath string
		quick      bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the configuration validate would use, as YAML, after applying the config file over the defaults.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if quick {
				cfg.Quick()
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (YAML or JSON)")
	cmd.Flags().BoolVar(&quick, "quick", false, "Show the quick mode configuration")

	return cmd
}
