package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/meritorder/app"
	"github.com/kilianp07/meritorder/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "meritorder",
	Short:        "Merit order dispatch calculator",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func newService() (*config.Config, *app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}
