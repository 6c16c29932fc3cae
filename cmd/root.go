package cmd

import (
	"github.com/spf13/cobra"

	"mentormuni-server/config"
)

const app = "mentormuni-server"

type rootOptions struct {
	configDir string
	debug     bool
	json      bool
}

// Execute runs the CLI; with no subcommand it serves HTTP.
func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           app,
		Short:         "MentorMuni interview readiness API",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "directory containing config.yaml")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "json format for logging")

	root.AddCommand(newServeCmd(opts), newTokenCmd(opts), newLeadsCmd(opts))
	return root
}

// loadConfig reads configuration and applies flag overrides.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configDir)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug = o.debug
	}
	if cmd.Flags().Changed("json") {
		cfg.Log.JSON = o.json
	}
	return cfg, nil
}
