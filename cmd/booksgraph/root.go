package main

import (
	"github.com/spf13/cobra"

	"github.com/hanpama/booksgraph/internal/config"
)

type rootOptions struct {
	configFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "booksgraph",
		Short:         "GraphQL API over an in-memory library of authors and books",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml, toml or json)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSchemaCommand())
	cmd.AddCommand(newConfigCommand(opts))
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(o.configFile, cmd.Flags())
}
