package main

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the alethecheck CLI.
func NewRootCmd(logger hclog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "alethecheck",
		Short:         "Check and elaborate Alethe proof certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newCheckCmd(logger))
	cmd.AddCommand(newBenchmarkCmd(logger))

	return cmd
}
