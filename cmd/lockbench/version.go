package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolkov/lockbench/bench"
	"github.com/kolkov/lockbench/internal/config"
)

func newVersionCmd() *config.SubCommand {
	sc := &config.SubCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "version",
		Short: "Print the lockbench version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := bench.GetInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "lockbench version %s\nchecker: %s\nstrategies: %v\n",
				info.Version, info.Checker, info.Strategies)
		},
	}
	return sc
}
