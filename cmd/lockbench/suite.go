package main

import (
	"github.com/spf13/cobra"

	"github.com/kolkov/lockbench/internal/bench/suite"
	"github.com/kolkov/lockbench/internal/config"
	"github.com/kolkov/lockbench/internal/report"
)

func newSuiteCmd() *config.SubCommand {
	sc := &config.SubCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "suite",
		Short: "Run SpinLock then BlockingMutex with the reference parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := prepare(sc); err != nil {
				return err
			}
			format, err := report.ParseFormat(sc.Conf.GetString(config.FlagFormat))
			if err != nil {
				return err
			}
			results, err := suite.Run(config.Suite(sc.Conf))
			if err != nil {
				return err
			}
			rep := report.New(results)
			if err := rep.Write(cmd.OutOrStdout(), format); err != nil {
				return err
			}
			if !rep.Passed {
				return errFailed
			}
			return nil
		},
	}
	sc.Cmd.Flags().String(config.FlagFormat, config.DefaultFormat, "Output format: text or json.")
	config.AddSuiteFlags(sc.Cmd.Flags())
	return sc
}
