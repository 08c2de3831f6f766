package main

import (
	"github.com/spf13/cobra"

	"github.com/kolkov/lockbench/internal/bench/strategy"
	"github.com/kolkov/lockbench/internal/bench/suite"
	"github.com/kolkov/lockbench/internal/config"
	"github.com/kolkov/lockbench/internal/report"
)

func newTrialsCmd() *config.SubCommand {
	sc := &config.SubCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "trials",
		Short: "Repeat a run and summarize lost updates",
		Long: `trials repeats a run --count times, at most --parallel at once, and prints
how many runs ended with a wrong count. With --strategy unguarded some runs are
expected to fail; for the exclusive strategies any failure is an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := prepare(sc); err != nil {
				return err
			}
			kind, err := strategy.ParseKind(sc.Conf.GetString(config.FlagStrategy))
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(sc.Conf.GetString(config.FlagFormat))
			if err != nil {
				return err
			}
			sum, err := suite.Trials(cmd.Context(), config.Suite(sc.Conf), kind,
				sc.Conf.GetInt(config.FlagCount))
			if err != nil {
				return err
			}
			if err := report.New(nil).WithTrials(sum).Write(cmd.OutOrStdout(), format); err != nil {
				return err
			}
			if kind.Exclusive() && sum.Failures > 0 {
				return errFailed
			}
			return nil
		},
	}
	flags := sc.Cmd.Flags()
	flags.String(config.FlagStrategy, "unguarded", "Exclusion strategy: spin, mutex or unguarded.")
	flags.Int(config.FlagCount, config.DefaultTrials, "Number of runs.")
	flags.Int(config.FlagParallel, 0, "Runs in flight at once (default GOMAXPROCS).")
	flags.String(config.FlagFormat, config.DefaultFormat, "Output format: text or json.")
	config.AddSuiteFlags(sc.Cmd.Flags())
	return sc
}
