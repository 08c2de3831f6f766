package main

import (
	"github.com/spf13/cobra"

	"github.com/kolkov/lockbench/internal/bench/runner"
	"github.com/kolkov/lockbench/internal/bench/strategy"
	"github.com/kolkov/lockbench/internal/config"
	"github.com/kolkov/lockbench/internal/report"
)

func newRunCmd() *config.SubCommand {
	sc := &config.SubCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "run",
		Short: "Run one benchmark with a single strategy",
		Example: `  lockbench run --strategy spin --threads 16 --iterations 512
  lockbench run --strategy unguarded --trace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := prepare(sc); err != nil {
				return err
			}
			return runOne(cmd, sc)
		},
	}
	flags := sc.Cmd.Flags()
	flags.String(config.FlagStrategy, "spin", "Exclusion strategy: spin, mutex or unguarded.")
	flags.String(config.FlagFormat, config.DefaultFormat, "Output format: text or json.")
	config.AddSuiteFlags(sc.Cmd.Flags())
	return sc
}

func runOne(cmd *cobra.Command, sc *config.SubCommand) error {
	kind, err := strategy.ParseKind(sc.Conf.GetString(config.FlagStrategy))
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(sc.Conf.GetString(config.FlagFormat))
	if err != nil {
		return err
	}
	cfg := config.Suite(sc.Conf)
	s, err := strategy.New(kind)
	if err != nil {
		return err
	}
	r := runner.New(runner.WithTracing(cfg.Trace), runner.WithPinning(cfg.Pin))
	res, err := r.Run(s, cfg.Threads, cfg.Iterations)
	if err != nil {
		return err
	}

	if err := report.New([]runner.RunResult{res}).Write(cmd.OutOrStdout(), format); err != nil {
		return err
	}
	if tr := r.Tracer(); tr != nil && format == report.Text {
		for _, rep := range tr.Reports() {
			rep.Format(cmd.ErrOrStderr())
		}
	}
	if !res.Passed || res.Races > 0 {
		return errFailed
	}
	return nil
}
