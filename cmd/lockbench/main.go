// Package main implements the lockbench CLI.
//
// lockbench runs concurrent-increment benchmarks against mutual exclusion
// strategies and checks that no increment was lost:
//
//	lockbench suite                        # SpinLock then BlockingMutex, 16x512
//	lockbench run --strategy spin --trace  # one run with happens-before checking
//	lockbench trials --strategy unguarded  # repeated runs, lost-update statistics
//	lockbench device                       # open the simulated device, print its report
//	lockbench serve --addr :9090           # HTTP: /metrics and the device
//
// Every flag can also be set with a LOCKBENCH_ environment variable or a
// config file passed with --config. The exit status is 1 if any run failed.
package main

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kolkov/lockbench/internal/config"
)

// errFailed marks a command whose runs completed but did not all pass. The
// details were already printed.
var errFailed = errors.New("benchmark failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lockbench",
		Short: "Concurrent-increment lock benchmark",
		Long: `lockbench starts a pool of workers that increment one shared counter under
an exclusion strategy and verifies the final count is exact.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String(config.FlagConfig, "",
		"Config file (yaml, json or toml). Flags and LOCKBENCH_* variables override it.")
	root.PersistentFlags().AddGoFlagSet(goflag.CommandLine)

	for _, sc := range []*config.SubCommand{
		newRunCmd(), newSuiteCmd(), newTrialsCmd(), newDeviceCmd(), newServeCmd(), newVersionCmd(),
	} {
		root.AddCommand(sc.Cmd)
	}
	return root
}

// prepare binds flags, environment and config file of sc once its flags were
// parsed.
func prepare(sc *config.SubCommand) error {
	if err := sc.Bind(); err != nil {
		return err
	}
	return sc.Load()
}

func main() {
	// glog registers its flags on the standard flag set; cobra parses them.
	_ = goflag.CommandLine.Parse([]string{})
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if err != errFailed {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		glog.Flush()
		os.Exit(1)
	}
}
