// Package config binds command-line flags, environment variables and config
// files for the lockbench commands.
package config

import (
	"runtime"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kolkov/lockbench/internal/bench/suite"
	"github.com/kolkov/lockbench/internal/device"
)

// EnvPrefix is the prefix of every environment variable read by lockbench,
// e.g. LOCKBENCH_THREADS.
const EnvPrefix = "LOCKBENCH"

// Flag names shared by several sub-commands.
const (
	FlagConfig     = "config"
	FlagThreads    = "threads"
	FlagIterations = "iterations"
	FlagStrategy   = "strategy"
	FlagTrace      = "trace"
	FlagPin        = "pin"
	FlagCount      = "count"
	FlagParallel   = "parallel"
	FlagFormat     = "format"
	FlagHistory    = "history"
	FlagAddr       = "addr"
)

// Defaults.
const (
	DefaultTrials = 100
	DefaultFormat = "text"
	DefaultAddr   = ":9090"
)

// SubCommand is a cobra command with its own viper instance.
type SubCommand struct {
	Cmd  *cobra.Command
	Conf *viper.Viper

	EnvPrefix string
}

// Bind creates sc.Conf, binds every flag of sc.Cmd to it and reads
// environment variables with sc.EnvPrefix (EnvPrefix if empty). Dashes in flag
// names become underscores: --foo-bar is LOCKBENCH_FOO_BAR.
func (sc *SubCommand) Bind() error {
	sc.Conf = viper.New()
	if err := sc.Conf.BindPFlags(sc.Cmd.Flags()); err != nil {
		return errors.Wrapf(err, "while binding flags of %s", sc.Cmd.Name())
	}
	if err := sc.Conf.BindPFlags(sc.Cmd.InheritedFlags()); err != nil {
		return errors.Wrapf(err, "while binding inherited flags of %s", sc.Cmd.Name())
	}
	prefix := sc.EnvPrefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	sc.Conf.SetEnvPrefix(prefix)
	sc.Conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	sc.Conf.AutomaticEnv()
	return nil
}

// Load reads the config file named by the --config flag, if any. Flags and
// environment variables take precedence over the file.
func (sc *SubCommand) Load() error {
	path := sc.Conf.GetString(FlagConfig)
	if path == "" {
		return nil
	}
	sc.Conf.SetConfigFile(path)
	if err := sc.Conf.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "while reading config file %s", path)
	}
	glog.Infof("Loaded config from %s", path)
	return nil
}

// AddSuiteFlags registers the run-size flags with their defaults.
func AddSuiteFlags(flags *pflag.FlagSet) {
	flags.Int(FlagThreads, suite.DefaultThreads, "Number of workers.")
	flags.Int(FlagIterations, suite.DefaultIterations, "Increments per worker.")
	flags.Bool(FlagTrace, false, "Check every counter access with the happens-before checker.")
	flags.Bool(FlagPin, false, "Pin every worker to its own OS thread and CPU (Linux).")
}

// Suite returns the suite configuration held by conf.
func Suite(conf *viper.Viper) suite.Config {
	return suite.Config{
		Threads:    conf.GetInt(FlagThreads),
		Iterations: conf.GetInt(FlagIterations),
		Parallel:   Parallel(conf),
		Trace:      conf.GetBool(FlagTrace),
		Pin:        conf.GetBool(FlagPin),
	}
}

// Parallel returns the trial parallelism, GOMAXPROCS when unset.
func Parallel(conf *viper.Viper) int {
	if p := conf.GetInt(FlagParallel); p > 0 {
		return p
	}
	return runtime.GOMAXPROCS(0)
}

// Device returns the device configuration held by conf.
func Device(conf *viper.Viper) device.Config {
	history := conf.GetInt(FlagHistory)
	if history < 1 {
		history = device.DefaultHistory
	}
	return device.Config{
		Name:    "lockbench",
		Suite:   Suite(conf),
		History: history,
	}
}
