package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/kolkov/lockbench/internal/config"
	"github.com/kolkov/lockbench/internal/device"
)

func newDeviceCmd() *config.SubCommand {
	sc := &config.SubCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "device [message]",
		Short: "Open the simulated device and print its report",
		Long: `device opens the simulated benchmark device, which runs the reference suite,
and copies what a read of the device returns to stdout. An optional message
(at most 255 bytes) is written to the device and echoed to the log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := prepare(sc); err != nil {
				return err
			}
			dev := device.New(config.Device(sc.Conf))
			defer dev.Close()

			h, err := dev.Open()
			if err != nil {
				return err
			}
			defer h.Release()
			if len(args) == 1 {
				if _, err := h.Write([]byte(args[0])); err != nil {
					return err
				}
			}
			if _, err := io.Copy(cmd.OutOrStdout(), h); err != nil {
				return err
			}
			if rep := dev.Latest(); rep == nil || !rep.Passed {
				return errFailed
			}
			return nil
		},
	}
	config.AddSuiteFlags(sc.Cmd.Flags())
	return sc
}
