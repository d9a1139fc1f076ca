package main

import (
	"fmt"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/gavinwade12/obdscan/protocols/canbus/socketcan"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateSocketCmd)
}

var validateSocketCmd = &cobra.Command{
	Use:          "validate-socket [device]",
	Short:        "Check that an ISO-TP socket can be opened on the CAN interface",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := busOptions(args)
		if err != nil {
			return err
		}

		bus, err := socketcan.NewBus(opts)
		if err != nil {
			return err
		}

		l := obdLogger(cmd)
		l.Debugf("opening ISO-TP socket on %s", opts.Device)
		ch, err := bus.OpenChannel(canbus.MustStandardID(0x000), canbus.MustStandardID(canbus.MaxStandardID))
		if err != nil {
			return errors.Wrapf(err, "opening ISO-TP socket on %s", opts.Device)
		}
		if err = ch.Close(); err != nil {
			return errors.Wrap(err, "closing ISO-TP socket")
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: socket opened successfully\n", opts.Device)
		}
		return nil
	},
}
