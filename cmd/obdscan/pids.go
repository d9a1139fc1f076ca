package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/gavinwade12/obdscan/protocols/canbus/socketcan"
	"github.com/gavinwade12/obdscan/protocols/obd"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var extended bool
var demo bool
var listenWindow time.Duration
var outputFormat string

func init() {
	flags := queryAvailablePIDsCmd.Flags()
	flags.BoolVar(&extended, "extended", false, "use 29-bit addressing")
	flags.BoolVar(&demo, "demo", false, "query simulated ECUs instead of a CAN interface")
	flags.DurationVar(&listenWindow, "listen-window", obd.DefaultListenWindow, "how long to wait for ECUs to answer the broadcast")
	flags.StringVar(&outputFormat, "format", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(queryAvailablePIDsCmd)
}

var queryAvailablePIDsCmd = &cobra.Command{
	Use:          "query-available-pids [device]",
	Short:        "Discover the ECUs on the bus and list the PIDs each of them supports",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := reportWriter(outputFormat); err != nil {
			return err
		}

		addressing := obd.Standard
		if extended {
			addressing = obd.Extended
		}

		var bus canbus.Bus
		if demo {
			bus = obd.NewFakeBus(addressing, obd.DemoECUs(addressing)...)
		} else {
			opts, err := busOptions(args)
			if err != nil {
				return err
			}
			sb, err := socketcan.NewBus(opts)
			if err != nil {
				return err
			}
			bus = sb
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "listening for %s ECUs for %s...\n", addressing, listenWindow)
		}
		return queryAvailablePIDs(ctx, cmd.OutOrStdout(), bus, addressing, obdLogger(cmd))
	},
}

func queryAvailablePIDs(ctx context.Context, w io.Writer, bus canbus.Bus, addressing obd.Addressing, l obd.Logger) error {
	d := obd.NewDiscoverer(bus, addressing,
		obd.WithListenWindow(listenWindow),
		obd.WithPadding(padding, padByte),
		obd.WithLogger(l),
	)

	result, err := d.QueryAvailablePIDs(ctx)
	if err != nil {
		return errors.Wrap(err, "querying available PIDs")
	}

	write, err := reportWriter(outputFormat)
	if err != nil {
		return err
	}
	return write(w, result)
}
