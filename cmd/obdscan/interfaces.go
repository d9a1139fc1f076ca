package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gavinwade12/obdscan/protocols/canbus/socketcan"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	interfacesCmd.AddCommand(listInterfacesCmd)
	interfacesCmd.AddCommand(selectInterfaceCmd)

	rootCmd.AddCommand(interfacesCmd)
}

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "Manage the CAN interface",
}

var listInterfacesCmd = &cobra.Command{
	Use:   "list",
	Short: "List the CAN interfaces on the host",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := socketcan.Devices()
		if err != nil {
			return err
		}

		listInterfaces(cmd.OutOrStdout(), devices)
		return nil
	},
}

func listInterfaces(w io.Writer, devices []socketcan.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "no CAN interfaces found")
		return
	}
	for i, d := range devices {
		fmt.Fprintf(w, "[%d]:\tName: '%s'\n\tIndex: %d\n\tUp: %v\n\tCAN FD: %v\n\tSelected: %v\n",
			i, d.Name, d.Index, d.Up, d.FD(), d.Name == device)
	}
}

var selectInterfaceCmd = &cobra.Command{
	Use:          "set",
	Short:        "Set the CAN interface to use in the config file",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := socketcan.Devices()
		if err != nil {
			return err
		}
		listInterfaces(cmd.OutOrStdout(), devices)
		if len(devices) == 0 {
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), "Interface (index): ")

		d, err := selectDevice(cmd.InOrStdin(), devices)
		if err != nil {
			return err
		}

		viper.Set(deviceSettingName, d.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "Selected '%s'\n", d.Name)

		return viper.WriteConfig()
	},
}

func selectDevice(r io.Reader, devices []socketcan.Device) (socketcan.Device, error) {
	input, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return socketcan.Device{}, err
	}

	i, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return socketcan.Device{}, errors.Wrap(err, "parsing input as integer")
	}

	if i < 0 || i >= len(devices) {
		return socketcan.Device{}, errors.New("invalid selection")
	}
	return devices[i], nil
}
