package socketcan

import (
	"net"
	"strings"

	"github.com/pkg/errors"
)

// Device describes a CAN network interface on the host.
type Device struct {
	Name  string
	Index int
	MTU   int
	Up    bool
}

// FD reports whether the interface is configured for CAN FD frames.
func (d Device) FD() bool {
	return d.MTU > 16
}

// Devices lists the CAN interfaces on the host (can0, vcan0, slcan0...).
func Devices() ([]Device, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "listing network interfaces")
	}

	var devices []Device
	for _, i := range ifaces {
		if !strings.Contains(i.Name, "can") {
			continue
		}
		devices = append(devices, Device{
			Name:  i.Name,
			Index: i.Index,
			MTU:   i.MTU,
			Up:    i.Flags&net.FlagUp != 0,
		})
	}
	return devices, nil
}
