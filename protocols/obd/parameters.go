package obd

import (
	"fmt"

	"github.com/gavinwade12/obdscan/units"
)

// Parameter describes a PID of the current data service.
type Parameter struct {
	PID  PID
	Name string
	Unit units.Unit
	// Bytes is the length of the value in a positive response.
	Bytes int
}

// Parameters is the catalogue of well-known current data PIDs.
var Parameters = map[PID]Parameter{
	0x01: {PID: 0x01, Name: "Monitor status since DTCs cleared", Unit: units.Bitfield, Bytes: 4},
	0x02: {PID: 0x02, Name: "DTC that caused freeze frame", Unit: units.Bitfield, Bytes: 2},
	0x03: {PID: 0x03, Name: "Fuel system status", Unit: units.Bitfield, Bytes: 2},
	0x04: {PID: 0x04, Name: "Calculated engine load", Unit: units.Percent, Bytes: 1},
	0x05: {PID: 0x05, Name: "Engine coolant temperature", Unit: units.C, Bytes: 1},
	0x06: {PID: 0x06, Name: "Short term fuel trim (bank 1)", Unit: units.Percent, Bytes: 1},
	0x07: {PID: 0x07, Name: "Long term fuel trim (bank 1)", Unit: units.Percent, Bytes: 1},
	0x08: {PID: 0x08, Name: "Short term fuel trim (bank 2)", Unit: units.Percent, Bytes: 1},
	0x09: {PID: 0x09, Name: "Long term fuel trim (bank 2)", Unit: units.Percent, Bytes: 1},
	0x0a: {PID: 0x0a, Name: "Fuel pressure", Unit: units.KPA, Bytes: 1},
	0x0b: {PID: 0x0b, Name: "Intake manifold absolute pressure", Unit: units.KPA, Bytes: 1},
	0x0c: {PID: 0x0c, Name: "Engine speed", Unit: units.RPM, Bytes: 2},
	0x0d: {PID: 0x0d, Name: "Vehicle speed", Unit: units.KMH, Bytes: 1},
	0x0e: {PID: 0x0e, Name: "Timing advance", Unit: units.Degrees, Bytes: 1},
	0x0f: {PID: 0x0f, Name: "Intake air temperature", Unit: units.C, Bytes: 1},
	0x10: {PID: 0x10, Name: "Mass air flow rate", Unit: units.GS, Bytes: 2},
	0x11: {PID: 0x11, Name: "Throttle position", Unit: units.Percent, Bytes: 1},
	0x12: {PID: 0x12, Name: "Commanded secondary air status", Unit: units.Bitfield, Bytes: 1},
	0x13: {PID: 0x13, Name: "Oxygen sensors present (2 banks)", Unit: units.Bitfield, Bytes: 1},
	0x1c: {PID: 0x1c, Name: "OBD standard", Unit: units.Bitfield, Bytes: 1},
	0x1d: {PID: 0x1d, Name: "Oxygen sensors present (4 banks)", Unit: units.Bitfield, Bytes: 1},
	0x1e: {PID: 0x1e, Name: "Auxiliary input status", Unit: units.Bitfield, Bytes: 1},
	0x1f: {PID: 0x1f, Name: "Run time since engine start", Unit: units.Seconds, Bytes: 2},
	0x21: {PID: 0x21, Name: "Distance traveled with MIL on", Unit: units.Kilometers, Bytes: 2},
	0x22: {PID: 0x22, Name: "Fuel rail pressure (relative to manifold vacuum)", Unit: units.KPA, Bytes: 2},
	0x23: {PID: 0x23, Name: "Fuel rail gauge pressure", Unit: units.KPA, Bytes: 2},
	0x2c: {PID: 0x2c, Name: "Commanded EGR", Unit: units.Percent, Bytes: 1},
	0x2d: {PID: 0x2d, Name: "EGR error", Unit: units.Percent, Bytes: 1},
	0x2e: {PID: 0x2e, Name: "Commanded evaporative purge", Unit: units.Percent, Bytes: 1},
	0x2f: {PID: 0x2f, Name: "Fuel tank level input", Unit: units.Percent, Bytes: 1},
	0x30: {PID: 0x30, Name: "Warm-ups since codes cleared", Unit: units.Count, Bytes: 1},
	0x31: {PID: 0x31, Name: "Distance traveled since codes cleared", Unit: units.Kilometers, Bytes: 2},
	0x32: {PID: 0x32, Name: "Evaporative system vapor pressure", Unit: units.Pa, Bytes: 2},
	0x33: {PID: 0x33, Name: "Absolute barometric pressure", Unit: units.KPA, Bytes: 1},
	0x3c: {PID: 0x3c, Name: "Catalyst temperature (bank 1, sensor 1)", Unit: units.C, Bytes: 2},
	0x3d: {PID: 0x3d, Name: "Catalyst temperature (bank 2, sensor 1)", Unit: units.C, Bytes: 2},
	0x3e: {PID: 0x3e, Name: "Catalyst temperature (bank 1, sensor 2)", Unit: units.C, Bytes: 2},
	0x3f: {PID: 0x3f, Name: "Catalyst temperature (bank 2, sensor 2)", Unit: units.C, Bytes: 2},
	0x41: {PID: 0x41, Name: "Monitor status this drive cycle", Unit: units.Bitfield, Bytes: 4},
	0x42: {PID: 0x42, Name: "Control module voltage", Unit: units.Volts, Bytes: 2},
	0x43: {PID: 0x43, Name: "Absolute load value", Unit: units.Percent, Bytes: 2},
	0x44: {PID: 0x44, Name: "Commanded air-fuel equivalence ratio", Unit: units.Lambda, Bytes: 2},
	0x45: {PID: 0x45, Name: "Relative throttle position", Unit: units.Percent, Bytes: 1},
	0x46: {PID: 0x46, Name: "Ambient air temperature", Unit: units.C, Bytes: 1},
	0x47: {PID: 0x47, Name: "Absolute throttle position B", Unit: units.Percent, Bytes: 1},
	0x48: {PID: 0x48, Name: "Absolute throttle position C", Unit: units.Percent, Bytes: 1},
	0x49: {PID: 0x49, Name: "Accelerator pedal position D", Unit: units.Percent, Bytes: 1},
	0x4a: {PID: 0x4a, Name: "Accelerator pedal position E", Unit: units.Percent, Bytes: 1},
	0x4b: {PID: 0x4b, Name: "Accelerator pedal position F", Unit: units.Percent, Bytes: 1},
	0x4c: {PID: 0x4c, Name: "Commanded throttle actuator", Unit: units.Percent, Bytes: 1},
	0x4d: {PID: 0x4d, Name: "Time run with MIL on", Unit: units.Minutes, Bytes: 2},
	0x4e: {PID: 0x4e, Name: "Time since trouble codes cleared", Unit: units.Minutes, Bytes: 2},
	0x51: {PID: 0x51, Name: "Fuel type", Unit: units.Bitfield, Bytes: 1},
	0x52: {PID: 0x52, Name: "Ethanol fuel percentage", Unit: units.Percent, Bytes: 1},
	0x59: {PID: 0x59, Name: "Fuel rail absolute pressure", Unit: units.KPA, Bytes: 2},
	0x5a: {PID: 0x5a, Name: "Relative accelerator pedal position", Unit: units.Percent, Bytes: 1},
	0x5b: {PID: 0x5b, Name: "Hybrid battery pack remaining life", Unit: units.Percent, Bytes: 1},
	0x5c: {PID: 0x5c, Name: "Engine oil temperature", Unit: units.C, Bytes: 1},
	0x5d: {PID: 0x5d, Name: "Fuel injection timing", Unit: units.Degrees, Bytes: 2},
	0x5e: {PID: 0x5e, Name: "Engine fuel rate", Unit: units.LitersPerHour, Bytes: 2},
	0x5f: {PID: 0x5f, Name: "Emission requirements", Unit: units.Bitfield, Bytes: 1},
	0x61: {PID: 0x61, Name: "Driver's demand engine torque", Unit: units.Percent, Bytes: 1},
	0x62: {PID: 0x62, Name: "Actual engine torque", Unit: units.Percent, Bytes: 1},
	0x63: {PID: 0x63, Name: "Engine reference torque", Unit: units.Nm, Bytes: 2},
	0xa6: {PID: 0xa6, Name: "Odometer", Unit: units.Kilometers, Bytes: 4},
}

func init() {
	// oxygen sensors 1-8 repeat across three PID ranges
	for i := 0; i < 8; i++ {
		add := func(p PID, name string, u units.Unit, n int) {
			Parameters[p] = Parameter{PID: p, Name: fmt.Sprintf(name, i+1), Unit: u, Bytes: n}
		}
		add(PID(0x14+i), "Oxygen sensor %d voltage", units.Volts, 2)
		add(PID(0x24+i), "Oxygen sensor %d air-fuel ratio (voltage)", units.Lambda, 4)
		add(PID(0x34+i), "Oxygen sensor %d air-fuel ratio (current)", units.Milliamps, 4)
	}

	// every 32nd PID reports availability of the next group
	for off := 0; off <= int(lastPIDGroup); off += pidGroupSize {
		p := PID(off)
		Parameters[p] = Parameter{
			PID:   p,
			Name:  fmt.Sprintf("PIDs supported [%02X-%02X]", off+1, off+pidGroupSize),
			Unit:  units.Bitfield,
			Bytes: 4,
		}
	}
}
