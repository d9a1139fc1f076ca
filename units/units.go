package units

// Unit describes the unit a parameter's value is reported in.
type Unit string

// The valid units.
const (
	// Velocity
	KMH Unit = "km/h"

	// Distance
	Kilometers Unit = "km"

	// Rotational Speed
	RPM Unit = "rpm"

	// Timing
	Degrees Unit = "degrees"

	// Temperature
	C Unit = "C"

	// Pressure
	Pa  Unit = "Pa"
	KPA Unit = "kPa"

	// Airflow
	GS Unit = "g/s"

	// Fueling
	Lambda        Unit = "Lambda"
	LitersPerHour Unit = "l/h"

	// Electricity
	Volts     Unit = "V"
	Milliamps Unit = "mA"

	// Time
	Seconds Unit = "s"
	Minutes Unit = "min"

	// Misc
	Percent Unit = "%"
	Count   Unit = "count"
	Nm      Unit = "Nm"
	// Bitfield marks values that encode flags or enumerations rather than a quantity.
	Bitfield Unit = "bitfield"
)
