package model

import (
	"fmt"
	"strings"
)

// Unit is serialised as its integer code because the receiving store indexes
// measurements by code. Codes must never be renumbered.
type Unit int

const (
	UnitNone Unit = iota
	UnitCelsius
	UnitFahrenheit
	UnitKelvin
	UnitPercent
	UnitBar
	UnitPascal
	UnitVolt
	UnitAmpere
	UnitWatt
	UnitKilowatt
	UnitKilowattHour
	UnitHertz
	UnitRPM
	UnitMeter
	UnitMillimeter
	UnitMeterPerSecond
	UnitLiter
	UnitLiterPerMinute
	UnitKilogram
	UnitSecond
	UnitCount
)

var unitNames = map[Unit]string{
	UnitNone:           "none",
	UnitCelsius:        "celsius",
	UnitFahrenheit:     "fahrenheit",
	UnitKelvin:         "kelvin",
	UnitPercent:        "percent",
	UnitBar:            "bar",
	UnitPascal:         "pascal",
	UnitVolt:           "volt",
	UnitAmpere:         "ampere",
	UnitWatt:           "watt",
	UnitKilowatt:       "kilowatt",
	UnitKilowattHour:   "kilowatt_hour",
	UnitHertz:          "hertz",
	UnitRPM:            "rpm",
	UnitMeter:          "meter",
	UnitMillimeter:     "millimeter",
	UnitMeterPerSecond: "meter_per_second",
	UnitLiter:          "liter",
	UnitLiterPerMinute: "liter_per_minute",
	UnitKilogram:       "kilogram",
	UnitSecond:         "second",
	UnitCount:          "count",
}

func (u Unit) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// Valid reports whether u is one of the known unit codes.
func (u Unit) Valid() bool {
	_, ok := unitNames[u]
	return ok
}

// ParseUnit resolves a symbolic unit name as used in config files. An empty
// name maps to UnitNone.
func ParseUnit(name string) (Unit, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return UnitNone, nil
	}
	for u, n := range unitNames {
		if n == name {
			return u, nil
		}
	}
	return UnitNone, fmt.Errorf("unknown unit %q", name)
}
