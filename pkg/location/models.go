package location

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a candidate fix falls outside the valid coordinate ranges.
var ErrOutOfRange = errors.New("coordinates out of range")

// Fix is a validated geographic position. The zero value is the point 0,0,0.
type Fix struct {
	latitude  float64
	longitude float64
	altitude  float64
}

// NewFix validates the coordinates and returns a Fix. Latitude must be in [-90, 90],
// longitude in [-180, 180] and altitude must be finite.
func NewFix(latitude, longitude, altitude float64) (Fix, error) {
	if !(latitude >= -90 && latitude <= 90) || !(longitude >= -180 && longitude <= 180) {
		return Fix{}, fmt.Errorf("%w: lat=%v lon=%v", ErrOutOfRange, latitude, longitude)
	}
	if math.IsNaN(altitude) || math.IsInf(altitude, 0) {
		return Fix{}, fmt.Errorf("%w: alt=%v", ErrOutOfRange, altitude)
	}
	return Fix{latitude: latitude, longitude: longitude, altitude: altitude}, nil
}

// Latitude returns the latitude in decimal degrees.
func (f Fix) Latitude() float64 { return f.latitude }

// Longitude returns the longitude in decimal degrees.
func (f Fix) Longitude() float64 { return f.longitude }

// Altitude returns the altitude in meters.
func (f Fix) Altitude() float64 { return f.altitude }

func (f Fix) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.2fm", f.latitude, f.longitude, f.altitude)
}

// Format identifies the wire format a datagram was decoded from.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatNMEA Format = "nmea"
)

// Formats lists the supported formats in decoding priority order.
var Formats = []Format{FormatJSON, FormatCSV, FormatNMEA}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", name)
}
