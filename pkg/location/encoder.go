package location

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/adrianmo/go-nmea"
)

// Report is the JSON wire shape. Only latitude and longitude are required by the decoder;
// the remaining fields are informational.
type Report struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Altitude  float64    `json:"altitude"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Accuracy  *float64   `json:"accuracy,omitempty"`
	Speed     *float64   `json:"speed,omitempty"`
	Heading   *float64   `json:"heading,omitempty"`
}

// Encode renders fix in the given wire format.
func Encode(f Fix, format Format, at time.Time) ([]byte, error) {
	switch format {
	case FormatJSON:
		return EncodeJSON(Report{Latitude: f.latitude, Longitude: f.longitude, Altitude: f.altitude})
	case FormatCSV:
		return EncodeCSV(f), nil
	case FormatNMEA:
		return EncodeNMEA(f, at), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// EncodeJSON renders a report as a JSON object.
func EncodeJSON(r Report) ([]byte, error) {
	return json.Marshal(r)
}

// EncodeCSV renders "lat,lon,alt" with full float precision.
func EncodeCSV(f Fix) []byte {
	return []byte(formatFloat(f.latitude) + "," + formatFloat(f.longitude) + "," + formatFloat(f.altitude))
}

// EncodeNMEA renders a $GPGGA sentence with a valid checksum.
func EncodeNMEA(f Fix, at time.Time) []byte {
	latHemi, lonHemi := "N", "E"
	if f.latitude < 0 {
		latHemi = "S"
	}
	if f.longitude < 0 {
		lonHemi = "W"
	}

	body := fmt.Sprintf("GPGGA,%s,%s,%s,%s,%s,1,08,1.0,%s,M,0.0,M,,",
		at.UTC().Format("150405.00"),
		toDegreesMinutes(f.latitude, 2), latHemi,
		toDegreesMinutes(f.longitude, 3), lonHemi,
		formatFloat(f.altitude),
	)
	return []byte("$" + body + "*" + nmea.Checksum(body))
}

func toDegreesMinutes(v float64, degreeDigits int) string {
	abs := math.Abs(v)
	deg := math.Floor(abs)
	minutes := (abs - deg) * 60
	return fmt.Sprintf("%0*d%09.6f", degreeDigits, int(deg), minutes)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
