package location

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNoMatch is returned when a payload matches none of the supported formats.
var ErrNoMatch = errors.New("no supported GPS format matched")

const nmeaGGAPrefix = "$GPGGA"

// minGGAFields is the number of comma-separated fields a GGA sentence must carry.
const minGGAFields = 15

type parseFunc func(data []byte) (lat, lon, alt float64, ok bool)

type formatParser struct {
	format Format
	parse  parseFunc
}

// FormatDecoder decodes JSON, CSV and NMEA GGA payloads, in that order of priority.
// It holds no state and is safe for concurrent use.
type FormatDecoder struct {
	parsers []formatParser
}

// NewFormatDecoder creates a decoder for all supported formats.
func NewFormatDecoder() *FormatDecoder {
	return &FormatDecoder{
		parsers: []formatParser{
			{format: FormatJSON, parse: parseJSON},
			{format: FormatCSV, parse: parseCSV},
			{format: FormatNMEA, parse: parseNMEA},
		},
	}
}

// Decode tries each format in priority order and returns the first candidate
// that also passes range validation. A format whose candidate is out of range
// does not stop the search; the remaining formats are still tried on the same bytes.
func (d *FormatDecoder) Decode(data []byte) (Fix, Format, error) {
	for _, p := range d.parsers {
		lat, lon, alt, ok := p.parse(data)
		if !ok {
			continue
		}
		fix, err := NewFix(lat, lon, alt)
		if err != nil {
			continue
		}
		return fix, p.format, nil
	}
	return Fix{}, "", ErrNoMatch
}

// Decode decodes data with a default FormatDecoder.
func Decode(data []byte) (Fix, Format, error) {
	return defaultDecoder.Decode(data)
}

var defaultDecoder = NewFormatDecoder()

// parseJSON accepts a top-level object carrying latitude and longitude keys.
// Values that are present but not numbers read as 0. A number that does not
// fit in a float64 fails the format.
func parseJSON(data []byte) (float64, float64, float64, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return 0, 0, 0, false
	}

	rawLat, hasLat := obj["latitude"]
	rawLon, hasLon := obj["longitude"]
	if !hasLat || !hasLon {
		return 0, 0, 0, false
	}

	lat, ok := jsonNumber(rawLat)
	if !ok {
		return 0, 0, 0, false
	}
	lon, ok := jsonNumber(rawLon)
	if !ok {
		return 0, 0, 0, false
	}

	alt := 0.0
	if rawAlt, present := obj["altitude"]; present {
		if alt, ok = jsonNumber(rawAlt); !ok {
			return 0, 0, 0, false
		}
	}
	return lat, lon, alt, true
}

// jsonNumber reads a JSON value as a float. Non-number values read as 0;
// ok is false only for a number token that overflows float64.
func jsonNumber(raw json.RawMessage) (v float64, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, true
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseCSV accepts "lat,lon[,alt]". Every field used must be a valid number.
func parseCSV(data []byte) (float64, float64, float64, bool) {
	parts := strings.Split(strings.TrimSpace(string(data)), ",")
	if len(parts) < 2 {
		return 0, 0, 0, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, 0, false
	}

	alt := 0.0
	if len(parts) >= 3 {
		alt, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return 0, 0, 0, false
		}
	}
	return lat, lon, alt, true
}

// parseNMEA accepts a $GPGGA sentence. The checksum is not verified and
// numeric sub-fields that do not parse read as 0.
func parseNMEA(data []byte) (float64, float64, float64, bool) {
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, nmeaGGAPrefix) {
		return 0, 0, 0, false
	}

	fields := strings.Split(line, ",")
	if len(fields) < minGGAFields {
		return 0, 0, 0, false
	}

	if fields[2] == "" || fields[3] == "" {
		return 0, 0, 0, false
	}
	lat := degreesMinutes(fields[2], 2)
	if fields[3] == "S" {
		lat = -lat
	}

	if fields[4] == "" || fields[5] == "" {
		return 0, 0, 0, false
	}
	lon := degreesMinutes(fields[4], 3)
	if fields[5] == "W" {
		lon = -lon
	}

	alt := 0.0
	if fields[9] != "" {
		alt = lenientFloat(fields[9])
	}
	return lat, lon, alt, true
}

// degreesMinutes converts a DDMM.MMMM (or DDDMM.MMMM) string to decimal degrees,
// taking the first degreeDigits characters as whole degrees.
func degreesMinutes(s string, degreeDigits int) float64 {
	if len(s) <= degreeDigits {
		return lenientFloat(s)
	}
	return lenientFloat(s[:degreeDigits]) + lenientFloat(s[degreeDigits:])/60.0
}

// lenientFloat reads unparsable text as 0. Overflow keeps the ±Inf from
// ParseFloat so range validation rejects it.
func lenientFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return v
}
