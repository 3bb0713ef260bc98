package simulator

import (
	"math"
	"time"
)

// Default starting position, New York City.
const (
	DefaultBaseLatitude  = 40.7128
	DefaultBaseLongitude = -74.0060
	DefaultBaseAltitude  = 10.0
)

// GPSSimulator produces a stream of positions around a base point, either
// moving on a circle or jittering in place.
type GPSSimulator struct {
	BaseLatitude  float64
	BaseLongitude float64
	BaseAltitude  float64
	Radius        float64 // circle radius in degrees
	Speed         float64 // radians per step

	step int
}

// NewGPSSimulator creates a simulator at the default base position.
func NewGPSSimulator() *GPSSimulator {
	return &GPSSimulator{
		BaseLatitude:  DefaultBaseLatitude,
		BaseLongitude: DefaultBaseLongitude,
		BaseAltitude:  DefaultBaseAltitude,
		Radius:        0.01,
		Speed:         0.1,
	}
}

// Position returns the next position. With moving set the point advances one
// step along the circle, altitude oscillating by 5 m; otherwise it varies with
// the wall clock by up to 0.0005 degrees and 2.5 m.
func (g *GPSSimulator) Position(moving bool, now time.Time) (lat, lon, alt float64) {
	if moving {
		angle := float64(g.step) * g.Speed
		g.step++
		return g.BaseLatitude + g.Radius*math.Sin(angle),
			g.BaseLongitude + g.Radius*math.Cos(angle),
			g.BaseAltitude + 5*math.Sin(angle*2)
	}

	phase := math.Mod(float64(now.UnixNano())/float64(time.Second), 10) - 5
	return g.BaseLatitude + phase*0.0001,
		g.BaseLongitude + phase*0.0001,
		g.BaseAltitude + phase*0.5
}
