package geo

import "math"

// Aspect thresholds in degrees
const (
	hotMax  = 45.0
	beamMin = 70.0
	beamMax = 110.0
	coldMin = 135.0
)

// CompassPoint is one of the eight cardinal/ordinal directions.
type CompassPoint int

const (
	North CompassPoint = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

func (c CompassPoint) String() string {
	switch c {
	case North:
		return "north"
	case NorthEast:
		return "northeast"
	case East:
		return "east"
	case SouthEast:
		return "southeast"
	case South:
		return "south"
	case SouthWest:
		return "southwest"
	case West:
		return "west"
	case NorthWest:
		return "northwest"
	default:
		return ""
	}
}

// NormalizeHeading wraps h into [0,360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// HeadingDifference returns the absolute difference between two headings,
// wrapped to [0,180].
func HeadingDifference(a, b float64) float64 {
	d := math.Abs(NormalizeHeading(a) - NormalizeHeading(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Compass returns the 8-point direction a heading points toward.
func Compass(h float64) CompassPoint {
	return CompassPoint(int(math.Floor((NormalizeHeading(h)+22.5)/45)) % 8)
}

// Aspect describes a target's heading relative to the line of sight from the
// observer. bearing is measured from the observer to the target, so a target
// pointed straight back down that line is HOT.
func Aspect(heading, bearing *float64) string {
	if heading == nil || bearing == nil {
		return "UNK"
	}
	diff := HeadingDifference(*heading, *bearing+180)
	switch {
	case diff >= beamMin && diff <= beamMax:
		return "beam " + Compass(*heading).String()
	case diff < hotMax:
		return "HOT"
	case diff > coldMin:
		return "COLD"
	default:
		return "flank " + Compass(*heading).String()
	}
}
