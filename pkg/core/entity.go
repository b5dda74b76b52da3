// pkg/core/entity.go
package core

// CoordMode tells which coordinate frame a Point is expressed in.
type CoordMode uint8

const (
	// ModeNone means the entity has not reported a position yet.
	ModeNone CoordMode = iota
	// ModePlanar is the flat-earth U/V frame in metres.
	ModePlanar
	// ModeGeodetic is longitude/latitude in degrees.
	ModeGeodetic
)

func (m CoordMode) String() string {
	switch m {
	case ModePlanar:
		return "uv"
	case ModeGeodetic:
		return "ll"
	default:
		return "none"
	}
}

// Point is a 2-D position. X/Y hold U/V for planar points and
// Longitude/Latitude for geodetic ones.
type Point struct {
	Mode CoordMode
	X    float64
	Y    float64
}

// Valid reports whether the point carries a position.
func (p Point) Valid() bool {
	return p.Mode != ModeNone
}

// Planar builds a U/V point.
func Planar(u, v float64) Point {
	return Point{Mode: ModePlanar, X: u, Y: v}
}

// Geodetic builds a longitude/latitude point.
func Geodetic(lon, lat float64) Point {
	return Point{Mode: ModeGeodetic, X: lon, Y: lat}
}

// Transform is the latest kinematic state reported for an entity.
// Altitude is metres, Heading is degrees true. Nil means never reported.
type Transform struct {
	Position Point
	Altitude *float64
	Heading  *float64
}

// Entity is one tracked telemetry object.
type Entity struct {
	ID        string
	Type      string
	Coalition string
	Color     string
	Name      string
	Callsign  string
	Pilot     string
	Group     string
	Unit      string
	Props     map[string]string
	Transform Transform
}

// Clone returns a copy that shares nothing mutable with e.
func (e Entity) Clone() Entity {
	out := e
	if e.Props != nil {
		out.Props = make(map[string]string, len(e.Props))
		for k, v := range e.Props {
			out.Props[k] = v
		}
	}
	if e.Transform.Altitude != nil {
		alt := *e.Transform.Altitude
		out.Transform.Altitude = &alt
	}
	if e.Transform.Heading != nil {
		hdg := *e.Transform.Heading
		out.Transform.Heading = &hdg
	}
	return out
}

// Float returns a pointer to v, for optional transform fields.
func Float(v float64) *float64 {
	return &v
}
