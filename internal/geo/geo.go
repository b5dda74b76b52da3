package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/OpenRadar/awacs/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// GEO POINTS
// Planar (U/V) points are used as-is. Geodetic points are projected to
// EPSG:3857 and the Mercator scale factor is removed with cos(latitude), which
// is accurate enough for the tens-of-miles distances a controller talks about.

const (
	MetersPerNM  = 1852.0
	FeetPerMeter = 3.280839895
	KnotsPerMPS  = 1.943844492
)

// ErrInvalidCoordinates is returned when a point carries no position
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrModeMismatch is returned when two points are in different coordinate frames
var ErrModeMismatch = errors.New("points are in different coordinate modes")

var (
	toMercator   = wgs84.EPSG().Transform(4326, 3857)
	fromMercator = wgs84.EPSG().Transform(3857, 4326)
)

// Coords3857From4326 creates a web-mercator point from a longitude and latitude
func Coords3857From4326(
	longitude float64,
	latitude float64,
) (
	point geom.Point,
	err error,
) {
	if math.Abs(latitude) >= 90 || math.IsNaN(longitude) || math.IsNaN(latitude) {
		return geom.NewEmptyPoint(geom.DimXY), ErrInvalidCoordinates
	}
	x, y, _ := toMercator(longitude, latitude, 0)
	point, err = geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
		},
	)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY), fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return point, nil
}

// Delta returns the east/north displacement in metres from origin to target.
func Delta(origin, target core.Point) (geom.XY, error) {
	if !origin.Valid() || !target.Valid() {
		return geom.XY{}, ErrInvalidCoordinates
	}
	if origin.Mode != target.Mode {
		return geom.XY{}, ErrModeMismatch
	}
	if origin.Mode == core.ModePlanar {
		return geom.XY{X: target.X - origin.X, Y: target.Y - origin.Y}, nil
	}

	a, err := Coords3857From4326(origin.X, origin.Y)
	if err != nil {
		return geom.XY{}, err
	}
	b, err := Coords3857From4326(target.X, target.Y)
	if err != nil {
		return geom.XY{}, err
	}
	ac, _ := a.Coordinates()
	bc, _ := b.Coordinates()
	scale := groundScale((origin.Y + target.Y) / 2)
	return bc.XY.Sub(ac.XY).Scale(scale), nil
}

// Distance returns the planar distance in metres between two points.
func Distance(a, b core.Point) (float64, error) {
	d, err := Delta(a, b)
	if err != nil {
		return 0, err
	}
	return math.Hypot(d.X, d.Y), nil
}

// BearingRange returns the bearing in whole degrees [0,360) clockwise from
// north and the range in nautical miles from origin to target.
func BearingRange(origin, target core.Point) (int, float64, error) {
	d, err := Delta(origin, target)
	if err != nil {
		return 0, 0, err
	}
	brg, rng := BearingRangeXY(d)
	return brg, rng, nil
}

// BearingRangeXY is BearingRange for a displacement already in metres.
func BearingRangeXY(d geom.XY) (int, float64) {
	ang := math.Atan2(d.X, d.Y) * 180 / math.Pi
	ang = math.Mod(ang+360, 360)
	brg := int(math.RoundToEven(ang)) % 360
	return brg, math.Hypot(d.X, d.Y) / MetersPerNM
}

// Project returns the point bearing/rangeNM away from origin, in origin's frame.
func Project(origin core.Point, bearing, rangeNM float64) (core.Point, error) {
	if !origin.Valid() {
		return core.Point{}, ErrInvalidCoordinates
	}
	r := bearing * math.Pi / 180
	d := geom.XY{
		X: math.Sin(r) * rangeNM * MetersPerNM,
		Y: math.Cos(r) * rangeNM * MetersPerNM,
	}
	if origin.Mode == core.ModePlanar {
		return core.Planar(origin.X+d.X, origin.Y+d.Y), nil
	}

	o, err := Coords3857From4326(origin.X, origin.Y)
	if err != nil {
		return core.Point{}, err
	}
	oc, _ := o.Coordinates()
	m := oc.XY.Add(d.Scale(1 / groundScale(origin.Y)))
	lon, lat, _ := fromMercator(m.X, m.Y, 0)
	return core.Geodetic(lon, lat), nil
}

// Centroid returns the arithmetic mean of points sharing one frame.
func Centroid(points []core.Point) (core.Point, error) {
	if len(points) == 0 {
		return core.Point{}, ErrInvalidCoordinates
	}
	mode := points[0].Mode
	var sum geom.XY
	for _, p := range points {
		if p.Mode != mode {
			return core.Point{}, ErrModeMismatch
		}
		sum = sum.Add(geom.XY{X: p.X, Y: p.Y})
	}
	mean := sum.Scale(1 / float64(len(points)))
	return core.Point{Mode: mode, X: mean.X, Y: mean.Y}, nil
}

// groundScale converts web-mercator metres to ground metres at latitude.
func groundScale(latitude float64) float64 {
	return math.Max(0.01, math.Abs(math.Cos(latitude*math.Pi/180)))
}
