package geo

import (
	"math"
	"testing"

	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearingRange_Cardinals(t *testing.T) {
	origin := core.Planar(0, 0)
	nm := MetersPerNM

	tests := []struct {
		name    string
		target  core.Point
		bearing int
		rangeNM float64
	}{
		{"north", core.Planar(0, 10*nm), 0, 10},
		{"east", core.Planar(20*nm, 0), 90, 20},
		{"south", core.Planar(0, -5*nm), 180, 5},
		{"west", core.Planar(-1*nm, 0), 270, 1},
		{"northeast", core.Planar(nm, nm), 45, math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			brg, rng, err := BearingRange(origin, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.bearing, brg)
			assert.InDelta(t, tt.rangeNM, rng, 1e-9)
		})
	}
}

func TestBearingRange_NeverReturns360(t *testing.T) {
	// 359.7 degrees rounds to 360 and must wrap to 0
	brg, _, err := BearingRange(core.Planar(0, 0), core.Planar(-0.005, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, brg)
}

func TestBearingRange_Errors(t *testing.T) {
	_, _, err := BearingRange(core.Planar(0, 0), core.Geodetic(40, 40))
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, _, err = BearingRange(core.Point{}, core.Planar(1, 1))
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestProject_ReconstructsPoint(t *testing.T) {
	origins := []core.Point{core.Planar(0, 0), core.Planar(-12000, 5400), core.Planar(1e6, -3e5)}
	targets := []core.Point{core.Planar(37040, 0), core.Planar(-5000, -70000), core.Planar(123456, 654321)}

	for _, o := range origins {
		for _, tgt := range targets {
			d, err := Delta(o, tgt)
			require.NoError(t, err)
			ang := math.Atan2(d.X, d.Y) * 180 / math.Pi
			rng := math.Hypot(d.X, d.Y) / MetersPerNM

			p, err := Project(o, ang, rng)
			require.NoError(t, err)
			assert.InDelta(t, tgt.X, p.X, 1e-6)
			assert.InDelta(t, tgt.Y, p.Y, 1e-6)
		}
	}
}

func TestProject_Geodetic(t *testing.T) {
	origin := core.Geodetic(41.0, 42.0)
	p, err := Project(origin, 90, 20)
	require.NoError(t, err)
	assert.Equal(t, core.ModeGeodetic, p.Mode)

	brg, rng, err := BearingRange(origin, p)
	require.NoError(t, err)
	assert.Equal(t, 90, brg)
	assert.InDelta(t, 20, rng, 0.1)
}

func TestDistance_GeodeticOneMinuteOfLatitude(t *testing.T) {
	// one minute of latitude is about one nautical mile
	d, err := Distance(core.Geodetic(41, 42), core.Geodetic(41, 42+1.0/60))
	require.NoError(t, err)
	assert.InDelta(t, MetersPerNM, d, 25)
}

func TestCoords3857From4326(t *testing.T) {
	point, err := Coords3857From4326(0, 0)
	require.NoError(t, err)
	coords, ok := point.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 0, coords.X, 1e-6)
	assert.InDelta(t, 0, coords.Y, 1e-6)

	_, err = Coords3857From4326(10, 95)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	empty, err := Coords3857From4326(math.Inf(1), 10)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	assert.True(t, empty.IsEmpty())
}

func TestCentroid(t *testing.T) {
	c, err := Centroid([]core.Point{core.Planar(0, 0), core.Planar(10, 20), core.Planar(20, 40)})
	require.NoError(t, err)
	assert.Equal(t, core.Planar(10, 20), c)

	_, err = Centroid([]core.Point{core.Planar(0, 0), core.Geodetic(1, 1)})
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, err = Centroid(nil)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}
