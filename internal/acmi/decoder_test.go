package acmi

import (
	"testing"

	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, d *Decoder, line string) core.TelemetryEvent {
	t.Helper()
	ev, ok, err := d.Decode(line)
	require.NoError(t, err)
	require.True(t, ok, "expected an event for %q", line)
	return ev
}

func TestDecode_Headers(t *testing.T) {
	d := NewDecoder()
	for _, line := range []string{
		"\ufeffFileType=text/acmi/tacview",
		"FileVersion=2.2",
		"",
		"   ",
		"// comment",
	} {
		_, ok, err := d.Decode(line)
		require.NoError(t, err, line)
		assert.False(t, ok, line)
	}
}

func TestDecode_Time(t *testing.T) {
	d := NewDecoder()
	ev := decode(t, d, "#12.50\r")
	assert.Equal(t, core.EventTime, ev.Kind)
	assert.Equal(t, 12.5, ev.Time)

	_, _, err := d.Decode("#abc")
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestDecode_GlobalAndReference(t *testing.T) {
	d := NewDecoder()
	ev := decode(t, d, "0,ReferenceTime=2024-01-01T00:00:00Z,ReferenceLongitude=126,ReferenceLatitude=37")
	assert.Equal(t, core.EventGlobal, ev.Kind)
	assert.Equal(t, "126", ev.Props["ReferenceLongitude"])

	ev = decode(t, d, "0,Title=Red Flag")
	assert.Equal(t, "Red Flag", ev.Props["Title"])
	assert.Equal(t, "2024-01-01T00:00:00Z", ev.Props["ReferenceTime"], "global bag accumulates")

	ev = decode(t, d, "a1,T=0.5|0.25|1000,Type=Air+FixedWing,Name=F-16C")
	require.NotNil(t, ev.Entity)
	assert.Equal(t, core.Geodetic(126.5, 37.25), ev.Entity.Transform.Position)

	_, _, err := d.Decode("0,ReferenceLongitude=east")
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestDecode_UpdateLayouts(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		pos     core.Point
		alt     *float64
		heading *float64
	}{
		{"three fields", "a1,T=1|2|3000", core.Geodetic(1, 2), core.Float(3000), nil},
		{"five fields", "a1,T=1|2|3000|5000|-6000", core.Planar(5000, -6000), core.Float(3000), nil},
		{"six fields", "a1,T=1|2|3000|0|5|270", core.Geodetic(1, 2), core.Float(3000), core.Float(270)},
		{"nine fields", "a1,T=1|2|3000|0|5|270|100|200|265", core.Planar(100, 200), core.Float(3000), core.Float(265)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := decode(t, NewDecoder(), tt.line)
			assert.Equal(t, core.EventUpdate, ev.Kind)
			require.NotNil(t, ev.Entity)
			tr := ev.Entity.Transform
			assert.Equal(t, tt.pos, tr.Position)
			assert.Equal(t, tt.alt, tr.Altitude)
			assert.Equal(t, tt.heading, tr.Heading)
		})
	}
}

func TestDecode_IncrementalUpdates(t *testing.T) {
	d := NewDecoder()
	decode(t, d, "b2,T=1|2|3000|0|0|90|100|200|90,Type=Air+FixedWing,Coalition=Enemies,Color=Red,Name=Su-27,Pilot=Ivan")

	ev := decode(t, d, "b2,T=||2500||||150||")
	e := ev.Entity
	require.NotNil(t, e)
	assert.Equal(t, "Su-27", e.Name)
	assert.Equal(t, "Air+FixedWing", e.Type)
	assert.Equal(t, "Enemies", e.Coalition)
	assert.Equal(t, "Red", e.Color)
	assert.Equal(t, "Ivan", e.Pilot)
	assert.Equal(t, core.Planar(150, 200), e.Transform.Position)
	assert.Equal(t, 2500.0, *e.Transform.Altitude)
	assert.Equal(t, 90.0, *e.Transform.Heading)
	assert.Equal(t, 1, d.Objects())
}

func TestDecode_EventsDoNotShareState(t *testing.T) {
	d := NewDecoder()
	first := decode(t, d, "c3,T=1|2|300,Name=A")
	decode(t, d, "c3,Name=B")
	assert.Equal(t, "A", first.Entity.Name)
	assert.Equal(t, "A", first.Entity.Props["Name"])
}

func TestDecode_Remove(t *testing.T) {
	d := NewDecoder()
	decode(t, d, "a1,T=1|2|3")
	ev := decode(t, d, "-a1")
	assert.Equal(t, core.EventRemove, ev.Kind)
	assert.Equal(t, "a1", ev.ID)
	assert.Equal(t, 0, d.Objects())

	ev = decode(t, d, "a1,Name=Fresh")
	assert.False(t, ev.Entity.Transform.Position.Valid(), "removed object starts over")

	_, _, err := d.Decode("-zz")
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestDecode_EscapesAndContinuation(t *testing.T) {
	d := NewDecoder()
	ev := decode(t, d, `a1,Name=Viper\, Lead,Group=Enfield`)
	assert.Equal(t, "Viper, Lead", ev.Entity.Name)
	assert.Equal(t, "Enfield", ev.Entity.Group)

	_, ok, err := d.Decode(`a1,Comments=first line\`)
	require.NoError(t, err)
	assert.False(t, ok)
	ev = decode(t, d, "second line")
	assert.Equal(t, "first line\nsecond line", ev.Entity.Props["Comments"])
}

func TestDecode_GluedProps(t *testing.T) {
	d := NewDecoder()
	ev := decode(t, d, "a1,Health=0.9Name=F-15C,Type=Air+FixedWing")
	assert.Equal(t, "F-15C", ev.Entity.Name)
	assert.Equal(t, "0.9", ev.Entity.Props["Health"])
}

func TestDecode_Malformed(t *testing.T) {
	tests := []string{
		"xyz,Name=A",
		"a1,T=1|2",
		"a1,T=1|2|abc",
		"a1,NoEquals",
	}
	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			d := NewDecoder()
			_, ok, err := d.Decode(line)
			assert.ErrorIs(t, err, ErrMalformedLine)
			assert.False(t, ok)
		})
	}
}

func TestDecode_BadTransformKeepsState(t *testing.T) {
	d := NewDecoder()
	decode(t, d, "a1,T=1|2|3000")
	_, _, err := d.Decode("a1,T=1|x|3000,Name=Ghost")
	require.ErrorIs(t, err, ErrMalformedLine)

	ev := decode(t, d, "a1,Type=Air")
	assert.Equal(t, core.Geodetic(1, 2), ev.Entity.Transform.Position)
	assert.Empty(t, ev.Entity.Name)
}

func TestReset(t *testing.T) {
	d := NewDecoder()
	decode(t, d, "0,ReferenceLongitude=10")
	decode(t, d, "a1,T=1|2|3")
	d.Reset()
	assert.Equal(t, 0, d.Objects())

	ev := decode(t, d, "a1,T=1|2|3")
	assert.Equal(t, core.Geodetic(1, 2), ev.Entity.Transform.Position)
}
