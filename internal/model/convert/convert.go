package convert

import (
	"github.com/OpenRadar/awacs/internal/model"
	"github.com/OpenRadar/awacs/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// wktToPoint parses a WKT POINT back into a core.Point in the given frame.
// Unparseable or empty input yields ok=false.
func wktToPoint(wkt, frame string) (core.Point, bool) {
	if wkt == "" {
		return core.Point{}, false
	}
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil || !g.IsPoint() {
		return core.Point{}, false
	}
	xy, ok := g.MustAsPoint().XY()
	if !ok {
		return core.Point{}, false
	}
	switch frame {
	case core.ModeGeodetic.String():
		return core.Geodetic(xy.X, xy.Y), true
	default:
		return core.Planar(xy.X, xy.Y), true
	}
}

// JournalEntryToCore converts a GORM model.JournalEntry back to a core.Alert.
func JournalEntryToCore(e model.JournalEntry) core.Alert {
	a := core.Alert{
		Kind:     core.AlertKind(e.Kind),
		Text:     e.Text,
		SimTime:  e.SimTime,
		Time:     e.Time,
		EntityID: e.EntityID,
	}
	if p, ok := wktToPoint(e.Position, e.Frame); ok {
		a.Position = &p
	}
	return a
}
