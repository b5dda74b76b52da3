// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/OpenRadar/awacs/internal/model"
	"github.com/OpenRadar/awacs/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// pointToWKT renders a core.Point as a WKT POINT in its own frame. It fails
// for coordinates simplefeatures rejects (NaN or infinite).
func pointToWKT(p core.Point) (string, error) {
	pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.X, Y: p.Y}})
	if err != nil {
		return "", err
	}
	return pt.AsText(), nil
}

// metaToJSON converts a string map to datatypes.JSON for DB storage.
func metaToJSON(meta map[string]string) datatypes.JSON {
	if len(meta) == 0 {
		return datatypes.JSON("{}")
	}
	data, _ := json.Marshal(meta)
	return datatypes.JSON(data)
}

// CoreToJournalEntry converts a core.Alert to a GORM model.JournalEntry.
// meta carries free-form context such as the mission title.
func CoreToJournalEntry(a core.Alert, sessionID uint, meta map[string]string) model.JournalEntry {
	entry := model.JournalEntry{
		SessionID: sessionID,
		Time:      a.Time,
		SimTime:   a.SimTime,
		Kind:      string(a.Kind),
		Text:      a.Text,
		EntityID:  a.EntityID,
		Meta:      metaToJSON(meta),
	}
	if a.Position != nil && a.Position.Valid() {
		if wkt, err := pointToWKT(*a.Position); err == nil {
			entry.Position = wkt
			entry.Frame = a.Position.Mode.String()
		}
	}
	return entry
}
