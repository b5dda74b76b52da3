package alert

import (
	"fmt"
	"math"

	"github.com/OpenRadar/awacs/internal/classify"
	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/internal/track"
	"github.com/OpenRadar/awacs/pkg/core"
)

// MissileWatch evaluates every identifier once, the first time it is seen,
// and calls DEFEND for non-friendly missiles born near a friendly.
type MissileWatch struct {
	radiusNM float64
	seen     map[string]struct{}
}

// NewMissileWatch returns a watch alerting friendlies within radiusNM of a
// missile at birth.
func NewMissileWatch(radiusNM float64) *MissileWatch {
	return &MissileWatch{radiusNM: radiusNM, seen: make(map[string]struct{})}
}

// Seen reports whether id was already evaluated.
func (w *MissileWatch) Seen(id string) bool {
	_, ok := w.seen[id]
	return ok
}

// Reset forgets every identifier.
func (w *MissileWatch) Reset() {
	w.seen = make(map[string]struct{})
}

// Observe evaluates e if its identifier is new. It must be called before the
// entity is stored so friendlies reflects the world at the missile's birth.
// friendlies is only called for a newly born, valid, non-friendly missile.
func (w *MissileWatch) Observe(e core.Entity, friendlies func() []core.Entity) (core.Alert, bool) {
	if w.Seen(e.ID) {
		return core.Alert{}, false
	}
	w.seen[e.ID] = struct{}{}

	if !classify.IsMissile(e) || classify.Coalition(e) == core.CoalitionFriendly {
		return core.Alert{}, false
	}
	birth := e.Transform.Position
	if !birth.Valid() {
		return core.Alert{}, false
	}
	f, rng, ok := track.Nearest(birth, friendlies())
	if !ok || rng > w.radiusNM {
		return core.Alert{}, false
	}
	brg, rng, err := geo.BearingRange(f.Transform.Position, birth)
	if err != nil {
		return core.Alert{}, false
	}
	return core.Alert{
		Kind: core.AlertDefend,
		Text: fmt.Sprintf("%s, DEFEND! Missile inbound, BRAA %03d/%d.",
			classify.FriendlyLabel(f), brg, int(math.RoundToEven(rng))),
		EntityID: e.ID,
		Position: &birth,
	}, true
}
