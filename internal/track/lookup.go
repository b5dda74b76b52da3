package track

import (
	"github.com/OpenRadar/awacs/internal/classify"
	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/internal/util"
	"github.com/OpenRadar/awacs/pkg/core"
)

// DefaultBullseyePreference is the coalition-tag order used to pick a bullseye.
var DefaultBullseyePreference = []string{"Allies", "Blue", "ROK", "NATO", "Training", "USA", "U.S."}

// Air returns every positioned aircraft in first-seen order.
func (r *Registry) Air() []core.Entity {
	var out []core.Entity
	for _, en := range r.ordered() {
		if classify.IsAir(en.entity) && en.entity.Transform.Position.Valid() {
			out = append(out, en.entity.Clone())
		}
	}
	return out
}

// AirBy returns the aircraft classified into coalition c.
func (r *Registry) AirBy(c core.Coalition) []core.Entity {
	var out []core.Entity
	for _, e := range r.Air() {
		if classify.Coalition(e) == c {
			out = append(out, e)
		}
	}
	return out
}

// Friendly returns friendly aircraft.
func (r *Registry) Friendly() []core.Entity { return r.AirBy(core.CoalitionFriendly) }

// Hostile returns hostile aircraft.
func (r *Registry) Hostile() []core.Entity { return r.AirBy(core.CoalitionHostile) }

// Unknown returns aircraft of undetermined coalition.
func (r *Registry) Unknown() []core.Entity { return r.AirBy(core.CoalitionUnknown) }

// Interest returns hostile then unknown aircraft: everything a picture reports.
func (r *Registry) Interest() []core.Entity {
	return append(r.Hostile(), r.Unknown()...)
}

// ResolveBullseye returns the reference point for bulls calls. It tries the
// bullseye navaid of each coalition tag in prefs, then any bullseye navaid,
// then the first friendly aircraft.
func (r *Registry) ResolveBullseye(prefs []string) (core.Point, bool) {
	for _, tag := range prefs {
		if id, ok := r.bullseyes[tag]; ok {
			if p, ok := r.position(id); ok {
				return p, true
			}
		}
	}
	for _, en := range r.ordered() {
		if !classify.IsBullseye(en.entity) {
			continue
		}
		if r.bullseyes[bullseyeTag(en.entity)] == en.entity.ID && en.entity.Transform.Position.Valid() {
			return en.entity.Transform.Position, true
		}
	}
	if f := r.Friendly(); len(f) > 0 {
		return f[0].Transform.Position, true
	}
	return core.Point{}, false
}

func bullseyeTag(e core.Entity) string {
	if e.Coalition == "" {
		return "Unknown"
	}
	return e.Coalition
}

func (r *Registry) position(id string) (core.Point, bool) {
	en, ok := r.entries[id]
	if !ok || !en.entity.Transform.Position.Valid() {
		return core.Point{}, false
	}
	return en.entity.Transform.Position, true
}

// FindFriendly returns the first friendly aircraft whose name, callsign,
// pilot, unit or group contains query, ignoring case and punctuation.
func (r *Registry) FindFriendly(query string) (core.Entity, bool) {
	return Find(r.Friendly(), query)
}

// Find returns the first entity in candidates matching query.
func Find(candidates []core.Entity, query string) (core.Entity, bool) {
	q := util.Normalize(query)
	if q == "" {
		return core.Entity{}, false
	}
	for _, e := range candidates {
		for _, field := range []string{e.Name, e.Callsign, e.Pilot, e.Unit, e.Group} {
			if field != "" && util.ContainsNormalized(field, q) {
				return e, true
			}
		}
	}
	return core.Entity{}, false
}

// DefaultFriendly returns the first friendly aircraft.
func (r *Registry) DefaultFriendly() (core.Entity, bool) {
	f := r.Friendly()
	if len(f) == 0 {
		return core.Entity{}, false
	}
	return f[0], true
}

// NearestTanker returns the friendly tanker closest to from. When from is
// not comparable with any tanker the first tanker is returned.
func (r *Registry) NearestTanker(from core.Point) (core.Entity, bool) {
	var tankers []core.Entity
	for _, e := range r.Friendly() {
		if classify.IsTanker(e) {
			tankers = append(tankers, e)
		}
	}
	if len(tankers) == 0 {
		return core.Entity{}, false
	}
	if best, _, ok := Nearest(from, tankers); ok {
		return best, true
	}
	return tankers[0], true
}

// Nearest returns the candidate closest to from and its range in nautical
// miles. Candidates in another coordinate frame are skipped.
func Nearest(from core.Point, candidates []core.Entity) (core.Entity, float64, bool) {
	var best core.Entity
	bestNM := 0.0
	found := false
	for _, e := range candidates {
		_, nm, err := geo.BearingRange(from, e.Transform.Position)
		if err != nil {
			continue
		}
		if !found || nm < bestNM {
			best, bestNM, found = e, nm, true
		}
	}
	return best, bestNM, found
}
