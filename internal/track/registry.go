package track

import (
	"math"
	"sort"

	"github.com/OpenRadar/awacs/internal/classify"
	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Options tunes the registry. Zero values are replaced with defaults.
type Options struct {
	TTL               float64 // seconds of simulation time
	VelocitySmoothing float64 // weight of the newest sample, (0,1]
	HomePlateMaxKnots float64
	HomePlateMaxAltM  float64
}

// DefaultOptions are the registry defaults.
func DefaultOptions() Options {
	return Options{
		TTL:               10,
		VelocitySmoothing: 0.5,
		HomePlateMaxKnots: 60,
		HomePlateMaxAltM:  300,
	}
}

type entry struct {
	entity   core.Entity
	lastSeen float64
	seq      uint64

	velocity    geom.XY
	hasVelocity bool
	home        *core.Point

	prev     core.Point
	prevTime float64
	hasPrev  bool
}

// Snapshot is a point-in-time copy of one track.
type Snapshot struct {
	Entity   core.Entity
	LastSeen float64
	Velocity *geom.XY // metres per second east/north, nil until two samples exist
	Home     *core.Point
}

// SpeedKnots returns the ground speed, if known.
func (s Snapshot) SpeedKnots() (float64, bool) {
	if s.Velocity == nil {
		return 0, false
	}
	return math.Hypot(s.Velocity.X, s.Velocity.Y) * geo.KnotsPerMPS, true
}

// Registry is the world model: every live entity keyed by identifier plus the
// state derived from it. It is not safe for concurrent use; the owner
// serializes access.
type Registry struct {
	opts      Options
	entries   map[string]*entry
	bullseyes map[string]string // coalition tag -> entity id
	missiles  map[string]struct{}
	seq       uint64
	onRemove  []func(id string)
}

// New creates an empty registry.
func New(opts Options) *Registry {
	def := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.VelocitySmoothing <= 0 || opts.VelocitySmoothing > 1 {
		opts.VelocitySmoothing = def.VelocitySmoothing
	}
	if opts.HomePlateMaxKnots <= 0 {
		opts.HomePlateMaxKnots = def.HomePlateMaxKnots
	}
	if opts.HomePlateMaxAltM <= 0 {
		opts.HomePlateMaxAltM = def.HomePlateMaxAltM
	}
	return &Registry{
		opts:      opts,
		entries:   make(map[string]*entry),
		bullseyes: make(map[string]string),
		missiles:  make(map[string]struct{}),
	}
}

// OnRemove registers fn to be called with the id of every removed entity,
// whether removed explicitly or evicted as stale.
func (r *Registry) OnRemove(fn func(id string)) {
	r.onRemove = append(r.onRemove, fn)
}

// Reset drops every entity without firing remove callbacks.
func (r *Registry) Reset() {
	r.entries = make(map[string]*entry)
	r.bullseyes = make(map[string]string)
	r.missiles = make(map[string]struct{})
}

// Upsert stores the latest state of e observed at simTime.
func (r *Registry) Upsert(e core.Entity, simTime float64) {
	en, ok := r.entries[e.ID]
	if !ok {
		r.seq++
		en = &entry{seq: r.seq}
		r.entries[e.ID] = en
	}
	en.entity = e.Clone()
	en.lastSeen = simTime

	if classify.IsBullseye(e) {
		tag := e.Coalition
		if tag == "" {
			tag = "Unknown"
		}
		r.bullseyes[tag] = e.ID
	}
	if classify.IsMissile(e) {
		r.missiles[e.ID] = struct{}{}
	}
	r.discoverHomePlate(en)
}

// discoverHomePlate records the first slow, low fix of an aircraft. It never
// overwrites an existing home plate.
func (r *Registry) discoverHomePlate(en *entry) {
	e := en.entity
	if en.home != nil || !classify.IsAir(e) || !en.hasVelocity {
		return
	}
	pos := e.Transform.Position
	alt := e.Transform.Altitude
	if !pos.Valid() || alt == nil {
		return
	}
	kts := math.Hypot(en.velocity.X, en.velocity.Y) * geo.KnotsPerMPS
	if kts < r.opts.HomePlateMaxKnots && *alt < r.opts.HomePlateMaxAltM {
		home := pos
		en.home = &home
	}
}

// Remove deletes an entity and every reference to it. It reports whether the
// entity existed.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	delete(r.missiles, id)
	for tag, bid := range r.bullseyes {
		if bid == id {
			delete(r.bullseyes, tag)
		}
	}
	for _, fn := range r.onRemove {
		fn(id)
	}
	return true
}

// EvictStale removes every entity not updated for longer than the TTL and
// returns the removed ids.
func (r *Registry) EvictStale(simTime float64) []string {
	var stale []string
	for id, en := range r.entries {
		if simTime-en.lastSeen > r.opts.TTL {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	for _, id := range stale {
		r.Remove(id)
	}
	return stale
}

// UpdateVelocities folds the newest position sample of every entity into its
// velocity estimate. Samples are timed by when they were observed, so an
// entity that was not updated since the last call keeps its estimate. A
// sample older than the previous one (a rewound feed) restarts the history.
func (r *Registry) UpdateVelocities() {
	alpha := r.opts.VelocitySmoothing
	for _, en := range r.entries {
		cur := en.entity.Transform.Position
		if !cur.Valid() {
			continue
		}
		if !en.hasPrev || en.prev.Mode != cur.Mode || en.lastSeen < en.prevTime {
			en.prev, en.prevTime, en.hasPrev = cur, en.lastSeen, true
			en.hasVelocity = false
			continue
		}
		dt := en.lastSeen - en.prevTime
		if dt <= 0 {
			continue
		}
		d, err := geo.Delta(en.prev, cur)
		if err != nil {
			continue
		}
		inst := d.Scale(1 / dt)
		if en.hasVelocity {
			en.velocity = inst.Scale(alpha).Add(en.velocity.Scale(1 - alpha))
		} else {
			en.velocity = inst
			en.hasVelocity = true
		}
		en.prev, en.prevTime = cur, en.lastSeen
	}
}

// Len returns the number of tracked entities.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Contains reports whether id is tracked.
func (r *Registry) Contains(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Get returns a copy of the entity with the given id.
func (r *Registry) Get(id string) (core.Entity, bool) {
	en, ok := r.entries[id]
	if !ok {
		return core.Entity{}, false
	}
	return en.entity.Clone(), true
}

// Track returns a snapshot of the entity and its derived state.
func (r *Registry) Track(id string) (Snapshot, bool) {
	en, ok := r.entries[id]
	if !ok {
		return Snapshot{}, false
	}
	s := Snapshot{Entity: en.entity.Clone(), LastSeen: en.lastSeen}
	if en.hasVelocity {
		v := en.velocity
		s.Velocity = &v
	}
	if en.home != nil {
		h := *en.home
		s.Home = &h
	}
	return s, true
}

// HomePlate returns the discovered home plate of id.
func (r *Registry) HomePlate(id string) (core.Point, bool) {
	en, ok := r.entries[id]
	if !ok || en.home == nil {
		return core.Point{}, false
	}
	return *en.home, true
}

// IsMissile reports whether id is in the missile set.
func (r *Registry) IsMissile(id string) bool {
	_, ok := r.missiles[id]
	return ok
}

// MissileCount returns the number of live guided weapons.
func (r *Registry) MissileCount() int {
	return len(r.missiles)
}

// ordered returns the entries in first-seen order.
func (r *Registry) ordered() []*entry {
	out := make([]*entry, 0, len(r.entries))
	for _, en := range r.entries {
		out = append(out, en)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
