package capsite

import (
	"fmt"
	"math"
	"strings"

	"github.com/OpenRadar/awacs/internal/classify"
	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/pkg/core"
)

// Site is one CAP orbit.
type Site struct {
	Name      string
	Center    core.Point
	RadiusNM  float64
	AltLowFt  float64
	AltHighFt float64
	Assigned  []string // entity ids in assignment order
}

func (s *Site) assigned(id string) bool {
	for _, a := range s.Assigned {
		if a == id {
			return true
		}
	}
	return false
}

func (s *Site) drop(id string) {
	out := s.Assigned[:0]
	for _, a := range s.Assigned {
		if a != id {
			out = append(out, a)
		}
	}
	s.Assigned = out
}

func (s *Site) clone() Site {
	c := *s
	c.Assigned = append([]string(nil), s.Assigned...)
	return c
}

// Lookup resolves an entity id to its latest state.
type Lookup interface {
	Get(id string) (core.Entity, bool)
}

// Manager holds the sites in definition order. Site names match regardless
// of case; a site keeps the spelling it was last defined with. It is not safe
// for concurrent use.
type Manager struct {
	sites map[string]*Site // by siteKey
	order []string
}

func siteKey(name string) string {
	return strings.ToLower(name)
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{sites: make(map[string]*Site)}
}

// Define creates the site or replaces an existing one of the same name. A
// replaced site keeps its position in the listing but loses its assignments.
func (m *Manager) Define(name string, center core.Point, radiusNM, lowFt, highFt float64) (Site, error) {
	if name == "" {
		return Site{}, ErrInvalidName
	}
	if radiusNM <= 0 || math.IsNaN(radiusNM) {
		return Site{}, ErrInvalidRadius
	}
	if err := validateBand(lowFt, highFt); err != nil {
		return Site{}, err
	}
	if !center.Valid() {
		return Site{}, geo.ErrInvalidCoordinates
	}
	key := siteKey(name)
	if _, ok := m.sites[key]; !ok {
		m.order = append(m.order, key)
	}
	s := &Site{Name: name, Center: center, RadiusNM: radiusNM, AltLowFt: lowFt, AltHighFt: highFt}
	m.sites[key] = s
	return s.clone(), nil
}

// Assign adds id to the named site.
func (m *Manager) Assign(id, name string) error {
	s, ok := m.sites[siteKey(name)]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrSiteNotFound)
	}
	if !s.assigned(id) {
		s.Assigned = append(s.Assigned, id)
	}
	return nil
}

// Get returns a copy of the named site.
func (m *Manager) Get(name string) (Site, bool) {
	s, ok := m.sites[siteKey(name)]
	if !ok {
		return Site{}, false
	}
	return s.clone(), true
}

// Sites returns copies of every site in definition order.
func (m *Manager) Sites() []Site {
	out := make([]Site, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.sites[key].clone())
	}
	return out
}

// Len returns the number of sites.
func (m *Manager) Len() int {
	return len(m.sites)
}

// Clear deletes the named site.
func (m *Manager) Clear(name string) error {
	key := siteKey(name)
	if _, ok := m.sites[key]; !ok {
		return fmt.Errorf("%s: %w", name, ErrSiteNotFound)
	}
	delete(m.sites, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// ClearAll deletes every site.
func (m *Manager) ClearAll() {
	m.sites = make(map[string]*Site)
	m.order = nil
}

// Purge removes id from every site.
func (m *Manager) Purge(id string) {
	for _, s := range m.sites {
		s.drop(id)
	}
}

// Recipients returns the union of all assigned ids, first site first, without
// duplicates.
func (m *Manager) Recipients() []string {
	seen := make(map[string]bool)
	var out []string
	for _, key := range m.order {
		for _, id := range m.sites[key].Assigned {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Assignment is the station check of one assigned flight.
type Assignment struct {
	ID         string
	Label      string
	Positioned bool
	RangeNM    float64 // from the site center
	OnStation  bool
}

// Report is the status of one site.
type Report struct {
	Site        Site
	Assignments []Assignment
}

// Status evaluates the named site, or every site when name is empty. Assigned
// ids that lookup no longer knows are pruned.
func (m *Manager) Status(name string, lookup Lookup) ([]Report, error) {
	keys := m.order
	if name != "" {
		key := siteKey(name)
		if _, ok := m.sites[key]; !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrSiteNotFound)
		}
		keys = []string{key}
	}
	reports := make([]Report, 0, len(keys))
	for _, k := range keys {
		reports = append(reports, m.evaluate(m.sites[k], lookup))
	}
	return reports, nil
}

func (m *Manager) evaluate(s *Site, lookup Lookup) Report {
	var r Report
	for _, id := range append([]string(nil), s.Assigned...) {
		e, ok := lookup.Get(id)
		if !ok {
			s.drop(id)
			continue
		}
		a := Assignment{ID: id, Label: classify.FriendlyLabel(e)}
		if _, rng, err := geo.BearingRange(s.Center, e.Transform.Position); err == nil {
			a.Positioned = true
			a.RangeNM = rng
			a.OnStation = rng <= s.RadiusNM && s.inBand(e.Transform.Altitude)
		}
		r.Assignments = append(r.Assignments, a)
	}
	r.Site = s.clone()
	return r
}

func (s *Site) inBand(altM *float64) bool {
	if altM == nil {
		return false
	}
	ft := geo.MetersToFeet(*altM)
	return ft >= s.AltLowFt && ft <= s.AltHighFt
}

// Format renders reports the way CAP status replies them.
func Format(reports []Report) string {
	if len(reports) == 0 {
		return "CAP: none."
	}
	lines := make([]string, 0, len(reports))
	for _, r := range reports {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

func (r Report) String() string {
	head := fmt.Sprintf("%s: radius %d nm, alt %s.", r.Site.Name, int(math.RoundToEven(r.Site.RadiusNM)), r.Site.Band())
	if len(r.Assignments) == 0 {
		return head + "\n   assigned: none"
	}
	shows := make([]string, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		if !a.Positioned {
			shows = append(shows, a.Label+" — pos unknown")
			continue
		}
		station := "off-station"
		if a.OnStation {
			station = "on-station"
		}
		shows = append(shows, fmt.Sprintf("%s — %d nm off center, %s", a.Label, int(math.RoundToEven(a.RangeNM)), station))
	}
	return head + "\n   assigned: " + strings.Join(shows, "; ")
}

// Band renders the altitude band in thousands of feet, "20-40".
func (s Site) Band() string {
	return fmt.Sprintf("%d-%d", int(s.AltLowFt/1000), int(s.AltHighFt/1000))
}
