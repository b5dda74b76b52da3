// Package picture groups contacts of interest and renders the tactical
// picture in brevity form.
package picture

import (
	"math"

	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/pkg/core"
)

// Options are the grouping thresholds.
type Options struct {
	RangeNM float64
	AltFt   float64
}

// DefaultOptions groups contacts within 5 NM and 2,000 ft of each other.
func DefaultOptions() Options {
	return Options{RangeNM: 5, AltFt: 2000}
}

// Group is one cluster of contacts, members in input order.
type Group struct {
	Members []core.Entity
}

// Size returns the number of members.
func (g Group) Size() int {
	return len(g.Members)
}

type item struct {
	entity core.Entity
	altFt  float64
}

// Cluster groups contacts by single-link clustering: a contact joins a group
// when it is within opts.RangeNM and opts.AltFt of any member already in it,
// so closeness is transitive. Contacts without a position are skipped. A
// missing altitude counts as zero for the altitude test. Contacts in different
// coordinate frames are never close.
func Cluster(contacts []core.Entity, opts Options) []Group {
	items := make([]item, 0, len(contacts))
	for _, e := range contacts {
		if !e.Transform.Position.Valid() {
			continue
		}
		it := item{entity: e}
		if e.Transform.Altitude != nil {
			it.altFt = geo.MetersToFeet(*e.Transform.Altitude)
		}
		items = append(items, it)
	}

	used := make([]bool, len(items))
	var groups []Group
	for i := range items {
		if used[i] {
			continue
		}
		used[i] = true
		cluster := []int{i}
		// grow until no unused item touches the cluster
		for k := 0; k < len(cluster); k++ {
			for j := range items {
				if used[j] || !near(items[cluster[k]], items[j], opts) {
					continue
				}
				used[j] = true
				cluster = append(cluster, j)
			}
		}
		groups = append(groups, build(items, cluster))
	}
	return groups
}

func build(items []item, idx []int) Group {
	// members keep input order
	member := make([]bool, len(items))
	for _, i := range idx {
		member[i] = true
	}
	g := Group{Members: make([]core.Entity, 0, len(idx))}
	for i, in := range member {
		if in {
			g.Members = append(g.Members, items[i].entity)
		}
	}
	return g
}

func near(a, b item, opts Options) bool {
	d, err := geo.Distance(a.entity.Transform.Position, b.entity.Transform.Position)
	if err != nil {
		return false
	}
	return d/geo.MetersPerNM <= opts.RangeNM && math.Abs(a.altFt-b.altFt) <= opts.AltFt
}
