package picture

import (
	"math"
	"sort"

	"github.com/OpenRadar/awacs/internal/classify"
	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/pkg/core"
)

// Summary is a group reduced to what a picture call says about it.
type Summary struct {
	Size     int
	Centroid core.Point
	Bearing  int     // from the bullseye
	RangeNM  float64 // from the bullseye
	AngelsLo *int
	AngelsHi *int
	Identity core.Identity
	Heading  *float64 // mean of reported member headings
	Aspect   string
}

// Summarize reduces each group against the bullseye bull and returns the
// summaries nearest first. Groups whose frame differs from the bullseye's are
// left out.
func Summarize(groups []Group, bull core.Point, weaponsFree bool) []Summary {
	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		s, ok := summarize(g, bull, weaponsFree)
		if ok {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RangeNM < out[j].RangeNM })
	return out
}

func summarize(g Group, bull core.Point, weaponsFree bool) (Summary, bool) {
	if g.Size() == 0 {
		return Summary{}, false
	}
	points := make([]core.Point, 0, g.Size())
	for _, m := range g.Members {
		points = append(points, m.Transform.Position)
	}
	centroid, err := geo.Centroid(points)
	if err != nil {
		return Summary{}, false
	}
	brg, rng, err := geo.BearingRange(bull, centroid)
	if err != nil {
		return Summary{}, false
	}

	s := Summary{
		Size:     g.Size(),
		Centroid: centroid,
		Bearing:  brg,
		RangeNM:  rng,
		Identity: majority(g.Members, weaponsFree),
		Heading:  meanHeading(g.Members),
	}

	var lo, hi float64
	seen := false
	for _, m := range g.Members {
		if m.Transform.Altitude == nil {
			continue
		}
		a := *m.Transform.Altitude
		if !seen || a < lo {
			lo = a
		}
		if !seen || a > hi {
			hi = a
		}
		seen = true
	}
	if seen {
		l, h := geo.Angels(lo), geo.Angels(hi)
		s.AngelsLo, s.AngelsHi = &l, &h
	}

	b := float64(brg)
	s.Aspect = geo.Aspect(s.Heading, &b)
	return s, true
}

// majority returns the most common member identity. Ties go to the identity
// declared first.
func majority(members []core.Entity, weaponsFree bool) core.Identity {
	var counts [core.IdentityFriendly + 1]int
	for _, m := range members {
		counts[core.IdentityOf(classify.Coalition(m), weaponsFree)]++
	}
	best := core.IdentityBogey
	bestN := 0
	for id, n := range counts {
		if n > bestN {
			best, bestN = core.Identity(id), n
		}
	}
	return best
}

// meanHeading averages the reported headings as unit vectors so 350 and 010
// average to 000.
func meanHeading(members []core.Entity) *float64 {
	var x, y float64
	var last float64
	n := 0
	for _, m := range members {
		if m.Transform.Heading == nil {
			continue
		}
		last = *m.Transform.Heading
		r := last * math.Pi / 180
		x += math.Sin(r)
		y += math.Cos(r)
		n++
	}
	if n == 0 {
		return nil
	}
	if n == 1 {
		h := geo.NormalizeHeading(last)
		return &h
	}
	h := geo.NormalizeHeading(math.Atan2(x, y) * 180 / math.Pi)
	return &h
}
