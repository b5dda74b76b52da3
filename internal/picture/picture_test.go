package picture

import (
	"fmt"
	"strings"
	"testing"

	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nm = geo.MetersPerNM

func contact(id, coalition string, eastNM, northNM, altFt, heading float64) core.Entity {
	return core.Entity{
		ID:        id,
		Type:      "Air+FixedWing",
		Coalition: coalition,
		Transform: core.Transform{
			Position: core.Planar(eastNM*nm, northNM*nm),
			Altitude: core.Float(altFt / geo.FeetPerMeter),
			Heading:  core.Float(heading),
		},
	}
}

var origin = core.Planar(0, 0)

func TestPicture_SingleInboundBandit(t *testing.T) {
	hostile := contact("1", "Enemies", 20, 0, 25000, 270)

	got := Picture([]core.Entity{hostile}, origin, DefaultOptions(), false)
	assert.Equal(t, "PICTURE: single group. Nearest group BULLS 090 for 20, single, bandit, angels 25, HOT.", got)

	got = Picture([]core.Entity{hostile}, origin, DefaultOptions(), true)
	assert.Equal(t, "PICTURE: single group. Nearest group BULLS 090 for 20, single, hostile, angels 25, HOT.", got)
}

func TestPicture_Clean(t *testing.T) {
	assert.Equal(t, Clean, Picture(nil, origin, DefaultOptions(), false))

	friendly := contact("f", "Allies", 5, 5, 20000, 0)
	assert.Equal(t, Clean, Picture([]core.Entity{friendly}, origin, DefaultOptions(), false))
}

func TestCluster_Transitive(t *testing.T) {
	a := contact("a", "Enemies", 0, 10, 20000, 0)
	b := contact("b", "Enemies", 4, 10, 20000, 0)
	c := contact("c", "Enemies", 8, 10, 20000, 0)

	groups := Cluster([]core.Entity{a, c, b}, DefaultOptions())
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Size())
	// input order is kept inside a group
	assert.Equal(t, "a", groups[0].Members[0].ID)
	assert.Equal(t, "c", groups[0].Members[1].ID)
	assert.Equal(t, "b", groups[0].Members[2].ID)

	groups = Cluster([]core.Entity{a, c}, DefaultOptions())
	assert.Len(t, groups, 2)
}

func TestCluster_AltitudeWindow(t *testing.T) {
	a := contact("a", "Enemies", 0, 10, 20000, 0)
	b := contact("b", "Enemies", 1, 10, 22500, 0)
	assert.Len(t, Cluster([]core.Entity{a, b}, DefaultOptions()), 2)

	b = contact("b", "Enemies", 1, 10, 21900, 0)
	assert.Len(t, Cluster([]core.Entity{a, b}, DefaultOptions()), 1)

	// missing altitude counts as zero
	lowA := contact("a", "Enemies", 0, 10, 500, 0)
	noAlt := contact("n", "Enemies", 1, 10, 0, 0)
	noAlt.Transform.Altitude = nil
	assert.Len(t, Cluster([]core.Entity{lowA, noAlt}, DefaultOptions()), 1)
}

func TestCluster_SkipsUnpositionedAndMixedFrames(t *testing.T) {
	a := contact("a", "Enemies", 0, 0, 20000, 0)
	var none core.Entity
	none.ID = "none"
	ll := core.Entity{ID: "ll", Transform: core.Transform{Position: core.Geodetic(0, 0)}}

	groups := Cluster([]core.Entity{a, none, ll}, DefaultOptions())
	assert.Len(t, groups, 2)
}

func TestRender_OrderSizeAndBands(t *testing.T) {
	far := contact("far", "Neutral", 0, 30, 30000, 180)
	near1 := contact("n1", "Enemies", 0, 10, 20000, 180)
	near2 := contact("n2", "Enemies", 0.5, 10, 20600, 180)
	near3 := contact("n3", "Enemies", 1, 10, 21000, 180)

	got := Picture([]core.Entity{far, near1, near2, near3}, origin, DefaultOptions(), false)
	assert.Equal(t,
		"PICTURE: two groups. "+
			"Nearest group BULLS 003 for 10, three-ship HEAVY, bandit, angels 20-21, HOT. "+
			"Second group BULLS 000 for 30, single, bogey, angels 30, HOT.",
		got)
}

func TestRender_AspectWords(t *testing.T) {
	cold := contact("c", "Enemies", 20, 0, 25000, 90)
	got := Picture([]core.Entity{cold}, origin, DefaultOptions(), false)
	assert.True(t, strings.HasSuffix(got, "COLD."), got)

	beam := contact("b", "Enemies", 20, 0, 25000, 0)
	got = Picture([]core.Entity{beam}, origin, DefaultOptions(), false)
	assert.True(t, strings.HasSuffix(got, "beam north."), got)

	noHeading := contact("u", "Enemies", 20, 0, 25000, 0)
	noHeading.Transform.Heading = nil
	noHeading.Transform.Altitude = nil
	got = Picture([]core.Entity{noHeading}, origin, DefaultOptions(), false)
	assert.True(t, strings.HasSuffix(got, "angels UNK, UNK."), got)
}

func TestRender_AtMostFiveGroups(t *testing.T) {
	var contacts []core.Entity
	for i := 0; i < 6; i++ {
		contacts = append(contacts, contact(fmt.Sprint(i), "Enemies", 0, float64(10+i*10), 20000, 180))
	}
	got := Picture(contacts, origin, DefaultOptions(), false)
	assert.True(t, strings.HasPrefix(got, "PICTURE: 6 groups. Nearest group BULLS 000 for 10,"), got)
	assert.Contains(t, got, "Fifth group BULLS 000 for 50,")
	assert.NotContains(t, got, "for 60")
}

func TestPicture_Deterministic(t *testing.T) {
	contacts := []core.Entity{
		contact("1", "Enemies", 10, 10, 20000, 45),
		contact("2", "Neutral", -10, 10, 15000, 135),
		contact("3", "Enemies", 10, -10, 25000, 225),
		contact("4", "Enemies", -10, -10, 30000, 315),
	}
	first := Picture(contacts, origin, DefaultOptions(), false)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Picture(contacts, origin, DefaultOptions(), false))
	}
}

func TestMajority_TieBreak(t *testing.T) {
	members := []core.Entity{
		{Coalition: "Neutral"},
		{Coalition: "Enemies"},
	}
	assert.Equal(t, core.IdentityBandit, majority(members, false))
	assert.Equal(t, core.IdentityHostile, majority(members, true))

	members = append(members, core.Entity{Coalition: "Neutral"})
	assert.Equal(t, core.IdentityBogey, majority(members, false))
}

func TestMeanHeading_WrapsNorth(t *testing.T) {
	members := []core.Entity{
		{Transform: core.Transform{Heading: core.Float(350)}},
		{Transform: core.Transform{Heading: core.Float(10)}},
		{},
	}
	h := meanHeading(members)
	require.NotNil(t, h)
	assert.InDelta(t, 0, geo.HeadingDifference(*h, 0), 1e-9)

	assert.Nil(t, meanHeading([]core.Entity{{}}))
}

func TestSummarize_SkipsOtherFrame(t *testing.T) {
	g := Cluster([]core.Entity{contact("a", "Enemies", 10, 0, 20000, 0)}, DefaultOptions())
	assert.Empty(t, Summarize(g, core.Geodetic(0, 0), false))
}

func TestSizeWord(t *testing.T) {
	assert.Equal(t, "single", SizeWord(1))
	assert.Equal(t, "four-ship", SizeWord(4))
	assert.Equal(t, "7-ship", SizeWord(7))
}

func TestRoundNM_HalfToEven(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.5, 0},
		{1.5, 2},
		{2.5, 2},
		{20.5, 20},
		{21.5, 22},
		{20.51, 21},
		{19.49, 19},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundNM(tt.in), "%v", tt.in)
	}
}
