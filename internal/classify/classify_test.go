package classify

import (
	"testing"

	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestCoalition(t *testing.T) {
	tests := []struct {
		name   string
		entity core.Entity
		want   core.Coalition
	}{
		{"blue tag", core.Entity{Coalition: "Allies"}, core.CoalitionFriendly},
		{"substring tag", core.Entity{Coalition: "USAF 4th Wing"}, core.CoalitionFriendly},
		{"red tag", core.Entity{Coalition: "Enemies"}, core.CoalitionHostile},
		{"tag beats colour", core.Entity{Coalition: "Enemies", Color: "Blue"}, core.CoalitionHostile},
		{"colour fallback", core.Entity{Coalition: "Neutral", Color: "Orange"}, core.CoalitionHostile},
		{"blue colour", core.Entity{Color: "Cyan"}, core.CoalitionFriendly},
		{"tanker name", core.Entity{Name: "KC-135MPRS"}, core.CoalitionFriendly},
		{"nothing", core.Entity{Name: "Su-27"}, core.CoalitionUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coalition(tt.entity))
		})
	}
}

func TestCategories(t *testing.T) {
	assert.True(t, IsAir(core.Entity{Type: "Air+FixedWing"}))
	assert.False(t, IsAir(core.Entity{Type: "Ground+Heavy+Armor"}))

	assert.True(t, IsMissile(core.Entity{Type: "Weapon+Missile"}))
	assert.True(t, IsMissile(core.Entity{Type: "Weapon+Guided"}))
	assert.True(t, IsMissile(core.Entity{Type: "Misc", Name: "AIM-120C"}))
	assert.False(t, IsMissile(core.Entity{Type: "Weapon+Bomb", Name: "Mk-82"}))

	assert.True(t, IsBullseye(core.Entity{Type: "Navaid+Static+Bullseye"}))
	assert.True(t, IsBullseye(core.Entity{Type: "Navaid+Bullseye"}))
	assert.False(t, IsBullseye(core.Entity{Type: "Navaid+Static+Waypoint"}))

	assert.True(t, IsTanker(core.Entity{Name: "Texaco"}))
	assert.False(t, IsTanker(core.Entity{Name: "F-16C_50"}))
}

func TestFriendlyLabel(t *testing.T) {
	tests := []struct {
		name   string
		entity core.Entity
		want   string
	}{
		{"callsign wins", core.Entity{Callsign: " Enfield 1-1 ", Pilot: "Warhawk52"}, "Enfield 1-1"},
		{"pilot digit pair", core.Entity{Pilot: "Warhawk52"}, "Warhawk 5-2"},
		{"pilot spaced pair", core.Entity{Pilot: "Plasma 3 1"}, "Plasma 3-1"},
		{"pilot already dashed", core.Entity{Pilot: "Warhawk 1-1"}, "Warhawk 1-1"},
		{"pilot single digit", core.Entity{Pilot: "Uzi7"}, "Uzi 7"},
		{"pilot free text", core.Entity{Pilot: "B-E-B"}, "B-E-B"},
		{"group", core.Entity{Group: "Viper Flight", Unit: "Viper 1"}, "Viper Flight"},
		{"unit", core.Entity{Unit: "Viper 1"}, "Viper 1"},
		{"airframe name is generic", core.Entity{Name: "F-16C"}, "Fighter"},
		{"airframe with suffix kept", core.Entity{Name: "F-16C_50"}, "F-16C_50"},
		{"descriptive name", core.Entity{Name: "Colt Lead"}, "Colt Lead"},
		{"nothing", core.Entity{}, "Fighter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FriendlyLabel(tt.entity))
		})
	}
}
