// Package classify holds the keyword heuristics that turn telemetry property
// bags into coalitions, object categories and radio labels.
package classify

import (
	"strings"

	"github.com/OpenRadar/awacs/pkg/core"
)

var friendlyCoalitionHints = []string{
	"Allies", "Blue", "NATO", "USA", "USAF", "USN", "USMC", "U.S.", "United States",
	"ROK", "Training", "Allied", "Player", "Friendly",
}

var hostileCoalitionHints = []string{
	"Enemies", "Red", "OPFOR", "Aggressor", "DPRK", "Russia", "China", "Serbia", "Hostile", "Adversary",
}

var friendlyColors = map[string]bool{"blue": true, "lightblue": true, "cyan": true, "turquoise": true}
var hostileColors = map[string]bool{"red": true, "orange": true, "maroon": true}

// TankerHints are name fragments that identify an air refuelling aircraft.
var TankerHints = []string{"KC-135", "KC135", "KC-10", "KC10", "KC-46", "KC46", "Tanker", "Texaco", "Shell", "Arco"}

// MissileHints are name fragments that identify a guided weapon.
var MissileHints = []string{
	"AIM-", "R-", "AA-", "AMRAAM", "Sparrow", "Sidewinder", "Adder", "Alamo", "Archer",
	"Vympel", "PL-", "SD-", "Meteor", "Fox",
}

// Coalition applies, in order, the coalition-tag, colour and tanker-name
// heuristics. The first that matches wins.
func Coalition(e core.Entity) core.Coalition {
	if containsAny(e.Coalition, friendlyCoalitionHints) {
		return core.CoalitionFriendly
	}
	if containsAny(e.Coalition, hostileCoalitionHints) {
		return core.CoalitionHostile
	}
	color := strings.ToLower(strings.TrimSpace(e.Color))
	if friendlyColors[color] {
		return core.CoalitionFriendly
	}
	if hostileColors[color] {
		return core.CoalitionHostile
	}
	if IsTanker(e) {
		return core.CoalitionFriendly
	}
	return core.CoalitionUnknown
}

// IsAir reports whether the type tag marks an aircraft.
func IsAir(e core.Entity) bool {
	return strings.Contains(e.Type, "Air")
}

// IsMissile reports whether the entity is a guided weapon.
func IsMissile(e core.Entity) bool {
	if strings.Contains(e.Type, "Weapon") &&
		(strings.Contains(e.Type, "Missile") || strings.Contains(e.Type, "Guided")) {
		return true
	}
	return containsAny(e.Name, MissileHints)
}

// IsBullseye reports whether the entity is a bullseye navaid.
func IsBullseye(e core.Entity) bool {
	return strings.Contains(e.Type, "Navaid+Static+Bullseye") || strings.Contains(e.Type, "Navaid+Bullseye")
}

// IsTanker reports whether the entity's name matches a tanker hint.
func IsTanker(e core.Entity) bool {
	return containsAny(e.Name, TankerHints)
}

func containsAny(s string, hints []string) bool {
	if s == "" {
		return false
	}
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
