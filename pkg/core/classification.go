// pkg/core/classification.go
package core

// Coalition is the side an entity is judged to be on.
type Coalition uint8

const (
	CoalitionUnknown Coalition = iota
	CoalitionFriendly
	CoalitionHostile
)

func (c Coalition) String() string {
	switch c {
	case CoalitionFriendly:
		return "Blue"
	case CoalitionHostile:
		return "Red"
	default:
		return "Unknown"
	}
}

// Identity is the brevity word used for a contact. The declaration order is
// the tie-break order for majority votes.
type Identity uint8

const (
	IdentityHostile Identity = iota
	IdentityBandit
	IdentityBogey
	IdentityFriendly
)

func (i Identity) String() string {
	switch i {
	case IdentityHostile:
		return "Hostile"
	case IdentityBandit:
		return "Bandit"
	case IdentityFriendly:
		return "Friendly"
	default:
		return "Bogey"
	}
}

// IdentityOf maps a coalition to its brevity identity. Weapons-free upgrades
// bandits to hostiles.
func IdentityOf(c Coalition, weaponsFree bool) Identity {
	switch c {
	case CoalitionFriendly:
		return IdentityFriendly
	case CoalitionHostile:
		if weaponsFree {
			return IdentityHostile
		}
		return IdentityBandit
	default:
		return IdentityBogey
	}
}
