package classify

import (
	"regexp"
	"strings"

	"github.com/OpenRadar/awacs/pkg/core"
)

// GenericLabel is used when nothing better identifies a friendly.
const GenericLabel = "Fighter"

var (
	pilotDashed    = regexp.MustCompile(`\d-\d$`)
	pilotTwoDigits = regexp.MustCompile(`^([A-Za-z]+)[\s\-_]*?(\d)\s*-?\s*(\d)\s*$`)
	pilotOneDigit  = regexp.MustCompile(`^([A-Za-z]+)[\s\-_]*?(\d)\s*$`)
	genericAirtype = regexp.MustCompile(`^(?:[A-Z]{1,3}-)?[A-Za-z0-9\-]+$`)
)

var airframeFragments = []string{"F-", "MiG", "Su-", "KC-", "B-", "C-", "Mirage", "J-", "PL-"}

// FriendlyLabel returns the radio label for a friendly: Callsign, then a
// callsign derived from Pilot, then Group, then Unit, then the display name
// unless it is only an airframe designation.
func FriendlyLabel(e core.Entity) string {
	if cs := strings.TrimSpace(e.Callsign); cs != "" {
		return cs
	}
	if lbl := PilotCallsign(e.Pilot); lbl != "" {
		return lbl
	}
	for _, v := range []string{e.Group, e.Unit} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if nm := strings.TrimSpace(e.Name); nm != "" {
		if genericAirtype.MatchString(nm) && containsAny(nm, airframeFragments) {
			return GenericLabel
		}
		return nm
	}
	return GenericLabel
}

// PilotCallsign turns "Warhawk52" into "Warhawk 5-2" and "Plasma3" into
// "Plasma 3". Names already ending in a digit pair like "1-1" are kept.
func PilotCallsign(pilot string) string {
	p := strings.TrimSpace(pilot)
	if p == "" {
		return ""
	}
	if pilotDashed.MatchString(p) {
		return p
	}
	if m := pilotTwoDigits.FindStringSubmatch(p); m != nil {
		return m[1] + " " + m[2] + "-" + m[3]
	}
	if m := pilotOneDigit.FindStringSubmatch(p); m != nil {
		return m[1] + " " + m[2]
	}
	return p
}
