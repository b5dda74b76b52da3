package geo

import (
	"fmt"
	"math"
	"strconv"
)

// flightLevelFloor is the altitude at and above which threats are called by
// flight level.
const flightLevelFloor = 18000.0

// MetersToFeet converts metres to feet.
func MetersToFeet(m float64) float64 {
	return m * FeetPerMeter
}

// AltitudePhrase renders a threat altitude: "FL250" at or above 18,000 ft,
// "9,800 FT" below it, "ALT UNKNOWN" when absent.
func AltitudePhrase(altMeters *float64) string {
	if altMeters == nil {
		return "ALT UNKNOWN"
	}
	ft := MetersToFeet(*altMeters)
	if ft >= flightLevelFloor {
		return fmt.Sprintf("FL%d", int(math.RoundToEven(ft/100)))
	}
	return groupThousands(int(math.RoundToEven(ft/100))*100) + " FT"
}

// Angels returns altitude in whole thousands of feet.
func Angels(altMeters float64) int {
	return int(math.RoundToEven(MetersToFeet(altMeters) / 1000))
}

func groupThousands(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}
