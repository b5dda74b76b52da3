// Package capsite keeps the named combat air patrol orbits, the flights
// assigned to them and whether those flights are on station.
package capsite

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrSiteNotFound is returned for an undefined site name.
	ErrSiteNotFound = errors.New("cap site not found")
	// ErrInvalidAltitudeBand is returned when the band is narrower than MinBandFt.
	ErrInvalidAltitudeBand = errors.New("altitude band high must exceed low by at least 1,000 ft")
	// ErrInvalidRadius is returned for a non-positive radius.
	ErrInvalidRadius = errors.New("radius must be positive")
	// ErrInvalidName is returned for an empty site name.
	ErrInvalidName = errors.New("site name must not be empty")
)

// MinBandFt is the narrowest altitude band a site accepts.
const MinBandFt = 1000.0

// Defaults for a site defined without radius or altitude.
const (
	DefaultRadiusNM  = 10.0
	DefaultAltLowFt  = 20000.0
	DefaultAltHighFt = 40000.0
)

var bandPattern = regexp.MustCompile(`^\s*(\d{1,2})\s*-\s*(\d{1,2})\s*$`)

// ParseAltitudeBand parses "<lo>-<hi>" in thousands of feet.
func ParseAltitudeBand(s string) (lowFt, highFt float64, err error) {
	m := bandPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("altitude band %q: %w", s, ErrInvalidAltitudeBand)
	}
	lo, _ := strconv.Atoi(m[1])
	hi, _ := strconv.Atoi(m[2])
	lowFt, highFt = float64(lo)*1000, float64(hi)*1000
	if err := validateBand(lowFt, highFt); err != nil {
		return 0, 0, err
	}
	return lowFt, highFt, nil
}

func validateBand(lowFt, highFt float64) error {
	if lowFt < 0 || highFt-lowFt < MinBandFt {
		return ErrInvalidAltitudeBand
	}
	return nil
}
