package awacs

import (
	"fmt"

	"github.com/OpenRadar/awacs/internal/capsite"
	"github.com/OpenRadar/awacs/internal/config"
	"github.com/OpenRadar/awacs/internal/picture"
	"github.com/OpenRadar/awacs/internal/track"
)

// OptionsFromConfig maps the awacs config section onto controller options.
// Unset values fall back to DefaultOptions when the controller is built.
func OptionsFromConfig(cfg config.AWACSConfig) (Options, error) {
	opts := Options{
		Registry: track.Options{
			TTL:               cfg.TTL.Seconds(),
			VelocitySmoothing: cfg.VelocitySmoothing,
			HomePlateMaxKnots: cfg.HomePlateSpeedKts,
			HomePlateMaxAltM:  cfg.HomePlateAltM,
		},
		Picture: picture.Options{
			RangeNM: cfg.GroupRangeNM,
			AltFt:   cfg.GroupAltFt,
		},
		TickHz:             cfg.TickHz,
		MergeRangeNM:       cfg.MergeRangeNM,
		MergeCooldownTicks: cfg.MergeCooldownTicks,
		MissileAlertNM:     cfg.MissileAlertNM,
		DeclareRadiusNM:    cfg.DeclareRadiusNM,
		WeaponsFree:        cfg.WeaponsFree,
		LogCapacity:        cfg.LogCapacity,
		BullseyePreference: cfg.BullseyePreference,
		CapRadiusNM:        cfg.CapRadiusNM,
	}
	if cfg.CapAlt != "" {
		lo, hi, err := capsite.ParseAltitudeBand(cfg.CapAlt)
		if err != nil {
			return Options{}, fmt.Errorf("awacs.capAlt: %w", err)
		}
		opts.CapAltLowFt, opts.CapAltHighFt = lo, hi
	}
	return opts, nil
}
