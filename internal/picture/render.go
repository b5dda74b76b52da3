package picture

import (
	"fmt"
	"math"
	"strings"

	"github.com/OpenRadar/awacs/pkg/core"
)

// MaxGroups is the number of groups a picture call describes.
const MaxGroups = 5

var ordinals = [MaxGroups]string{"Nearest", "Second", "Third", "Fourth", "Fifth"}

// Clean is the reply for an empty sky.
const Clean = "PICTURE: CLEAN."

// Render formats summaries, nearest first, as a picture call. Friendly groups
// are not reported.
func Render(summaries []Summary) string {
	interest := make([]Summary, 0, len(summaries))
	for _, s := range summaries {
		if s.Identity != core.IdentityFriendly {
			interest = append(interest, s)
		}
	}
	if len(interest) == 0 {
		return Clean
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PICTURE: %s. ", groupCount(len(interest)))
	for i, s := range interest {
		if i == MaxGroups {
			break
		}
		heavy := ""
		if s.Size >= 3 {
			heavy = " HEAVY"
		}
		fmt.Fprintf(&b, "%s group BULLS %03d for %d, %s%s, %s, %s, %s. ",
			ordinals[i], s.Bearing, RoundNM(s.RangeNM), SizeWord(s.Size), heavy,
			strings.ToLower(s.Identity.String()), angels(s), s.Aspect)
	}
	return strings.TrimSpace(b.String())
}

// SizeWord renders a group size.
func SizeWord(n int) string {
	switch n {
	case 1:
		return "single"
	case 2:
		return "two-ship"
	case 3:
		return "three-ship"
	case 4:
		return "four-ship"
	default:
		return fmt.Sprintf("%d-ship", n)
	}
}

// RoundNM rounds a range to whole nautical miles for a call.
func RoundNM(nm float64) int {
	return int(math.RoundToEven(nm))
}

func groupCount(n int) string {
	switch n {
	case 1:
		return "single group"
	case 2:
		return "two groups"
	case 3:
		return "three groups"
	default:
		return fmt.Sprintf("%d groups", n)
	}
}

func angels(s Summary) string {
	if s.AngelsLo == nil || s.AngelsHi == nil {
		return "angels UNK"
	}
	if *s.AngelsLo == *s.AngelsHi {
		return fmt.Sprintf("angels %d", *s.AngelsLo)
	}
	return fmt.Sprintf("angels %d-%d", *s.AngelsLo, *s.AngelsHi)
}

// Picture clusters contacts, summarizes them against bull and renders the
// call. It is the whole picture pipeline for one request.
func Picture(contacts []core.Entity, bull core.Point, opts Options, weaponsFree bool) string {
	return Render(Summarize(Cluster(contacts, opts), bull, weaponsFree))
}
