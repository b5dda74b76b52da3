package command

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenRadar/awacs/internal/capsite"
	"github.com/OpenRadar/awacs/internal/push"
	"github.com/OpenRadar/awacs/internal/util"
)

// Replies for arguments rejected while parsing.
const (
	ReplyBadBand = "CAP: UNABLE: altitude band high must exceed low by at least 1,000 ft."
	ReplyBadTime = "PUSH: UNABLE: bad time (use 'now', 'in 90s', 'in 2m', or 'at +mm:ss')."
)

// input is the request in two aligned forms: whitespace collapsed, and the
// same text with ASCII letters lowered. Byte offsets are valid in both.
type input struct {
	text  string
	lower string
}

func newInput(s string) input {
	text := util.CollapseSpaces(s)
	return input{text: text, lower: asciiLower(text)}
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// group returns submatch n of loc in the original-case text.
func (in input) group(loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return in.text[loc[2*n]:loc[2*n+1]]
}

// prefix returns the callsign written before submatch n.
func (in input) prefix(loc []int, n int) string {
	return util.TrimSeparators(in.text[:loc[2*n]])
}

type matcher struct {
	name  string
	match func(in input) (Command, bool)
}

const siteName = `([a-z0-9_\-]+)`

var (
	capAddBulls = regexp.MustCompile(`^cap\s+add\s+` + siteName + `\s+bulls\s+(\d{2,3})\s*(?:for|/)\s*(\d{1,3})(?:\s+radius\s+(\d{1,3}))?(?:\s+alt\s+(\d{1,2}-\d{1,2}))?$`)
	capAddAt    = regexp.MustCompile(`^cap\s+add\s+` + siteName + `\s+at\s+(?:fighter\s+)?(.+?)(?:\s+radius\s+(\d{1,3}))?(?:\s+alt\s+(\d{1,2}-\d{1,2}))?$`)
	capAssign   = regexp.MustCompile(`^cap\s+assign\s+(.+?)\s+(?:to\s+)?` + siteName + `$`)
	capStatus   = regexp.MustCompile(`^cap\s+status(?:\s+` + siteName + `)?$`)
	capClear    = regexp.MustCompile(`^cap\s+clear\s+` + siteName + `$`)
	pushSet     = regexp.MustCompile(`^push\s+set\s+bulls\s+(\d{2,3})\s*(?:for|/)\s*(\d{1,3})(?:\s+(.+))?$`)
	alphaCheck  = regexp.MustCompile(`(?:^|[\s,])(alpha\s*check|alphacheck|alpha)\s*(?:to\s+)?(home(?:\s*plate)?|home\s*base|tanker)?$`)
	vector      = regexp.MustCompile(`(?:^|[\s,])(vector)\s+(?:to\s+)?(.+)$`)
	snap        = regexp.MustCompile(`(?:^|[\s,])(snap)(?:\s*threat)?$`)
	declare     = regexp.MustCompile(`(?:^|[\s,])(declare)(?:\s+(?:bulls\s+)?(\d{2,3})\s*(?:for|/)\s*(\d{1,3}))?$`)
	bogeyDope   = regexp.MustCompile(`(?:^|[\s,])(bogey\s*dope|bogeydope|dope)$`)
	picture     = regexp.MustCompile(`(?:^|[\s,])(picture)$`)

	homeTarget = regexp.MustCompile(`^home(?:\s*plate|\s*base)?$`)
)

// matchers are tried in order and the first match wins. CAP and PUSH shapes
// are anchored at the start and come before the shapes that take a callsign
// prefix, so a callsign like "Vector 1-1" inside "cap assign" is not read as a
// vector request.
var matchers = []matcher{
	{"who", matchWho},
	{"cap add bulls", matchCapAddBulls},
	{"cap add at", matchCapAddAt},
	{"cap assign", matchCapAssign},
	{"cap status", matchCapStatus},
	{"cap clear", matchCapClear},
	{"push set", matchPushSet},
	{"push control", matchPushControl},
	{"alpha check", matchAlphaCheck},
	{"vector", matchVector},
	{"snap", matchSnap},
	{"declare", matchDeclare},
	{"bogey dope", matchBogeyDope},
	{"picture", matchPicture},
}

// Parse returns the command text asks for. Text that matches no shape is a
// picture request with the whole text as the callsign.
func Parse(text string) Command {
	in := newInput(text)
	for _, m := range matchers {
		if cmd, ok := m.match(in); ok {
			return cmd
		}
	}
	return Picture{Callsign: util.TrimSeparators(in.text)}
}

func matchWho(in input) (Command, bool) {
	switch in.lower {
	case "who", "callsigns", "list":
		return Who{Scope: WhoFriendly}, true
	case "who all", "callsigns all", "list all":
		return Who{Scope: WhoAll}, true
	case "who unknown", "callsigns unknown", "list unknown":
		return Who{Scope: WhoUnknown}, true
	}
	return nil, false
}

func matchCapAddBulls(in input) (Command, bool) {
	loc := capAddBulls.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	radius, lo, hi, rejected := siteShape(in, loc, 4, 5)
	if rejected != nil {
		return rejected, true
	}
	return CapAddBulls{
		Name:      in.group(loc, 1),
		At:        Bulls{Bearing: atoi(in.group(loc, 2)), RangeNM: atoi(in.group(loc, 3))},
		RadiusNM:  radius,
		AltLowFt:  lo,
		AltHighFt: hi,
	}, true
}

func matchCapAddAt(in input) (Command, bool) {
	loc := capAddAt.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	radius, lo, hi, rejected := siteShape(in, loc, 3, 4)
	if rejected != nil {
		return rejected, true
	}
	return CapAddAt{
		Name:      in.group(loc, 1),
		Callsign:  util.TrimSeparators(in.group(loc, 2)),
		RadiusNM:  radius,
		AltLowFt:  lo,
		AltHighFt: hi,
	}, true
}

// siteShape reads the optional radius and altitude band submatches.
func siteShape(in input, loc []int, radiusGroup, bandGroup int) (radius, lo, hi float64, rejected Command) {
	radius = capsite.DefaultRadiusNM
	if r := in.group(loc, radiusGroup); r != "" {
		radius = float64(atoi(r))
	}
	lo, hi = capsite.DefaultAltLowFt, capsite.DefaultAltHighFt
	if band := in.group(loc, bandGroup); band != "" {
		var err error
		if lo, hi, err = capsite.ParseAltitudeBand(band); err != nil {
			return 0, 0, 0, Rejected{Reply: ReplyBadBand}
		}
	}
	return radius, lo, hi, nil
}

func matchCapAssign(in input) (Command, bool) {
	loc := capAssign.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	return CapAssign{Callsign: util.TrimSeparators(in.group(loc, 1)), Site: in.group(loc, 2)}, true
}

func matchCapStatus(in input) (Command, bool) {
	loc := capStatus.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	return CapStatus{Site: in.group(loc, 1)}, true
}

func matchCapClear(in input) (Command, bool) {
	loc := capClear.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	name := in.group(loc, 1)
	if strings.EqualFold(name, "all") {
		return CapClear{All: true}, true
	}
	return CapClear{Site: name}, true
}

func matchPushSet(in input) (Command, bool) {
	loc := pushSet.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	offset, err := push.ParseOffset(in.group(loc, 3))
	if err != nil {
		return Rejected{Reply: ReplyBadTime}, true
	}
	return PushSet{
		At:     Bulls{Bearing: atoi(in.group(loc, 1)), RangeNM: atoi(in.group(loc, 2))},
		Offset: offset,
	}, true
}

func matchPushControl(in input) (Command, bool) {
	switch in.lower {
	case "push status":
		return PushStatus{}, true
	case "push cancel":
		return PushCancel{}, true
	case "push execute":
		return PushExecute{}, true
	}
	return nil, false
}

func matchAlphaCheck(in input) (Command, bool) {
	loc := alphaCheck.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	cmd := AlphaCheck{Callsign: in.prefix(loc, 1), Target: DestSelf}
	switch target := asciiLower(in.group(loc, 2)); {
	case target == "tanker":
		cmd.Target = DestTanker
	case target != "":
		cmd.Target = DestHome
	}
	return cmd, true
}

func matchVector(in input) (Command, bool) {
	loc := vector.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	cmd := Vector{Callsign: in.prefix(loc, 1)}
	target := util.TrimSeparators(in.group(loc, 2))
	switch lower := asciiLower(target); {
	case homeTarget.MatchString(lower):
		cmd.Target = DestHome
	case lower == "tanker":
		cmd.Target = DestTanker
	default:
		cmd.Target = DestNamed
		cmd.Name = target
	}
	return cmd, true
}

func matchSnap(in input) (Command, bool) {
	loc := snap.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	return Snap{Callsign: in.prefix(loc, 1)}, true
}

func matchDeclare(in input) (Command, bool) {
	loc := declare.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	cmd := Declare{Callsign: in.prefix(loc, 1)}
	if brg := in.group(loc, 2); brg != "" {
		cmd.At = &Bulls{Bearing: atoi(brg), RangeNM: atoi(in.group(loc, 3))}
	}
	return cmd, true
}

func matchBogeyDope(in input) (Command, bool) {
	loc := bogeyDope.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	return BogeyDope{Callsign: in.prefix(loc, 1)}, true
}

func matchPicture(in input) (Command, bool) {
	loc := picture.FindStringSubmatchIndex(in.lower)
	if loc == nil {
		return nil, false
	}
	return Picture{Callsign: in.prefix(loc, 1)}, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
