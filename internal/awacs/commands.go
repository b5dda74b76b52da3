package awacs

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/OpenRadar/awacs/internal/capsite"
	"github.com/OpenRadar/awacs/internal/classify"
	"github.com/OpenRadar/awacs/internal/command"
	"github.com/OpenRadar/awacs/internal/dispatcher"
	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/internal/picture"
	"github.com/OpenRadar/awacs/internal/track"
	"github.com/OpenRadar/awacs/pkg/core"
)

const (
	replyNoBullseye = "UNABLE: no bullseye available."
	replyUnknown    = "UNABLE: command."
	whoLimit        = 50
	whoAllLimit     = 12
	whoUnknownLimit = 25
)

// HandleText parses one radio call and returns the reply. The call and its
// reply are written to the recent log.
func (c *Controller) HandleText(text string) string {
	cmd := command.Parse(text)
	start := time.Now()

	c.mu.Lock()
	res, err := c.commands.Dispatch(dispatcher.Event{
		Command: string(cmd.Kind()),
		Payload: cmd,
		SimTime: c.simTime,
	})
	reply := replyUnknown
	if err == nil {
		if s, ok := res.(string); ok {
			reply = s
		}
	}
	lines := []core.Alert{c.stamp(core.Alert{Kind: core.AlertCommand, Text: "> " + text})}
	lines = append(lines, c.takePending()...)
	lines = append(lines, c.stamp(core.Alert{Kind: core.AlertReply, Text: "< " + reply}))
	simTime := c.simTime
	c.mu.Unlock()

	// log sinks may do network I/O, so never under mu
	if err != nil {
		c.logger.Error("command failed", "command", cmd.Kind(), "simTime", simTime, "error", err)
	} else {
		c.logger.Debug("command handled", "command", cmd.Kind(), "simTime", simTime, "duration", time.Since(start))
	}
	c.publish(lines)
	return reply
}

// on adapts a typed command handler to the dispatcher.
func on[T command.Command](fn func(T) string) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		cmd, ok := e.Payload.(T)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Command)
		}
		return fn(cmd), nil
	}
}

func (c *Controller) registerCommands() {
	d := c.commands
	d.Register(string(command.KindWho), on(c.who))
	d.Register(string(command.KindPicture), on(c.picture))
	d.Register(string(command.KindBogeyDope), on(c.bogeyDope))
	d.Register(string(command.KindDeclare), on(c.declare))
	d.Register(string(command.KindSnap), on(c.snap))
	d.Register(string(command.KindVector), on(c.vector))
	d.Register(string(command.KindAlphaCheck), on(c.alphaCheck))
	d.Register(string(command.KindCapAddBulls), on(c.capAddBulls))
	d.Register(string(command.KindCapAddAt), on(c.capAddAt))
	d.Register(string(command.KindCapAssign), on(c.capAssign))
	d.Register(string(command.KindCapStatus), on(c.capStatus))
	d.Register(string(command.KindCapClear), on(c.capClear))
	d.Register(string(command.KindPushSet), on(c.pushSet))
	d.Register(string(command.KindPushStatus), on(c.pushStatus))
	d.Register(string(command.KindPushCancel), on(c.pushCancel))
	d.Register(string(command.KindPushExecute), on(c.pushExecute))
	d.Register(string(command.KindRejected), on(func(r command.Rejected) string { return r.Reply }))
}

// caller resolves the calling friendly: by callsign when given, else the
// first friendly.
func (c *Controller) caller(cs string) (core.Entity, bool) {
	if cs != "" {
		return c.reg.FindFriendly(cs)
	}
	return c.reg.DefaultFriendly()
}

func noFriendly(cs string) string {
	if cs == "" {
		cs = classify.GenericLabel
	}
	return cs + ", UNABLE: no friendly reference available."
}

func withCallsign(cs, reply string) string {
	if cs == "" {
		return reply
	}
	return cs + ", " + reply
}

// nearestThreat returns the hostile or unknown aircraft closest to from.
func (c *Controller) nearestThreat(from core.Point) (core.Entity, bool) {
	e, _, ok := track.Nearest(from, c.reg.Interest())
	return e, ok
}

func vectorLine(from, to core.Point) (string, bool) {
	brg, rng, err := geo.BearingRange(from, to)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("VECTOR %03d, %d miles.", brg, int(math.RoundToEven(rng))), true
}

func identityWord(e core.Entity, weaponsFree bool) string {
	return core.IdentityOf(classify.Coalition(e), weaponsFree).String()
}

// who

func (c *Controller) who(cmd command.Who) string {
	switch cmd.Scope {
	case command.WhoAll:
		blue, red, unk := c.reg.Friendly(), c.reg.Hostile(), c.reg.Unknown()
		return fmt.Sprintf("Seen — Blue:%d Red:%d Unknown:%d\n", len(blue), len(red), len(unk)) +
			"Blue:    " + describeAll(blue, whoAllLimit, "—") + "\n" +
			"Red:     " + describeAll(red, whoAllLimit, "—") + "\n" +
			"Unknown: " + describeAll(unk, whoAllLimit, "—")
	case command.WhoUnknown:
		return "Unknown tracks: " + describeAll(c.reg.Unknown(), whoUnknownLimit, "none")
	default:
		var items []string
		for i, e := range c.reg.Friendly() {
			if i == whoLimit {
				break
			}
			items = append(items, fmt.Sprintf("%s (%s)", classify.FriendlyLabel(e), orDefault(e.Name, "?")))
		}
		return "Blue tracks: " + joinOr(items, "none")
	}
}

func describeAll(es []core.Entity, limit int, empty string) string {
	var items []string
	for i, e := range es {
		if i == limit {
			break
		}
		items = append(items, fmt.Sprintf("%s [Coal=%s, Color=%s, Type=%s]",
			orDefault(e.Name, "(no Name)"), orDefault(e.Coalition, "?"), orDefault(e.Color, "?"), orDefault(e.Type, "?")))
	}
	return joinOr(items, empty)
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// picture and BRAA calls

func (c *Controller) picture(cmd command.Picture) string {
	interest := c.reg.Interest()
	if len(interest) == 0 {
		return withCallsign(cmd.Callsign, picture.Clean)
	}
	bull, ok := c.bullseye()
	if !ok {
		return withCallsign(cmd.Callsign, "PICTURE: "+replyNoBullseye)
	}
	return withCallsign(cmd.Callsign, picture.Picture(interest, bull, c.opts.Picture, c.weaponsFree))
}

func (c *Controller) bogeyDope(cmd command.BogeyDope) string {
	fr, ok := c.caller(cmd.Callsign)
	if !ok {
		return noFriendly(cmd.Callsign)
	}
	label := classify.FriendlyLabel(fr)
	tgt, ok := c.nearestThreat(fr.Transform.Position)
	if !ok {
		return label + ", " + picture.Clean
	}
	brg, rng, err := geo.BearingRange(fr.Transform.Position, tgt.Transform.Position)
	if err != nil {
		return label + ", " + picture.Clean
	}
	b := float64(brg)
	return fmt.Sprintf("%s, BOGEY DOPE: BRAA %03d/%d, %s, %s.", label, brg, int(math.RoundToEven(rng)),
		geo.AltitudePhrase(tgt.Transform.Altitude), geo.Aspect(tgt.Transform.Heading, &b))
}

func (c *Controller) snap(cmd command.Snap) string {
	fr, ok := c.caller(cmd.Callsign)
	if !ok {
		return noFriendly(cmd.Callsign)
	}
	label := classify.FriendlyLabel(fr)
	tgt, ok := c.nearestThreat(fr.Transform.Position)
	if !ok {
		return label + ", SNAP: no factor."
	}
	line, ok := vectorLine(fr.Transform.Position, tgt.Transform.Position)
	if !ok {
		return label + ", SNAP: no factor."
	}
	return label + ", " + line
}

func (c *Controller) declare(cmd command.Declare) string {
	if cmd.At != nil {
		return c.declareAt(*cmd.At)
	}
	fr, ok := c.caller(cmd.Callsign)
	if !ok {
		return noFriendly(cmd.Callsign)
	}
	tgt, ok := c.nearestThreat(fr.Transform.Position)
	if !ok {
		return "DECLARE: no factor."
	}
	return "DECLARE: " + identityWord(tgt, c.weaponsFree) + "."
}

// declareAt identifies whatever is nearest a bullseye position, friendlies
// included, within the declare radius.
func (c *Controller) declareAt(at command.Bulls) string {
	bull, ok := c.bullseye()
	if !ok {
		return "DECLARE: " + replyNoBullseye
	}
	point, err := geo.Project(bull, float64(at.Bearing), float64(at.RangeNM))
	if err != nil {
		return "DECLARE: " + replyNoBullseye
	}
	candidates := append(c.reg.Interest(), c.reg.Friendly()...)
	best, rng, ok := track.Nearest(point, candidates)
	if !ok || rng > c.opts.DeclareRadiusNM {
		return "DECLARE: no factor."
	}
	return "DECLARE: " + identityWord(best, c.weaponsFree) + "."
}

func (c *Controller) vector(cmd command.Vector) string {
	fr, ok := c.caller(cmd.Callsign)
	if !ok {
		return noFriendly(cmd.Callsign)
	}
	label := classify.FriendlyLabel(fr)

	var dest core.Point
	switch cmd.Target {
	case command.DestHome:
		dest = c.home(fr)
	case command.DestTanker:
		tanker, ok := c.reg.NearestTanker(fr.Transform.Position)
		if !ok {
			return label + ", UNABLE: no tanker."
		}
		dest = tanker.Transform.Position
	default:
		tgt, ok := track.Find(c.reg.Friendly(), cmd.Name)
		if !ok {
			return label + ", UNABLE: target not found."
		}
		dest = tgt.Transform.Position
	}
	line, ok := vectorLine(fr.Transform.Position, dest)
	if !ok {
		return label + ", UNABLE: target not found."
	}
	return label + ", " + line
}

// home returns the discovered home plate of fr, or its own position before
// one is known.
func (c *Controller) home(fr core.Entity) core.Point {
	if p, ok := c.reg.HomePlate(fr.ID); ok {
		return p
	}
	return fr.Transform.Position
}

func (c *Controller) alphaCheck(cmd command.AlphaCheck) string {
	fr, hasFriendly := c.caller(cmd.Callsign)
	prefix := cmd.Callsign
	if prefix == "" && hasFriendly {
		prefix = classify.FriendlyLabel(fr)
	}

	bull, ok := c.bullseye()
	if !ok {
		return withCallsign(prefix, "ALPHA CHECK: "+replyNoBullseye)
	}

	var fix core.Point
	switch cmd.Target {
	case command.DestTanker:
		from := bull
		if hasFriendly {
			from = fr.Transform.Position
		}
		tanker, ok := c.reg.NearestTanker(from)
		if !ok {
			return withCallsign(prefix, "UNABLE: no tanker.")
		}
		fix = tanker.Transform.Position
	case command.DestHome:
		if !hasFriendly {
			return noFriendly(cmd.Callsign)
		}
		fix = c.home(fr)
	default:
		if !hasFriendly {
			return noFriendly(cmd.Callsign)
		}
		fix = fr.Transform.Position
	}

	brg, rng, err := geo.BearingRange(bull, fix)
	if err != nil {
		return withCallsign(prefix, "UNABLE: alpha check.")
	}
	return withCallsign(prefix, fmt.Sprintf("ALPHA CHECK: BULLS %03d for %d.", brg, int(math.RoundToEven(rng))))
}

// CAP

func (c *Controller) capAddBulls(cmd command.CapAddBulls) string {
	bull, ok := c.bullseye()
	if !ok {
		return "CAP: " + replyNoBullseye
	}
	center, err := geo.Project(bull, float64(cmd.At.Bearing), float64(cmd.At.RangeNM))
	if err != nil {
		return "CAP: " + replyNoBullseye
	}
	site, err := c.caps.Define(cmd.Name, center, cmd.RadiusNM, cmd.AltLowFt, cmd.AltHighFt)
	if err != nil {
		return fmt.Sprintf("CAP: UNABLE: %v.", err)
	}
	return fmt.Sprintf("CAP: %s set at BULLS %03d/%d, radius %d nm, alt %s.",
		site.Name, cmd.At.Bearing, cmd.At.RangeNM, int(site.RadiusNM), site.Band())
}

func (c *Controller) capAddAt(cmd command.CapAddAt) string {
	f, ok := c.reg.FindFriendly(cmd.Callsign)
	if !ok {
		return fmt.Sprintf("CAP: UNABLE: %s not found.", cmd.Callsign)
	}
	site, err := c.caps.Define(cmd.Name, f.Transform.Position, cmd.RadiusNM, cmd.AltLowFt, cmd.AltHighFt)
	if err != nil {
		return fmt.Sprintf("CAP: UNABLE: %v.", err)
	}
	return fmt.Sprintf("CAP: %s set at %s position, radius %d nm, alt %s.",
		site.Name, classify.FriendlyLabel(f), int(site.RadiusNM), site.Band())
}

func (c *Controller) capAssign(cmd command.CapAssign) string {
	f, ok := c.reg.FindFriendly(cmd.Callsign)
	if !ok {
		return fmt.Sprintf("CAP: UNABLE: %s not found.", cmd.Callsign)
	}
	site, ok := c.caps.Get(cmd.Site)
	if !ok || c.caps.Assign(f.ID, site.Name) != nil {
		return fmt.Sprintf("CAP: %s not found.", cmd.Site)
	}
	return fmt.Sprintf("CAP: assigned %s to %s.", classify.FriendlyLabel(f), site.Name)
}

func (c *Controller) capStatus(cmd command.CapStatus) string {
	if c.caps.Len() == 0 {
		return "CAP: none."
	}
	reports, err := c.caps.Status(cmd.Site, c.reg)
	if err != nil {
		return fmt.Sprintf("CAP: %s not found.", cmd.Site)
	}
	return capsite.Format(reports)
}

func (c *Controller) capClear(cmd command.CapClear) string {
	if cmd.All {
		c.caps.ClearAll()
		return "CAP: cleared all."
	}
	site, ok := c.caps.Get(cmd.Site)
	if !ok || c.caps.Clear(site.Name) != nil {
		return fmt.Sprintf("CAP: %s not found.", cmd.Site)
	}
	return fmt.Sprintf("CAP: cleared %s.", site.Name)
}

// PUSH

func (c *Controller) pushSet(cmd command.PushSet) string {
	bull, ok := c.bullseye()
	if !ok {
		return "PUSH: " + replyNoBullseye
	}
	target, err := geo.Project(bull, float64(cmd.At.Bearing), float64(cmd.At.RangeNM))
	if err != nil {
		return "PUSH: " + replyNoBullseye
	}
	return c.push.Set(cmd.At.Bearing, cmd.At.RangeNM, target, cmd.Offset, c.simTime)
}

func (c *Controller) pushStatus(command.PushStatus) string {
	return c.push.Status(c.simTime)
}

func (c *Controller) pushCancel(command.PushCancel) string {
	c.push.Cancel()
	return "PUSH: canceled."
}

func (c *Controller) pushExecute(command.PushExecute) string {
	alerts, ok := c.push.ExecuteNow(c.simTime, c.recipients)
	if !ok {
		return "PUSH: no plan."
	}
	c.emit(alerts...)
	return "PUSH: executed."
}
