// Package push holds the single time-triggered PUSH plan. Every time is
// simulation seconds from the telemetry clock.
package push

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenRadar/awacs/pkg/core"
)

// ErrBadOffset is returned for a time specification ParseOffset does not know.
var ErrBadOffset = errors.New("bad push time")

// Plan is the pending push.
type Plan struct {
	Active    bool
	Bearing   int // bulls bearing, degrees
	RangeNM   int // bulls range
	Target    core.Point
	ExecAt    float64
	CreatedAt float64
}

// Due reports whether plan should execute at simulation time now.
func Due(plan Plan, now float64) bool {
	return plan.Active && now >= plan.ExecAt
}

var (
	inSeconds = regexp.MustCompile(`^in\s+(\d+)\s*s?$`)
	inMinutes = regexp.MustCompile(`^in\s+(\d+)\s*m$`)
	atSeconds = regexp.MustCompile(`^at\s+\+(\d+)$`)
	atClock   = regexp.MustCompile(`^at\s+\+(\d+):(\d{1,2})$`)
)

// ParseOffset turns "now", "in 90s", "in 90", "in 2m", "at +150" or
// "at +2:30" into a non-negative offset in seconds. An empty string means now.
func ParseOffset(when string) (float64, error) {
	t := strings.ToLower(strings.Join(strings.Fields(when), " "))
	switch t {
	case "", "now", "immediately", "0", "+0":
		return 0, nil
	}
	bad := fmt.Errorf("%q: %w", when, ErrBadOffset)
	if m := inSeconds.FindStringSubmatch(t); m != nil {
		return seconds(bad, m[1], "0", 1)
	}
	if m := inMinutes.FindStringSubmatch(t); m != nil {
		return seconds(bad, m[1], "0", 60)
	}
	if m := atSeconds.FindStringSubmatch(t); m != nil {
		return seconds(bad, m[1], "0", 1)
	}
	if m := atClock.FindStringSubmatch(t); m != nil {
		return seconds(bad, m[1], m[2], 60)
	}
	return 0, bad
}

// maxOffset bounds an offset to about a year of sim time.
const maxOffset = 366 * 24 * 3600

// seconds computes lead*scale + sec. sec must be a valid second of a minute
// and the total must not exceed maxOffset; otherwise bad is returned.
func seconds(bad error, lead, sec string, scale int) (float64, error) {
	n, err := strconv.Atoi(lead)
	if err != nil || n > maxOffset/scale {
		return 0, bad
	}
	s, err := strconv.Atoi(sec)
	if err != nil || s >= 60 {
		return 0, bad
	}
	total := n*scale + s
	if total > maxOffset {
		return 0, bad
	}
	return float64(total), nil
}

// Recipient is a flight that receives the push broadcast.
type Recipient struct {
	ID    string
	Label string
}

// Scheduler arms and executes the plan. It is not safe for concurrent use.
type Scheduler struct {
	plan Plan
}

// NewScheduler returns a scheduler without a plan.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Plan returns the current plan.
func (s *Scheduler) Plan() Plan {
	return s.plan
}

// Active reports whether a plan is armed.
func (s *Scheduler) Active() bool {
	return s.plan.Active
}

// Set arms a plan offset seconds after now, replacing any existing one, and
// returns the acknowledgement.
func (s *Scheduler) Set(bearing, rangeNM int, target core.Point, offset, now float64) string {
	s.plan = Plan{
		Active:    true,
		Bearing:   bearing,
		RangeNM:   rangeNM,
		Target:    target,
		ExecAt:    now + offset,
		CreatedAt: now,
	}
	when := "now"
	if offset > 0 {
		when = fmt.Sprintf("T+%ds", int(offset))
	}
	return fmt.Sprintf("PUSH: set BULLS %03d/%d, exec %s.", bearing, rangeNM, when)
}

// Cancel clears the plan.
func (s *Scheduler) Cancel() {
	s.plan = Plan{}
}

// Status describes the plan as seen at now.
func (s *Scheduler) Status(now float64) string {
	if !s.plan.Active {
		return "PUSH: no plan."
	}
	left := int(math.Max(0, s.plan.ExecAt-now))
	return fmt.Sprintf("PUSH: BULLS %03d for %d, exec at T+%ds.", s.plan.Bearing, s.plan.RangeNM, left)
}

// Tick executes the plan if it is due at now. recipients is resolved only at
// execution. It returns the broadcast and whether the plan executed.
func (s *Scheduler) Tick(now float64, recipients func() []Recipient) ([]core.Alert, bool) {
	if !Due(s.plan, now) {
		return nil, false
	}
	p := s.plan
	s.plan.Active = false

	var rs []Recipient
	if recipients != nil {
		rs = recipients()
	}
	if len(rs) == 0 {
		return []core.Alert{{Kind: core.AlertPush, Text: "PUSH: no assigned flights."}}, true
	}
	out := make([]core.Alert, 0, len(rs))
	for _, r := range rs {
		target := p.Target
		out = append(out, core.Alert{
			Kind:     core.AlertPush,
			Text:     fmt.Sprintf("%s, PUSH, BULLS %03d for %d.", r.Label, p.Bearing, p.RangeNM),
			EntityID: r.ID,
			Position: &target,
		})
	}
	return out, true
}

// ExecuteNow moves the execution time to now and runs the same path as Tick.
// It reports false when no plan is armed.
func (s *Scheduler) ExecuteNow(now float64, recipients func() []Recipient) ([]core.Alert, bool) {
	if !s.plan.Active {
		return nil, false
	}
	s.plan.ExecAt = now
	return s.Tick(now, recipients)
}
