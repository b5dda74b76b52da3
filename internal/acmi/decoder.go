// Package acmi decodes the line-oriented Tacview ACMI text format into
// telemetry events.
package acmi

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenRadar/awacs/pkg/core"
)

// ErrMalformedLine is returned for a line that cannot be decoded. Callers
// drop the line and carry on.
var ErrMalformedLine = errors.New("malformed telemetry line")

const bom = "\ufeff"

// transform slots, in the order of the 9-field T= layout
const (
	slotLon = iota
	slotLat
	slotAlt
	slotRoll
	slotPitch
	slotYaw
	slotU
	slotV
	slotHeading
	slotCount
)

// layouts maps a T= field count onto transform slots.
var layouts = map[int][]int{
	3: {slotLon, slotLat, slotAlt},
	5: {slotLon, slotLat, slotAlt, slotU, slotV},
	6: {slotLon, slotLat, slotAlt, slotRoll, slotPitch, slotYaw},
	9: {slotLon, slotLat, slotAlt, slotRoll, slotPitch, slotYaw, slotU, slotV, slotHeading},
}

// Tacview sometimes drops the separator between Health and Name.
var gluedProps = regexp.MustCompile(`(Health=[^,|]+?)(Name=)`)

type object struct {
	entity core.Entity
	coords [slotCount]float64
	has    [slotCount]bool
}

// Decoder is a stateful ACMI line decoder. Object lines are incremental, so
// the decoder keeps the accumulated state of every live object. It is not
// safe for concurrent use.
type Decoder struct {
	global  map[string]string
	refLon  float64
	refLat  float64
	objects map[string]*object
	pending strings.Builder
	joining bool
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		global:  make(map[string]string),
		objects: make(map[string]*object),
	}
}

// Reset forgets every object and global property.
func (d *Decoder) Reset() {
	d.global = make(map[string]string)
	d.objects = make(map[string]*object)
	d.refLon, d.refLat = 0, 0
	d.pending.Reset()
	d.joining = false
}

// Objects returns the number of live objects.
func (d *Decoder) Objects() int {
	return len(d.objects)
}

// Decode turns one line into at most one event. ok is false when the line
// carries nothing to apply: a header, a blank line or the first half of a
// continued line.
func (d *Decoder) Decode(line string) (ev core.TelemetryEvent, ok bool, err error) {
	line = strings.TrimPrefix(strings.TrimRight(line, "\r\n"), bom)

	if strings.HasSuffix(line, `\`) && !strings.HasSuffix(line, `\\`) {
		d.pending.WriteString(strings.TrimSuffix(line, `\`))
		d.pending.WriteByte('\n')
		d.joining = true
		return ev, false, nil
	}
	if d.joining {
		d.pending.WriteString(line)
		line = d.pending.String()
		d.pending.Reset()
		d.joining = false
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "",
		strings.HasPrefix(trimmed, "FileType="),
		strings.HasPrefix(trimmed, "FileVersion="),
		strings.HasPrefix(trimmed, "//"):
		return ev, false, nil

	case trimmed[0] == '#':
		t, perr := strconv.ParseFloat(trimmed[1:], 64)
		if perr != nil {
			return ev, false, fmt.Errorf("%w: bad time %q", ErrMalformedLine, trimmed)
		}
		return core.TelemetryEvent{Kind: core.EventTime, Time: t}, true, nil

	case trimmed[0] == '-':
		id := trimmed[1:]
		if !validID(id) {
			return ev, false, fmt.Errorf("%w: bad object id %q", ErrMalformedLine, id)
		}
		delete(d.objects, id)
		return core.TelemetryEvent{Kind: core.EventRemove, ID: id}, true, nil
	}

	id, rest, _ := strings.Cut(line, ",")
	id = strings.TrimSpace(id)
	if !validID(id) {
		return ev, false, fmt.Errorf("%w: bad object id %q", ErrMalformedLine, id)
	}

	props, perr := splitProps(gluedProps.ReplaceAllString(rest, "$1,$2"))
	if perr != nil {
		return ev, false, perr
	}

	if id == "0" {
		return d.applyGlobal(props)
	}
	return d.applyObject(id, props)
}

func (d *Decoder) applyGlobal(props [][2]string) (core.TelemetryEvent, bool, error) {
	for _, kv := range props {
		switch kv[0] {
		case "ReferenceLongitude":
			v, err := strconv.ParseFloat(kv[1], 64)
			if err != nil {
				return core.TelemetryEvent{}, false, fmt.Errorf("%w: bad ReferenceLongitude %q", ErrMalformedLine, kv[1])
			}
			d.refLon = v
		case "ReferenceLatitude":
			v, err := strconv.ParseFloat(kv[1], 64)
			if err != nil {
				return core.TelemetryEvent{}, false, fmt.Errorf("%w: bad ReferenceLatitude %q", ErrMalformedLine, kv[1])
			}
			d.refLat = v
		}
		d.global[kv[0]] = kv[1]
	}

	bag := make(map[string]string, len(d.global))
	for k, v := range d.global {
		bag[k] = v
	}
	return core.TelemetryEvent{Kind: core.EventGlobal, Props: bag}, true, nil
}

func (d *Decoder) applyObject(id string, props [][2]string) (core.TelemetryEvent, bool, error) {
	obj, seen := d.objects[id]
	if !seen {
		obj = &object{entity: core.Entity{ID: id, Props: make(map[string]string)}}
	}

	// parse into a scratch copy so a bad T= leaves the stored object untouched
	coords, has := obj.coords, obj.has
	for _, kv := range props {
		if kv[0] != "T" {
			continue
		}
		if err := parseTransform(kv[1], &coords, &has); err != nil {
			return core.TelemetryEvent{}, false, err
		}
	}

	obj.coords, obj.has = coords, has
	for _, kv := range props {
		key, val := kv[0], kv[1]
		if key == "T" {
			continue
		}
		obj.entity.Props[key] = val
		switch key {
		case "Name":
			obj.entity.Name = val
		case "Type":
			obj.entity.Type = val
		case "Coalition":
			obj.entity.Coalition = val
		case "Color":
			obj.entity.Color = val
		case "CallSign", "Callsign":
			obj.entity.Callsign = val
		case "Pilot":
			obj.entity.Pilot = val
		case "Group":
			obj.entity.Group = val
		case "Unit":
			obj.entity.Unit = val
		}
	}
	d.objects[id] = obj

	e := obj.entity.Clone()
	e.Transform = d.transform(obj)
	return core.TelemetryEvent{Kind: core.EventUpdate, Entity: &e}, true, nil
}

func (d *Decoder) transform(obj *object) core.Transform {
	var t core.Transform
	c, has := obj.coords, obj.has

	switch {
	case has[slotU] && has[slotV]:
		t.Position = core.Planar(c[slotU], c[slotV])
	case has[slotLon] && has[slotLat]:
		t.Position = core.Geodetic(d.refLon+c[slotLon], d.refLat+c[slotLat])
	}
	if has[slotAlt] {
		t.Altitude = core.Float(c[slotAlt])
	}
	switch {
	case has[slotHeading]:
		t.Heading = core.Float(c[slotHeading])
	case has[slotYaw]:
		t.Heading = core.Float(c[slotYaw])
	}
	return t
}

func parseTransform(raw string, coords *[slotCount]float64, has *[slotCount]bool) error {
	fields := strings.Split(raw, "|")
	slots, ok := layouts[len(fields)]
	if !ok {
		return fmt.Errorf("%w: T= has %d fields", ErrMalformedLine, len(fields))
	}
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("%w: bad T= field %q", ErrMalformedLine, f)
		}
		coords[slots[i]] = v
		has[slots[i]] = true
	}
	return nil
}

// splitProps splits "K=V,K=V" honouring the \, escape.
func splitProps(s string) ([][2]string, error) {
	var (
		out   [][2]string
		cur   strings.Builder
		parts []string
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' && i+1 < len(s) {
			i++
			cur.WriteByte(s[i])
			continue
		}
		if ch == ',' {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	parts = append(parts, cur.String())

	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		k, v, found := strings.Cut(p, "=")
		if !found || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: bad property %q", ErrMalformedLine, p)
		}
		out = append(out, [2]string{strings.TrimSpace(k), v})
	}
	return out, nil
}

func validID(id string) bool {
	if id == "" || len(id) > 16 {
		return false
	}
	_, err := strconv.ParseUint(id, 16, 64)
	return err == nil
}
