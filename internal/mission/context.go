package mission

import (
	"strconv"
	"sync"
	"time"
)

// Global property keys the session cares about.
const (
	KeyTitle              = "Title"
	KeyReferenceTime      = "ReferenceTime"
	KeyReferenceLongitude = "ReferenceLongitude"
	KeyReferenceLatitude  = "ReferenceLatitude"
	KeyRecordingTime      = "RecordingTime"
	KeyAuthor             = "Author"
)

// Context holds the global property bag of the current telemetry session.
type Context struct {
	mu    sync.RWMutex
	props map[string]string
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{props: make(map[string]string)}
}

// Merge folds props into the bag. Later values win.
func (mc *Context) Merge(props map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for k, v := range props {
		mc.props[k] = v
	}
}

// Reset drops every property, for a new session.
func (mc *Context) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.props = make(map[string]string)
}

// Get returns a single property.
func (mc *Context) Get(key string) (string, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	v, ok := mc.props[key]
	return v, ok
}

// Props returns a copy of the bag.
func (mc *Context) Props() map[string]string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	out := make(map[string]string, len(mc.props))
	for k, v := range mc.props {
		out[k] = v
	}
	return out
}

// Title returns the mission title, or a placeholder before one is reported.
func (mc *Context) Title() string {
	if t, ok := mc.Get(KeyTitle); ok && t != "" {
		return t
	}
	return "No mission loaded"
}

// ReferenceTime returns the wall-clock time of simulation time zero.
func (mc *Context) ReferenceTime() (time.Time, bool) {
	v, ok := mc.Get(KeyReferenceTime)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Reference returns the reference longitude and latitude.
func (mc *Context) Reference() (lon, lat float64, ok bool) {
	lonS, okLon := mc.Get(KeyReferenceLongitude)
	latS, okLat := mc.Get(KeyReferenceLatitude)
	if !okLon || !okLat {
		return 0, 0, false
	}
	lon, errLon := strconv.ParseFloat(lonS, 64)
	lat, errLat := strconv.ParseFloat(latS, 64)
	if errLon != nil || errLat != nil {
		return 0, 0, false
	}
	return lon, lat, true
}

// WallClock converts a simulation time to wall-clock time using the
// reference time. ok is false before the reference time is known.
func (mc *Context) WallClock(simTime float64) (time.Time, bool) {
	ref, ok := mc.ReferenceTime()
	if !ok {
		return time.Time{}, false
	}
	return ref.Add(time.Duration(simTime * float64(time.Second))), true
}
